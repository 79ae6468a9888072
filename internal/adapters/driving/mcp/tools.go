package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// errNoDocumentService is reported by document tools when the server was
// built without a document service.
var errNoDocumentService = errors.New("document service not configured")

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question  string `json:"question" jsonschema:"the question to answer from the indexed documents"`
	SessionID string `json:"session_id,omitempty" jsonschema:"session to continue; a new one is started when empty"`
	Model     string `json:"model,omitempty" jsonschema:"generation model override"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer             string         `json:"answer"`
	SessionID          string         `json:"session_id"`
	Model              string         `json:"model"`
	StandaloneQuestion string         `json:"standalone_question"`
	Sources            []SourceOutput `json:"sources"`
}

// SourceOutput is one retrieved chunk backing an answer.
type SourceOutput struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename,omitempty"`
	Position   int     `json:"position"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

// ListDocumentsInput is the (empty) input schema for list_documents.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for list_documents.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput describes a catalogued document.
type DocumentOutput struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Format     string `json:"format"`
	UploadedAt string `json:"uploaded_at"`
}

// DeleteDocumentInput is the input schema for delete_document.
type DeleteDocumentInput struct {
	DocumentID string `json:"document_id" jsonschema:"the id of the document to delete"`
}

// DeleteDocumentOutput is the output schema for delete_document.
type DeleteDocumentOutput struct {
	DocumentID    string `json:"document_id"`
	ChunksRemoved int    `json:"chunks_removed"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using the indexed documents, continuing a session when given",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List uploaded documents, newest first",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_document",
		Description: "Delete a document and all of its indexed chunks",
	}, s.handleDeleteDocument)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	resp, err := s.chat.Ask(ctx, domain.ChatRequest{
		SessionID: input.SessionID,
		Question:  input.Question,
		Model:     input.Model,
	})
	if err != nil {
		return nil, AskOutput{}, toolError("ask", err)
	}

	output := AskOutput{
		Answer:             resp.Answer,
		SessionID:          resp.SessionID,
		Model:              resp.Model,
		StandaloneQuestion: resp.StandaloneQuestion,
		Sources:            make([]SourceOutput, len(resp.Sources)),
	}
	for i, src := range resp.Sources {
		filename, _ := src.Chunk.Metadata["filename"].(string)
		output.Sources[i] = SourceOutput{
			DocumentID: src.Chunk.DocumentID,
			Filename:   filename,
			Position:   src.Chunk.Position,
			Score:      src.Score,
			Content:    src.Chunk.Content,
		}
	}

	return nil, output, nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	if s.docs == nil {
		return nil, ListDocumentsOutput{}, errNoDocumentService
	}

	docs, err := s.docs.List(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, toolError("list_documents", err)
	}

	return nil, ListDocumentsOutput{Documents: documentOutputs(docs), Count: len(docs)}, nil
}

// handleDeleteDocument handles the delete_document tool invocation.
func (s *Server) handleDeleteDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteDocumentInput,
) (*mcp.CallToolResult, DeleteDocumentOutput, error) {
	if s.docs == nil {
		return nil, DeleteDocumentOutput{}, errNoDocumentService
	}

	result, err := s.docs.Delete(ctx, input.DocumentID)
	if err != nil {
		return nil, DeleteDocumentOutput{}, toolError("delete_document", err)
	}

	return nil, DeleteDocumentOutput{
		DocumentID:    result.DocumentID,
		ChunksRemoved: result.ChunksRemoved,
	}, nil
}

func documentOutputs(docs []domain.Document) []DocumentOutput {
	out := make([]DocumentOutput, len(docs))
	for i := range docs {
		out[i] = DocumentOutput{
			ID:         docs[i].ID,
			Filename:   docs[i].Filename,
			Format:     docs[i].Format.String(),
			UploadedAt: timestamp(docs[i].CreatedAt),
		}
	}
	return out
}
