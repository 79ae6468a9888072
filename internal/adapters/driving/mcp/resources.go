package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

const (
	uriScheme       = "ragchat://"
	documentsURI    = uriScheme + "documents"
	sessionsPrefix  = uriScheme + "sessions/"
	jsonMIME        = "application/json"
	timestampLayout = "2006-01-02T15:04:05Z"
)

// TurnOutput is one stored turn of a session resource.
type TurnOutput struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
}

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         documentsURI,
		Name:        "documents",
		Description: "List of all uploaded documents",
		MIMEType:    jsonMIME,
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: sessionsPrefix + "{sessionId}",
		Name:        "session-history",
		Description: "Question and answer turns of a chat session, oldest first",
		MIMEType:    jsonMIME,
	}, s.handleSessionResource)
}

// handleDocumentsResource serves the catalogue. A server without a
// document service serves an empty list.
func (s *Server) handleDocumentsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	if s.docs == nil {
		return jsonContents(req.Params.URI, "[]"), nil
	}
	docs, err := s.docs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return marshalContents(req.Params.URI, documentOutputs(docs))
}

// handleSessionResource serves the turns of one session. Unknown and empty
// sessions are both reported as not found.
func (s *Server) handleSessionResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	sessionID := extractSessionID(uri)
	if sessionID == "" {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	turns, err := s.chat.History(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session history: %w", err)
	}
	if len(turns) == 0 {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	return marshalContents(uri, turnOutputs(turns))
}

func turnOutputs(turns []domain.Turn) []TurnOutput {
	out := make([]TurnOutput, len(turns))
	for i, t := range turns {
		out[i] = TurnOutput{
			Question:  t.Question,
			Answer:    t.Answer,
			Model:     t.Model,
			CreatedAt: timestamp(t.CreatedAt),
		}
	}
	return out
}

func timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func marshalContents(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return jsonContents(uri, string(data)), nil
}

func jsonContents(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: jsonMIME, Text: text}},
	}
}

// extractSessionID returns the id in ragchat://sessions/{id}, or "" when
// uri has another shape.
func extractSessionID(uri string) string {
	id, ok := strings.CutPrefix(uri, sessionsPrefix)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
