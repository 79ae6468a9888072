package httpapi

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/logger"
)

type handler struct {
	ports *Ports
	opts  Options
}

// documentView is the wire form of a catalogued document.
type documentView struct {
	ID              string `json:"id"`
	Filename        string `json:"filename"`
	Format          string `json:"format"`
	UploadTimestamp string `json:"upload_timestamp"`
	Chunks          any    `json:"chunks,omitempty"`
}

func toDocumentView(doc *domain.Document) documentView {
	return documentView{
		ID:              doc.ID,
		Filename:        doc.Filename,
		Format:          doc.Format.String(),
		UploadTimestamp: doc.CreatedAt.UTC().Format(time.RFC3339),
		Chunks:          doc.Metadata["chunks"],
	}
}

func (h *handler) ping(c *gin.Context) {
	ok(c, "pong")
}

// uploadDoc streams the multipart "file" field to a temp file, ingests it
// and removes the temp file.
func (h *handler) uploadDoc(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "file too large")
			return
		}
		fail(c, http.StatusBadRequest, CodeBadRequest, "multipart field \"file\" is required")
		return
	}

	filename := filepath.Base(fh.Filename)
	if _, err := domain.ParseFormat(filename); err != nil {
		failWith(c, err)
		return
	}

	content, err := h.readViaTempFile(c, fh)
	if err != nil {
		logger.Warn("upload %s: %v", filename, err)
		fail(c, http.StatusInternalServerError, CodeInternal, "failed to store upload")
		return
	}

	doc, err := h.ports.Ingest.Ingest(c.Request.Context(), filename, content)
	if err != nil {
		failWith(c, err)
		return
	}

	ok(c, toDocumentView(doc))
}

func (h *handler) readViaTempFile(c *gin.Context, fh *multipart.FileHeader) ([]byte, error) {
	tmp, err := os.CreateTemp(h.opts.TempDir, "ragchat-upload-*"+filepath.Ext(fh.Filename))
	if err != nil {
		return nil, err
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("removing temp upload %s: %v", path, err)
		}
	}()

	if err := c.SaveUploadedFile(fh, path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *handler) listDocs(c *gin.Context) {
	docs, err := h.ports.Document.List(c.Request.Context())
	if err != nil {
		failWith(c, err)
		return
	}

	views := make([]documentView, len(docs))
	for i := range docs {
		views[i] = toDocumentView(&docs[i])
	}
	ok(c, views)
}

type deleteDocReq struct {
	FileID string `json:"file_id" binding:"required"`
}

func (h *handler) deleteDoc(c *gin.Context) {
	var req deleteDocReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "invalid json: file_id is required")
		return
	}

	result, err := h.ports.Document.Delete(c.Request.Context(), req.FileID)
	if err != nil {
		failWith(c, err)
		return
	}

	ok(c, gin.H{
		"file_id":        result.DocumentID,
		"chunks_removed": result.ChunksRemoved,
	})
}

type chatReq struct {
	Question  string `json:"question" binding:"required"`
	SessionID string `json:"session_id"`
	Model     string `json:"model"`
}

type sourceView struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename,omitempty"`
	Position   int     `json:"position"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

func (h *handler) chat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "invalid json: question is required")
		return
	}

	resp, err := h.ports.Chat.Ask(c.Request.Context(), domain.ChatRequest{
		SessionID: req.SessionID,
		Question:  req.Question,
		Model:     req.Model,
	})
	if err != nil {
		failWith(c, err)
		return
	}

	sources := make([]sourceView, len(resp.Sources))
	for i, src := range resp.Sources {
		filename, _ := src.Chunk.Metadata["filename"].(string)
		sources[i] = sourceView{
			DocumentID: src.Chunk.DocumentID,
			Filename:   filename,
			Position:   src.Chunk.Position,
			Score:      src.Score,
			Content:    src.Chunk.Content,
		}
	}

	ok(c, gin.H{
		"answer":              resp.Answer,
		"session_id":          resp.SessionID,
		"model":               resp.Model,
		"standalone_question": resp.StandaloneQuestion,
		"sources":             sources,
	})
}

type turnView struct {
	ID        int64  `json:"id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
}

func (h *handler) sessionHistory(c *gin.Context) {
	sessionID := c.Param("session_id")

	turns, err := h.ports.Chat.History(c.Request.Context(), sessionID)
	if err != nil {
		failWith(c, err)
		return
	}

	views := make([]turnView, len(turns))
	for i := range turns {
		views[i] = turnView{
			ID:        turns[i].ID,
			Question:  turns[i].Question,
			Answer:    turns[i].Answer,
			Model:     turns[i].Model,
			CreatedAt: turns[i].CreatedAt.UTC().Format(time.RFC3339),
		}
	}

	ok(c, gin.H{
		"session_id": sessionID,
		"turns":      views,
	})
}
