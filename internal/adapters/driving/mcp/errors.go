// Package mcp provides an MCP (Model Context Protocol) server adapter for ragchat.
// It lets AI assistants ask questions against the indexed documents and
// manage the document catalogue.
package mcp

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("mcp: chat service is required")

// toolError turns a core error into the message an assistant sees.
// The cause stays attached for errors.Is.
func toolError(op string, err error) error {
	var msg string
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		msg = "invalid arguments"
	case errors.Is(err, domain.ErrNotFound):
		msg = "not found"
	case errors.Is(err, domain.ErrRateLimited):
		msg = "provider rate limit exceeded, retry later"
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		msg = "embedding service unavailable"
	case errors.Is(err, domain.ErrGenerationUnavailable):
		msg = "language model unavailable"
	case errors.Is(err, domain.ErrVectorIndexUnavailable):
		msg = "vector index unavailable"
	case errors.Is(err, domain.ErrIndexDeleteFailure):
		msg = "index delete failed"
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %s: %w", op, msg, err)
}
