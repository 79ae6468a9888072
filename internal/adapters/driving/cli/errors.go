package cli

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// errorMessages maps each failure kind to what the user is told. Order
// matters: a joined rollback failure carries several kinds.
var errorMessages = []struct {
	kind    error
	message string
}{
	{domain.ErrCatalogInconsistency, "the document catalogue may be out of step with the index; run 'ragchat docs list' to check"},
	{domain.ErrRateLimited, "the AI provider is rate limiting requests; try again shortly"},
	{domain.ErrUnsupportedFormat, "unsupported file type"},
	{domain.ErrEmptyDocument, "no text could be extracted from the document"},
	{domain.ErrExtractionFailed, "the document could not be read"},
	{domain.ErrInvalidInput, "invalid input"},
	{domain.ErrNotFound, "not found"},
	{domain.ErrEmbeddingUnavailable, "the embedding provider is unavailable; check 'ragchat settings embedding'"},
	{domain.ErrGenerationUnavailable, "the language model is unavailable; check 'ragchat settings llm'"},
	{domain.ErrVectorIndexUnavailable, "the vector index is unavailable"},
	{domain.ErrIndexWriteFailure, "writing to the vector index failed"},
	{domain.ErrIndexDeleteFailure, "removing entries from the vector index failed"},
	{domain.ErrNotImplemented, "not supported by the configured backend"},
}

// describe prefixes err with a human-readable explanation of its kind.
// The original error stays reachable through errors.Is.
func describe(err error) error {
	if err == nil {
		return nil
	}
	for _, m := range errorMessages {
		if errors.Is(err, m.kind) {
			return fmt.Errorf("%s: %w", m.message, err)
		}
	}
	return err
}
