package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// AIConfigValidator checks provider settings before they are relied on.
// Settings that are not configured yet pass; the caller decides whether a
// missing provider is an error.
type AIConfigValidator interface {
	// ValidateEmbedding reports domain.ErrEmbeddingUnavailable when the
	// provider cannot be reached.
	ValidateEmbedding(ctx context.Context, settings *domain.EmbeddingSettings) error

	// ValidateLLM reports domain.ErrGenerationUnavailable when the
	// provider cannot be reached.
	ValidateLLM(ctx context.Context, settings *domain.LLMSettings) error
}
