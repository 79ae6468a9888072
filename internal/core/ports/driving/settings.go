package driving

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// SettingsService reads and edits the persisted configuration. Setters
// validate before writing and leave the stored settings untouched on
// error. API keys supplied through the environment are never written.
type SettingsService interface {
	Get() (*domain.AppSettings, error)
	Save(settings *domain.AppSettings) error
	GetDefaults() domain.AppSettings

	// SetEmbeddingProvider and SetLLMProvider fall back to the provider's
	// default model when model is empty.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	SetTopK(k int) error
	SetChunking(size, overlap int) error

	// ValidateEmbeddingConfig and ValidateLLMConfig ping the saved
	// providers. An unconfigured provider passes.
	ValidateEmbeddingConfig(ctx context.Context) error
	ValidateLLMConfig(ctx context.Context) error
}
