package services

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyLLMAllowedModels = "llm.allowed_models"
	keyTopK             = "retrieval.top_k"
	keyChunkSize        = "chunking.size"
	keyChunkOverlap     = "chunking.overlap"
	keyStorageCatalog   = "storage.catalog"
	keyCatalogDriver    = "storage.catalog_driver"
	keyCatalogDSN       = "storage.catalog_dsn"
	keyStorageHistory   = "storage.history"
	keyRedisAddr        = "storage.redis_addr"
	keyStorageIndex     = "storage.index"
	keyPGVectorDSN      = "storage.pgvector_dsn"
	keyServerAddr       = "server.addr"
)

// Environment variables consulted when the matching setting is empty.
//
//nolint:gosec // G101: variable names, not credentials.
const (
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvOllamaHost      = "OLLAMA_HOST"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings. Empty API keys and Ollama
// base URLs are filled from the environment.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL),
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider:      s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:         s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:       s.configStore.GetString(keyLLMBaseURL),
			APIKey:        s.configStore.GetString(keyLLMAPIKey),
			AllowedModels: s.getStringSlice(keyLLMAllowedModels, defaults.LLM.AllowedModels),
		},
		Retrieval: domain.RetrievalSettings{
			TopK: s.getInt(keyTopK, defaults.Retrieval.TopK),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunking.Size),
			Overlap: s.getIntAllowZero(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Storage: domain.StorageSettings{
			Catalog:       s.getBackend(keyStorageCatalog, defaults.Storage.Catalog),
			CatalogDriver: s.configStore.GetString(keyCatalogDriver),
			CatalogDSN:    s.configStore.GetString(keyCatalogDSN),
			History:       s.getBackend(keyStorageHistory, defaults.Storage.History),
			RedisAddr:     s.configStore.GetString(keyRedisAddr),
			Index:         s.getBackend(keyStorageIndex, defaults.Storage.Index),
			PGVectorDSN:   s.configStore.GetString(keyPGVectorDSN),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, defaults.Server.Addr),
		},
	}

	settings.Embedding.APIKey, settings.Embedding.BaseURL = s.fromEnv(
		settings.Embedding.Provider, settings.Embedding.APIKey, settings.Embedding.BaseURL)
	settings.LLM.APIKey, settings.LLM.BaseURL = s.fromEnv(
		settings.LLM.Provider, settings.LLM.APIKey, settings.LLM.BaseURL)

	if err := settings.Chunking.Validate(); err != nil {
		return nil, fmt.Errorf("chunking settings (size %d, overlap %d): %w",
			settings.Chunking.Size, settings.Chunking.Overlap, err)
	}

	return settings, nil
}

// Save persists application settings. API keys that came from the
// environment are not written to the config file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Chunking.Validate(); err != nil {
		return fmt.Errorf("chunking settings: %w", err)
	}
	if settings.Retrieval.TopK < 1 {
		return fmt.Errorf("%w: top_k must be at least 1", domain.ErrInvalidInput)
	}

	values := map[string]any{
		keyEmbedProvider:    settings.Embedding.Provider.String(),
		keyEmbedModel:       settings.Embedding.Model,
		keyEmbedBaseURL:     settings.Embedding.BaseURL,
		keyLLMProvider:      settings.LLM.Provider.String(),
		keyLLMModel:         settings.LLM.Model,
		keyLLMBaseURL:       settings.LLM.BaseURL,
		keyLLMAllowedModels: append([]string{}, settings.LLM.AllowedModels...),
		keyTopK:             settings.Retrieval.TopK,
		keyChunkSize:        settings.Chunking.Size,
		keyChunkOverlap:     settings.Chunking.Overlap,
		keyStorageCatalog:   string(settings.Storage.Catalog),
		keyCatalogDriver:    settings.Storage.CatalogDriver,
		keyCatalogDSN:       settings.Storage.CatalogDSN,
		keyStorageHistory:   string(settings.Storage.History),
		keyRedisAddr:        settings.Storage.RedisAddr,
		keyStorageIndex:     string(settings.Storage.Index),
		keyPGVectorDSN:      settings.Storage.PGVectorDSN,
		keyServerAddr:       settings.Server.Addr,
	}
	if key := settings.Embedding.APIKey; key != "" && key != s.envAPIKey(settings.Embedding.Provider) {
		values[keyEmbedAPIKey] = key
	}
	if key := settings.LLM.APIKey; key != "" && key != s.envAPIKey(settings.LLM.Provider) {
		values[keyLLMAPIKey] = key
	}

	if err := s.configStore.Update(values); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if apiKey == "" {
		apiKey = s.envAPIKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider. A model outside a
// non-empty allow-list is added to it.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if apiKey == "" {
		apiKey = s.envAPIKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	if settings.LLM.Provider != provider {
		// Model names are provider specific.
		settings.LLM.AllowedModels = nil
	}
	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}
	if len(settings.LLM.AllowedModels) > 0 && !slices.Contains(settings.LLM.AllowedModels, settings.LLM.Model) {
		settings.LLM.AllowedModels = append(settings.LLM.AllowedModels, settings.LLM.Model)
	}
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetTopK sets the number of chunks retrieved per question.
func (s *SettingsService) SetTopK(k int) error {
	if k < 1 {
		return fmt.Errorf("%w: top_k must be at least 1", domain.ErrInvalidInput)
	}
	return s.configStore.Set(keyTopK, k)
}

// SetChunking sets the chunk window size and overlap.
func (s *SettingsService) SetChunking(size, overlap int) error {
	c := domain.ChunkingSettings{Size: size, Overlap: overlap}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: need 0 <= overlap < size", err)
	}
	if err := s.configStore.Set(keyChunkSize, size); err != nil {
		return fmt.Errorf("save %s: %w", keyChunkSize, err)
	}
	if err := s.configStore.Set(keyChunkOverlap, overlap); err != nil {
		return fmt.Errorf("save %s: %w", keyChunkOverlap, err)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// GetPipelineConfig returns the chunking pipeline for the current settings.
func (s *SettingsService) GetPipelineConfig() domain.PipelineConfig {
	settings, err := s.Get()
	if err != nil {
		return domain.DefaultPipelineConfig()
	}
	return domain.PipelineConfigFor(settings.Chunking)
}

// ValidateEmbeddingConfig pings the saved embedding provider.
func (s *SettingsService) ValidateEmbeddingConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(ctx, &settings.Embedding)
}

// ValidateLLMConfig pings the saved LLM provider.
func (s *SettingsService) ValidateLLMConfig(ctx context.Context) error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(ctx, &settings.LLM)
}

// fromEnv fills an empty API key or Ollama base URL from the environment.
func (s *SettingsService) fromEnv(provider domain.AIProvider, apiKey, baseURL string) (key, url string) {
	if apiKey == "" {
		apiKey = s.envAPIKey(provider)
	}
	if provider.IsLocal() && baseURL == "" {
		baseURL = s.getenv(EnvOllamaHost)
	}
	return apiKey, baseURL
}

func (s *SettingsService) envAPIKey(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return s.getenv(EnvOpenAIAPIKey)
	case domain.AIProviderAnthropic:
		return s.getenv(EnvAnthropicAPIKey)
	default:
		return ""
	}
}

// baseURLFor keeps a local provider's endpoint and clears it for cloud ones.
func baseURLFor(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current == "" {
		return "http://localhost:11434"
	}
	return current
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getStringSlice(key string, defaultVal []string) []string {
	if _, exists := s.configStore.Get(key); !exists {
		return append([]string(nil), defaultVal...)
	}
	return s.configStore.GetStringSlice(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(key string, defaultVal domain.StorageBackend) domain.StorageBackend {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return domain.StorageBackend(val)
}
