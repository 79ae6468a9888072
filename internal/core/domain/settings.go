package domain

import "slices"

const (
	DefaultTopK         = 2
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
	DefaultServerAddr   = "127.0.0.1:8000"
)

// AppSettings is everything persisted in config.toml.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Retrieval RetrievalSettings
	Chunking  ChunkingSettings
	Storage   StorageSettings
	Server    ServerSettings
}

// DefaultAppSettings targets OpenAI for both embeddings and generation.
// The API key still has to come from config or the environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultEmbeddingModels()[AIProviderOpenAI],
		},
		LLM: LLMSettings{
			Provider:      AIProviderOpenAI,
			Model:         DefaultLLMModels()[AIProviderOpenAI],
			AllowedModels: []string{"gpt-4o", "gpt-4o-mini"},
		},
		Retrieval: RetrievalSettings{TopK: DefaultTopK},
		Chunking:  ChunkingSettings{Size: DefaultChunkSize, Overlap: DefaultChunkOverlap},
		Storage: StorageSettings{
			Catalog: StorageSQLite,
			History: StorageSQLite,
			Index:   StorageSQLite,
		},
		Server: ServerSettings{Addr: DefaultServerAddr},
	}
}

// EmbeddingSettings configures the embedding provider. BaseURL applies to
// Ollama or an OpenAI-compatible gateway.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
}

// IsConfigured reports whether the provider is valid and has the API key it needs.
func (e EmbeddingSettings) IsConfigured() bool {
	return usable(e.Provider, e.APIKey)
}

// LLMSettings configures the generation provider.
type LLMSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string

	// AllowedModels restricts per-request overrides. Empty allows any.
	AllowedModels []string
}

// IsConfigured reports whether the provider is valid and has the API key it needs.
func (l LLMSettings) IsConfigured() bool {
	return usable(l.Provider, l.APIKey)
}

func usable(p AIProvider, apiKey string) bool {
	return p.IsValid() && (apiKey != "" || !p.RequiresAPIKey())
}

// ResolveModel picks the model for one request. An empty override means
// the configured model, or the provider default when none is set. An
// override outside AllowedModels returns ErrInvalidInput.
func (l LLMSettings) ResolveModel(override string) (string, error) {
	switch {
	case override == "" && l.Model != "":
		return l.Model, nil
	case override == "":
		return DefaultLLMModels()[l.Provider], nil
	case len(l.AllowedModels) == 0, slices.Contains(l.AllowedModels, override):
		return override, nil
	}
	return "", ErrInvalidInput
}

// RetrievalSettings configures chunk retrieval.
type RetrievalSettings struct {
	// TopK is how many chunks reach answer synthesis.
	TopK int
}

// ChunkingSettings is the chunk window, measured in characters.
type ChunkingSettings struct {
	Size    int
	Overlap int
}

// Validate requires 0 <= Overlap < Size.
func (c ChunkingSettings) Validate() error {
	if c.Size <= 0 || c.Overlap < 0 || c.Overlap >= c.Size {
		return ErrInvalidInput
	}
	return nil
}

// ServerSettings configures the HTTP API listener.
type ServerSettings struct {
	Addr string
}
