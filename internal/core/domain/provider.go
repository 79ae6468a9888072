package domain

// AIProvider identifies a hosted or local model provider.
type AIProvider string

const (
	AIProviderOllama    AIProvider = "ollama"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
)

type providerInfo struct {
	description    string
	local          bool
	embeddingModel string // empty when the provider has no embeddings API
	llmModel       string
}

// providers is listed in menu order.
var providers = []struct {
	id AIProvider
	providerInfo
}{
	{AIProviderOllama, providerInfo{"Ollama (local)", true, "nomic-embed-text", "llama3.2"}},
	{AIProviderOpenAI, providerInfo{"OpenAI (cloud)", false, "text-embedding-3-small", "gpt-4o-mini"}},
	{AIProviderAnthropic, providerInfo{"Anthropic (cloud)", false, "", "claude-3-5-sonnet-latest"}},
}

func (p AIProvider) info() (providerInfo, bool) {
	for _, e := range providers {
		if e.id == p {
			return e.providerInfo, true
		}
	}
	return providerInfo{}, false
}

// IsValid reports whether p is a known provider.
func (p AIProvider) IsValid() bool {
	_, ok := p.info()
	return ok
}

// RequiresAPIKey is true for every cloud provider.
func (p AIProvider) RequiresAPIKey() bool {
	info, ok := p.info()
	return ok && !info.local
}

// IsLocal reports whether p runs on this machine.
func (p AIProvider) IsLocal() bool {
	info, _ := p.info()
	return info.local
}

// String returns the provider name.
func (p AIProvider) String() string {
	return string(p)
}

// Description is the menu label, or "Unknown".
func (p AIProvider) Description() string {
	if info, ok := p.info(); ok {
		return info.description
	}
	return "Unknown"
}

// AllEmbeddingProviders returns the providers with an embeddings API.
func AllEmbeddingProviders() []AIProvider {
	var out []AIProvider
	for _, e := range providers {
		if e.embeddingModel != "" {
			out = append(out, e.id)
		}
	}
	return out
}

// AllLLMProviders returns every known provider.
func AllLLMProviders() []AIProvider {
	out := make([]AIProvider, len(providers))
	for i, e := range providers {
		out[i] = e.id
	}
	return out
}

// DefaultEmbeddingModels returns the embedding model used per provider when none is set.
func DefaultEmbeddingModels() map[AIProvider]string {
	out := make(map[AIProvider]string)
	for _, e := range providers {
		if e.embeddingModel != "" {
			out[e.id] = e.embeddingModel
		}
	}
	return out
}

// DefaultLLMModels returns the chat model used per provider when none is set.
func DefaultLLMModels() map[AIProvider]string {
	out := make(map[AIProvider]string, len(providers))
	for _, e := range providers {
		out[e.id] = e.llmModel
	}
	return out
}

// EmbeddingDimensions maps well-known embedding models to their vector
// length. Models not listed report their length after the first call.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
