package driven

import "context"

// LLMService generates chat completions. The core uses it twice per
// question: to rewrite the question and to answer it.
type LLMService interface {
	// Chat returns the model's reply to messages. System messages carry
	// instructions; adapters place them where their API expects.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName is the model used when ChatOptions.Model is empty.
	ModelName() string

	Ping(ctx context.Context) error
	Close() error
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one message of a chat completion request.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatOptions are per-call overrides. Temperature is always honoured,
// so its zero value means deterministic output.
type ChatOptions struct {
	Model       string
	MaxTokens   int // 0 leaves the provider default
	Temperature float64
}
