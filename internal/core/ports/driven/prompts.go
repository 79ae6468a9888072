package driven

// Prompt names known to every PromptStore. Neither prompt has
// placeholders.
const (
	// PromptQueryRewrite asks for a standalone version of a follow-up.
	PromptQueryRewrite = "query_rewrite"

	// PromptAnswerSystem is the answering instruction; retrieved context
	// is appended after it.
	PromptAnswerSystem = "answer_system"
)

// PromptStore resolves prompt names to template text.
type PromptStore interface {
	Load(name string) (string, error)

	// Reload forgets cached prompts so the next Load reads them afresh.
	Reload()
}
