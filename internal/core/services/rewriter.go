package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// rewriteMaxTokens bounds the standalone question.
const rewriteMaxTokens = 256

// QueryRewriter turns a follow-up question into one that can be
// understood without the conversation. It never answers the question:
// the instruction tells the model to reformulate only, and the result
// is used for retrieval, not shown as an answer.
type QueryRewriter struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewQueryRewriter creates a rewriter.
func NewQueryRewriter(llm driven.LLMService, prompts driven.PromptStore) *QueryRewriter {
	return &QueryRewriter{llm: llm, prompts: prompts}
}

// Rewrite returns a standalone version of question. With no history the
// question is returned unchanged and the model is not called. Blank model
// output falls back to the original question.
func (r *QueryRewriter) Rewrite(ctx context.Context, history []domain.Turn, question, model string) (string, error) {
	if len(history) == 0 {
		return question, nil
	}
	if r.llm == nil {
		return "", domain.ErrGenerationUnavailable
	}

	instruction, err := r.prompts.Load(driven.PromptQueryRewrite)
	if err != nil {
		return "", fmt.Errorf("loading rewrite prompt: %w", err)
	}

	messages := make([]driven.ChatMessage, 0, 2*len(history)+2)
	messages = append(messages, driven.ChatMessage{Role: driven.RoleSystem, Content: instruction})
	messages = appendHistory(messages, history)
	messages = append(messages, driven.ChatMessage{Role: driven.RoleUser, Content: question})

	out, err := r.llm.Chat(ctx, messages, driven.ChatOptions{
		Model:       model,
		MaxTokens:   rewriteMaxTokens,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("%w: rewriting question: %w", domain.ErrGenerationUnavailable, err)
	}

	standalone := strings.TrimSpace(out)
	if standalone == "" {
		logger.Debug("Rewrite returned nothing, using original question")
		return question, nil
	}
	logger.Debug("Rewrote %q -> %q", question, standalone)
	return standalone, nil
}

// appendHistory adds each turn as a user message followed by the
// assistant's answer.
func appendHistory(messages []driven.ChatMessage, history []domain.Turn) []driven.ChatMessage {
	for _, turn := range history {
		messages = append(messages,
			driven.ChatMessage{Role: driven.RoleUser, Content: turn.Question},
			driven.ChatMessage{Role: driven.RoleAssistant, Content: turn.Answer},
		)
	}
	return messages
}
