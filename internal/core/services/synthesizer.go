package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// answerTemperature is the sampling temperature for answers.
const answerTemperature = 0.7

var errEmptyAnswer = errors.New("model returned an empty answer")

// AnswerSynthesizer produces an answer grounded on retrieved chunks.
type AnswerSynthesizer struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewAnswerSynthesizer creates a synthesizer.
func NewAnswerSynthesizer(llm driven.LLMService, prompts driven.PromptStore) *AnswerSynthesizer {
	return &AnswerSynthesizer{llm: llm, prompts: prompts}
}

// Synthesize answers question from chunks, in the order given, and the
// session history.
func (s *AnswerSynthesizer) Synthesize(
	ctx context.Context,
	chunks []domain.RetrievedChunk,
	history []domain.Turn,
	question, model string,
) (string, error) {
	if s.llm == nil {
		return "", domain.ErrGenerationUnavailable
	}

	instruction, err := s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return "", fmt.Errorf("loading answer prompt: %w", err)
	}

	messages := make([]driven.ChatMessage, 0, 2*len(history)+2)
	messages = append(messages, driven.ChatMessage{
		Role:    driven.RoleSystem,
		Content: systemPrompt(instruction, chunks),
	})
	messages = appendHistory(messages, history)
	messages = append(messages, driven.ChatMessage{Role: driven.RoleUser, Content: question})

	answer, err := s.llm.Chat(ctx, messages, driven.ChatOptions{
		Model:       model,
		Temperature: answerTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, errEmptyAnswer)
	}
	return answer, nil
}

// systemPrompt renders the instruction, a "Context:" line and the chunk
// texts separated by blank lines.
func systemPrompt(instruction string, chunks []domain.RetrievedChunk) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(instruction))
	b.WriteString("\n\nContext:\n")
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(c.Chunk.Content)
	}
	return b.String()
}
