package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

var twoTurns = []domain.Turn{
	{Question: "What is ragchat?", Answer: "A document chat tool."},
	{Question: "Who wrote it?", Answer: "The team."},
}

func TestQueryRewriter_EmptyHistoryReturnsQuestion(t *testing.T) {
	llm := &mockLLMService{replies: []string{"should not be used"}}
	rewriter := NewQueryRewriter(llm, newMockPromptStore())

	got, err := rewriter.Rewrite(context.Background(), nil, "What does it do?", "gpt-4o-mini")
	require.NoError(t, err)
	assert.Equal(t, "What does it do?", got)
	assert.Zero(t, llm.callCount())

	// No model needed either.
	got, err = NewQueryRewriter(nil, nil).Rewrite(context.Background(), []domain.Turn{}, "q", "")
	require.NoError(t, err)
	assert.Equal(t, "q", got)
}

func TestQueryRewriter_BuildsMessages(t *testing.T) {
	llm := &mockLLMService{replies: []string{"  What license does ragchat use?  "}}
	rewriter := NewQueryRewriter(llm, newMockPromptStore())

	got, err := rewriter.Rewrite(context.Background(), twoTurns, "What license does it use?", "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "What license does ragchat use?", got)

	require.Equal(t, 1, llm.callCount())
	call := llm.calls[0]
	assert.Equal(t, []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "REWRITE"},
		{Role: driven.RoleUser, Content: "What is ragchat?"},
		{Role: driven.RoleAssistant, Content: "A document chat tool."},
		{Role: driven.RoleUser, Content: "Who wrote it?"},
		{Role: driven.RoleAssistant, Content: "The team."},
		{Role: driven.RoleUser, Content: "What license does it use?"},
	}, call.messages)
	assert.Equal(t, "gpt-4o", call.opts.Model)
	assert.Equal(t, float64(0), call.opts.Temperature)
	assert.Equal(t, rewriteMaxTokens, call.opts.MaxTokens)
}

func TestQueryRewriter_BlankOutputFallsBack(t *testing.T) {
	llm := &mockLLMService{replies: []string{" \n "}}
	rewriter := NewQueryRewriter(llm, newMockPromptStore())

	got, err := rewriter.Rewrite(context.Background(), twoTurns, "original?", "m")
	require.NoError(t, err)
	assert.Equal(t, "original?", got)
}

func TestQueryRewriter_Errors(t *testing.T) {
	tests := []struct {
		name     string
		rewriter *QueryRewriter
		expected error
	}{
		{"no model", NewQueryRewriter(nil, newMockPromptStore()), domain.ErrGenerationUnavailable},
		{"model fails", NewQueryRewriter(&mockLLMService{err: errBoom}, newMockPromptStore()), domain.ErrGenerationUnavailable},
		{"prompt fails", NewQueryRewriter(&mockLLMService{}, &mockPromptStore{err: errBoom}), errBoom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.rewriter.Rewrite(context.Background(), twoTurns, "q", "m")
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestAnswerSynthesizer_BuildsMessages(t *testing.T) {
	llm := &mockLLMService{replies: []string{"It is MIT licensed."}}
	synth := NewAnswerSynthesizer(llm, newMockPromptStore())
	chunks := []domain.RetrievedChunk{
		{Chunk: domain.Chunk{Content: "best chunk"}, Score: 0.9},
		{Chunk: domain.Chunk{Content: "second chunk"}, Score: 0.5},
	}

	answer, err := synth.Synthesize(context.Background(), chunks, twoTurns[:1], "What license does ragchat use?", "gpt-4o-mini")
	require.NoError(t, err)
	assert.Equal(t, "It is MIT licensed.", answer)

	require.Equal(t, 1, llm.callCount())
	call := llm.calls[0]
	assert.Equal(t, []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "ANSWER\n\nContext:\nbest chunk\n\nsecond chunk"},
		{Role: driven.RoleUser, Content: "What is ragchat?"},
		{Role: driven.RoleAssistant, Content: "A document chat tool."},
		{Role: driven.RoleUser, Content: "What license does ragchat use?"},
	}, call.messages)
	assert.Equal(t, "gpt-4o-mini", call.opts.Model)
	assert.InDelta(t, answerTemperature, call.opts.Temperature, 1e-9)
}

func TestAnswerSynthesizer_NoChunks(t *testing.T) {
	assert.Equal(t, "ANSWER\n\nContext:\n", systemPrompt("ANSWER\n", nil))
}

func TestAnswerSynthesizer_Errors(t *testing.T) {
	tests := []struct {
		name     string
		synth    *AnswerSynthesizer
		expected error
	}{
		{"no model", NewAnswerSynthesizer(nil, newMockPromptStore()), domain.ErrGenerationUnavailable},
		{"model fails", NewAnswerSynthesizer(&mockLLMService{err: errBoom}, newMockPromptStore()), errBoom},
		{"empty answer", NewAnswerSynthesizer(&mockLLMService{replies: []string{""}}, newMockPromptStore()), domain.ErrGenerationUnavailable},
		{"prompt fails", NewAnswerSynthesizer(&mockLLMService{}, &mockPromptStore{err: errBoom}), errBoom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.synth.Synthesize(context.Background(), nil, nil, "q", "m")
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}
