package chat

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// MockChatService implements driving.ChatService for testing.
type MockChatService struct {
	AskFunc     func(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)
	HistoryFunc func(ctx context.Context, sessionID string) ([]domain.Turn, error)
}

func (m *MockChatService) Ask(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	if m.AskFunc != nil {
		return m.AskFunc(ctx, req)
	}
	return &domain.ChatResponse{Answer: "ok", SessionID: "new-session", Model: "gpt-4o-mini"}, nil
}

func (m *MockChatService) History(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, sessionID)
	}
	return nil, nil
}

func typeText(v *View, text string) {
	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, &MockChatService{}, "", "")

	require.NotNil(t, v)
	assert.Empty(t, v.SessionID())
	assert.NotNil(t, v.Transcript())
	assert.True(t, v.Input().Focused())
	assert.Equal(t, status.StateReady, v.Bar().State())
}

func TestView_Init_NewSession(t *testing.T) {
	v := NewView(nil, nil, &MockChatService{}, "", "")

	assert.NotNil(t, v.Init())
	assert.Equal(t, status.StateReady, v.Bar().State())
}

func TestView_Init_ResumesSession(t *testing.T) {
	var requested string
	svc := &MockChatService{
		HistoryFunc: func(_ context.Context, sessionID string) ([]domain.Turn, error) {
			requested = sessionID
			return []domain.Turn{{Question: "earlier", Answer: "before"}}, nil
		},
	}
	v := NewView(nil, nil, svc, "s-1", "")

	require.NotNil(t, v.Init())
	assert.Equal(t, status.StateLoading, v.Bar().State())

	msg := v.loadHistory("s-1")()
	v.Update(msg)

	assert.Equal(t, "s-1", requested)
	require.Len(t, v.Transcript().Entries(), 1)
	assert.Equal(t, "earlier", v.Transcript().Entries()[0].Question)
	assert.Equal(t, status.StateReady, v.Bar().State())
}

func TestView_HistoryLoaded_Error(t *testing.T) {
	v := NewView(nil, nil, &MockChatService{}, "s-1", "")

	v.Update(messages.HistoryLoaded{SessionID: "s-1", Err: errors.New("store down")})

	assert.EqualError(t, v.Err(), "store down")
	assert.Equal(t, status.StateError, v.Bar().State())
}

func TestView_HistoryLoaded_StaleSessionIgnored(t *testing.T) {
	v := NewView(nil, nil, &MockChatService{}, "s-2", "")

	v.Update(messages.HistoryLoaded{SessionID: "s-1", Turns: []domain.Turn{{Question: "q"}}})

	assert.Empty(t, v.Transcript().Entries())
}

func TestView_Send(t *testing.T) {
	var got domain.ChatRequest
	svc := &MockChatService{
		AskFunc: func(_ context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
			got = req
			return &domain.ChatResponse{Answer: "It jumps.", SessionID: "s-9", Model: "gpt-4o"}, nil
		},
	}
	v := NewView(nil, nil, svc, "", "gpt-4o")
	v.SetDimensions(120, 30)

	typeText(v, "  What does the fox do?  ")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	assert.Equal(t, "", v.Input().Value())
	assert.True(t, v.Transcript().Waiting())
	assert.Equal(t, status.StateThinking, v.Bar().State())

	v.Update(cmd())

	assert.Equal(t, "What does the fox do?", got.Question)
	assert.Equal(t, "gpt-4o", got.Model)
	assert.Empty(t, got.SessionID)

	assert.Equal(t, "s-9", v.SessionID())
	assert.Equal(t, "s-9", v.Bar().Session())
	assert.Equal(t, status.StateReady, v.Bar().State())
	assert.Contains(t, v.View(), "Assistant: It jumps.")
	assert.NoError(t, v.Err())
}

func TestView_Send_ReusesSession(t *testing.T) {
	var sessions []string
	svc := &MockChatService{
		AskFunc: func(_ context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
			sessions = append(sessions, req.SessionID)
			return &domain.ChatResponse{Answer: "a", SessionID: "s-1"}, nil
		},
	}
	v := NewView(nil, nil, svc, "", "")

	for _, q := range []string{"one", "two"} {
		typeText(v, q)
		_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, cmd)
		v.Update(cmd())
	}

	assert.Equal(t, []string{"", "s-1"}, sessions)
}

func TestView_Send_Ignored(t *testing.T) {
	t.Run("blank question", func(t *testing.T) {
		v := NewView(nil, nil, &MockChatService{}, "", "")
		typeText(v, "   ")

		_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

		assert.Nil(t, cmd)
		assert.Empty(t, v.Transcript().Entries())
	})

	t.Run("answer pending", func(t *testing.T) {
		v := NewView(nil, nil, &MockChatService{}, "", "")
		typeText(v, "first")
		_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, cmd)

		typeText(v, "second")
		_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEnter})

		assert.Nil(t, cmd)
		assert.Len(t, v.Transcript().Entries(), 1)
		assert.Equal(t, "second", v.Input().Value())
	})
}

func TestView_Send_Error(t *testing.T) {
	svc := &MockChatService{
		AskFunc: func(context.Context, domain.ChatRequest) (*domain.ChatResponse, error) {
			return nil, domain.ErrGenerationUnavailable
		},
	}
	v := NewView(nil, nil, svc, "", "")
	v.SetDimensions(120, 30)
	typeText(v, "q")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	v.Update(cmd())

	assert.ErrorIs(t, v.Err(), domain.ErrGenerationUnavailable)
	assert.Equal(t, status.StateError, v.Bar().State())
	assert.False(t, v.Transcript().Waiting())
	assert.Empty(t, v.SessionID())
}

func TestView_NoChatService(t *testing.T) {
	v := NewView(nil, nil, nil, "", "")
	typeText(v, "q")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	msg := cmd()

	answer, ok := msg.(messages.AnswerReceived)
	require.True(t, ok)
	assert.ErrorIs(t, answer.Err, errNoChatService)
}

func TestView_NewSession(t *testing.T) {
	v := NewView(nil, nil, &MockChatService{}, "s-1", "")
	v.Transcript().Load([]domain.Turn{{Question: "q", Answer: "a"}})

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlN})

	assert.Empty(t, v.SessionID())
	assert.Empty(t, v.Bar().Session())
	assert.Empty(t, v.Transcript().Entries())
}

func TestView_NewSession_BlockedWhileWaiting(t *testing.T) {
	v := NewView(nil, nil, &MockChatService{}, "s-1", "")
	typeText(v, "q")
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlN})

	assert.Equal(t, "s-1", v.SessionID())
	assert.True(t, v.Transcript().Waiting())
}

func TestView_ToggleSources(t *testing.T) {
	svc := &MockChatService{
		AskFunc: func(context.Context, domain.ChatRequest) (*domain.ChatResponse, error) {
			return &domain.ChatResponse{
				Answer:    "a",
				SessionID: "s",
				Sources: []domain.RetrievedChunk{{
					Chunk: domain.Chunk{DocumentID: "doc-1", Content: "source text"},
					Score: 0.5,
				}},
			}, nil
		},
	}
	v := NewView(nil, nil, svc, "", "")
	v.SetDimensions(120, 30)
	typeText(v, "q")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.Update(cmd())
	assert.NotContains(t, v.View(), "source text")

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})

	assert.Contains(t, v.View(), "source text")
}

func TestView_ErrorOccurred(t *testing.T) {
	v := NewView(nil, nil, &MockChatService{}, "", "")

	v.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, v.Err(), "boom")
	assert.Equal(t, "boom", v.Bar().Message())
}

func TestView_SetDimensions(t *testing.T) {
	v := NewView(nil, nil, &MockChatService{}, "", "")

	v.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	assert.Equal(t, 100, v.Input().Width())
	assert.Equal(t, 100, v.Bar().Width())
}

func TestView_View(t *testing.T) {
	v := NewView(nil, nil, &MockChatService{}, "", "")
	v.SetDimensions(120, 30)

	view := v.View()

	assert.Contains(t, view, "ragchat")
	assert.Contains(t, view, "You:")
	assert.Contains(t, view, "Ready")
}
