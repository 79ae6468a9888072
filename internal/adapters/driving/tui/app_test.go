package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

func testOptions() Options {
	return Options{
		Chat: &mockChat{},
		Documents: &mockDocuments{
			list: func(context.Context) ([]domain.Document, error) {
				return []domain.Document{{ID: "doc-1", Filename: "report.pdf", Format: domain.FormatPDF}}, nil
			},
		},
	}
}

func newTestApp(t *testing.T, opts Options) *App {
	t.Helper()
	app, err := New(context.Background(), opts)
	require.NoError(t, err)
	app.SetDimensions(120, 40)
	return app
}

// run feeds msg to the app and then the messages its commands produce,
// skipping batches and terminal-control commands.
func run(app *App, msg tea.Msg) {
	_, cmd := app.Update(msg)
	for cmd != nil {
		next := cmd()
		switch next.(type) {
		case messages.AnswerReceived, messages.HistoryLoaded,
			messages.DocumentsLoaded, messages.DocumentDeleted, messages.ViewChanged:
			_, cmd = app.Update(next)
		default:
			return
		}
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{"chat and documents", testOptions(), nil},
		{"documents optional", Options{Chat: &mockChat{}}, nil},
		{"missing chat", Options{Documents: &mockDocuments{}}, ErrNoChatService},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, err := New(context.Background(), tt.opts)
			if tt.wantErr != nil {
				assert.Nil(t, app)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, messages.ViewChat, app.CurrentView())
			assert.False(t, app.Ready())
			assert.Equal(t, "Initialising...", app.View())
			assert.NotNil(t, app.Init())
		})
	}
}

func TestNew_BindsContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")

	var seen context.Context
	opts := testOptions()
	opts.Chat = &mockChat{ask: func(ctx context.Context, _ domain.ChatRequest) (*domain.ChatResponse, error) {
		seen = ctx
		return &domain.ChatResponse{Answer: "ok", SessionID: "s"}, nil
	}}
	app, err := New(ctx, opts)
	require.NoError(t, err)
	app.SetDimensions(120, 40)

	run(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	run(app, tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, seen)
	assert.Equal(t, "v", seen.Value(key{}))
}

func TestNew_ResumesSession(t *testing.T) {
	var requested string
	opts := testOptions()
	opts.SessionID, opts.Model = "s-42", "gpt-4o"
	opts.Chat = &mockChat{history: func(_ context.Context, id string) ([]domain.Turn, error) {
		requested = id
		return []domain.Turn{{Question: "before", Answer: "earlier"}}, nil
	}}
	app := newTestApp(t, opts)

	assert.Equal(t, "s-42", app.SessionID())
	assert.Equal(t, "gpt-4o", app.ChatView().Model())
	assert.Equal(t, "s-42", app.ChatView().Bar().Session())

	turns, err := opts.Chat.History(context.Background(), "s-42")
	require.NoError(t, err)
	run(app, messages.HistoryLoaded{SessionID: "s-42", Turns: turns})

	assert.Equal(t, "s-42", requested)
	assert.Contains(t, app.View(), "You: before")
}

func TestApp_Update_WindowSize(t *testing.T) {
	app, err := New(context.Background(), testOptions())
	require.NoError(t, err)

	_, cmd := app.Update(tea.WindowSizeMsg{Width: 100, Height: 50})

	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
	assert.Equal(t, 100, app.ChatView().Input().Width())
}

func TestApp_Quit(t *testing.T) {
	app := newTestApp(t, testOptions())

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	_, cmd = app.Update(messages.Quit{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_AskRoundTrip(t *testing.T) {
	app := newTestApp(t, testOptions())

	run(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hello?")})
	run(app, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "session-1", app.SessionID())
	assert.NoError(t, app.Err())
	view := app.View()
	assert.Contains(t, view, "You: hello?")
	assert.Contains(t, view, "Assistant: answer")
}

func TestApp_AskError(t *testing.T) {
	opts := testOptions()
	opts.Chat = &mockChat{ask: func(context.Context, domain.ChatRequest) (*domain.ChatResponse, error) {
		return nil, domain.ErrRateLimited
	}}
	app := newTestApp(t, opts)

	run(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	run(app, tea.KeyMsg{Type: tea.KeyEnter})

	assert.ErrorIs(t, app.Err(), domain.ErrRateLimited)
}

func TestApp_DocumentsNavigation(t *testing.T) {
	app := newTestApp(t, testOptions())

	run(app, tea.KeyMsg{Type: tea.KeyCtrlD})

	assert.Equal(t, messages.ViewDocuments, app.CurrentView())
	assert.False(t, app.ChatView().Input().Focused())
	require.Len(t, app.DocumentsView().Documents(), 1)
	assert.Contains(t, app.View(), "report.pdf")

	run(app, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, messages.ViewChat, app.CurrentView())
	assert.True(t, app.ChatView().Input().Focused())
}

func TestApp_DocumentsWithoutService(t *testing.T) {
	app := newTestApp(t, Options{Chat: &mockChat{}})

	run(app, tea.KeyMsg{Type: tea.KeyCtrlD})

	assert.Equal(t, messages.ViewDocuments, app.CurrentView())
	assert.Error(t, app.Err())
}

func TestApp_DocumentsDelete(t *testing.T) {
	var deleted string
	opts := testOptions()
	opts.Documents.(*mockDocuments).delete = func(_ context.Context, id string) (*driving.DeleteResult, error) {
		deleted = id
		return &driving.DeleteResult{DocumentID: id, ChunksRemoved: 2}, nil
	}
	app := newTestApp(t, opts)

	run(app, tea.KeyMsg{Type: tea.KeyCtrlD})
	run(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	run(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})

	assert.Equal(t, "doc-1", deleted)
}

func TestApp_Help(t *testing.T) {
	app := newTestApp(t, testOptions())

	run(app, tea.KeyMsg{Type: tea.KeyF1})
	assert.Equal(t, messages.ViewHelp, app.CurrentView())
	view := app.View()
	assert.Contains(t, view, "Help")
	assert.Contains(t, view, "new session")

	run(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewChat, app.CurrentView())

	run(app, tea.KeyMsg{Type: tea.KeyF1})
	run(app, tea.KeyMsg{Type: tea.KeyF1})
	assert.Equal(t, messages.ViewChat, app.CurrentView())
}

func TestApp_TypingInChatDoesNotSwitchViews(t *testing.T) {
	app := newTestApp(t, testOptions())

	run(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("dry")})

	assert.Equal(t, messages.ViewChat, app.CurrentView())
	assert.Equal(t, "dry", app.ChatView().Input().Value())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t, testOptions())

	app.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, app.Err(), "boom")
	assert.EqualError(t, app.ChatView().Err(), "boom")
}

func TestApp_ViewChanged(t *testing.T) {
	app := newTestApp(t, testOptions())

	for _, view := range []messages.ViewType{messages.ViewDocuments, messages.ViewHelp, messages.ViewChat} {
		t.Run(view.String(), func(t *testing.T) {
			app.Update(messages.ViewChanged{View: view})
			assert.Equal(t, view, app.CurrentView())
			assert.NotEmpty(t, app.View())
		})
	}
}
