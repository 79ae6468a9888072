// Package chat provides the conversation view for the TUI.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// errNoChatService is reported when the view has nothing to ask.
var errNoChatService = errors.New("chat service not available")

// View is the chat view: a transcript above an input line and status bar.
type View struct {
	ctx        context.Context
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	chat       driving.ChatService
	input      *input.ChatInput
	transcript *transcript.Transcript
	bar        *status.Bar

	sessionID string
	model     string
	err       error

	width  int
	height int
	ready  bool
}

// NewView creates a chat view. An empty sessionID starts a new session on
// the first question; model may be empty to use the configured default.
func NewView(s *styles.Styles, km *keymap.KeyMap, chat driving.ChatService, sessionID, model string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	bar := status.NewBar(s, km)
	bar.SetSession(sessionID)
	bar.SetModel(model)

	return &View{
		ctx:        context.Background(),
		styles:     s,
		keymap:     km,
		chat:       chat,
		input:      input.NewChatInput(s),
		transcript: transcript.New(s),
		bar:        bar,
		sessionID:  sessionID,
		model:      model,
	}
}

// SetContext sets the context used for service calls.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// Init starts the cursor blinking and loads history for a resumed session.
func (v *View) Init() tea.Cmd {
	if v.sessionID == "" {
		return v.input.Init()
	}
	v.bar.SetState(status.StateLoading)
	return tea.Batch(v.input.Init(), v.loadHistory(v.sessionID))
}

func (v *View) loadHistory(sessionID string) tea.Cmd {
	ctx, svc := v.ctx, v.chat
	return func() tea.Msg {
		if svc == nil {
			return messages.HistoryLoaded{SessionID: sessionID, Err: errNoChatService}
		}
		turns, err := svc.History(ctx, sessionID)
		return messages.HistoryLoaded{SessionID: sessionID, Turns: turns, Err: err}
	}
}

func (v *View) ask(question string) tea.Cmd {
	ctx, svc := v.ctx, v.chat
	req := domain.ChatRequest{SessionID: v.sessionID, Question: question, Model: v.model}
	return func() tea.Msg {
		if svc == nil {
			return messages.AnswerReceived{Question: question, Err: errNoChatService}
		}
		resp, err := svc.Ask(ctx, req)
		return messages.AnswerReceived{Question: question, Response: resp, Err: err}
	}
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)

	case messages.AnswerReceived:
		if msg.Err != nil {
			v.err = msg.Err
			v.transcript.Fail(msg.Err)
			v.bar.Fail(msg.Err)
			return v, nil
		}
		v.err = nil
		v.transcript.Answer(msg.Response)
		if msg.Response != nil {
			v.sessionID = msg.Response.SessionID
			v.bar.SetSession(msg.Response.SessionID)
			v.bar.SetModel(msg.Response.Model)
		}
		v.bar.Clear()
		return v, nil

	case messages.HistoryLoaded:
		if msg.SessionID != v.sessionID {
			return v, nil
		}
		if msg.Err != nil {
			v.err = msg.Err
			v.bar.Fail(msg.Err)
			return v, nil
		}
		v.transcript.Load(msg.Turns)
		v.bar.Clear()
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.bar.Fail(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Send):
		question, ok := v.input.Question()
		if !ok || v.transcript.Waiting() {
			return v, nil
		}
		v.input.Reset()
		v.transcript.Ask(question)
		v.bar.SetState(status.StateThinking)
		v.bar.SetMessage("")
		return v, v.ask(question)

	case key.Matches(msg, v.keymap.NewSession):
		if v.transcript.Waiting() {
			return v, nil
		}
		v.NewSession()
		return v, nil

	case key.Matches(msg, v.keymap.ToggleSources):
		v.transcript.ToggleSources()
		return v, nil

	case msg.Type == tea.KeyPgUp, msg.Type == tea.KeyPgDown:
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// NewSession clears the conversation; the next question opens a new session.
func (v *View) NewSession() {
	v.sessionID = ""
	v.err = nil
	v.transcript.Reset()
	v.input.Reset()
	v.bar.SetSession("")
	v.bar.Clear()
}

// View renders the chat view.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("ragchat"))
	b.WriteString("\n\n")
	b.WriteString(v.transcript.View())
	b.WriteString("\n")
	b.WriteString(v.input.View())
	b.WriteString("\n")
	b.WriteString(v.bar.View())
	return b.String()
}

// SetDimensions sizes the transcript to the space left by the other rows.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.SetWidth(width)
	v.bar.SetWidth(width)
	// Title, blank line, bordered input (3 rows) and status bar.
	v.transcript.SetSize(width, height-6)
}

// SessionID returns the active session, empty before the first answer.
func (v *View) SessionID() string {
	return v.sessionID
}

// Model returns the requested model override.
func (v *View) Model() string {
	return v.model
}

// Transcript returns the conversation component.
func (v *View) Transcript() *transcript.Transcript {
	return v.transcript
}

// Input returns the question input.
func (v *View) Input() *input.ChatInput {
	return v.input
}

// Bar returns the status bar.
func (v *View) Bar() *status.Bar {
	return v.bar
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
