// Package tui is the interactive terminal chat front end. It drives the
// chat and document services through their driving ports.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// ErrNoChatService is returned by New when Options.Chat is nil.
var ErrNoChatService = errors.New("tui: chat service is required")

// Options configures an App.
type Options struct {
	Chat driving.ChatService
	// Documents backs the documents screen. Optional; the screen reports
	// an error when it is missing.
	Documents driving.DocumentService
	// SessionID resumes an existing session. Empty starts a new one.
	SessionID string
	// Model overrides the configured generation model for every turn.
	Model string
}

// App is the root bubbletea model. It owns the chat and documents screens
// and routes messages to whichever is active.
type App struct {
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model

	chat   *chat.View
	docs   *documents.View
	active messages.ViewType
	err    error

	width, height int
	ready         bool
}

// Ensure App implements the interface.
var _ tea.Model = (*App)(nil)

// New builds an App bound to ctx.
func New(ctx context.Context, opts Options) (*App, error) {
	if opts.Chat == nil {
		return nil, ErrNoChatService
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	a := &App{
		ctx:    ctx,
		styles: s,
		keymap: km,
		help:   help.New(),
		chat:   chat.NewView(s, km, opts.Chat, opts.SessionID, opts.Model),
		docs:   documents.NewView(s, km, opts.Documents),
		active: messages.ViewChat,
	}
	a.chat.SetContext(ctx)
	a.docs.SetContext(ctx)
	return a, nil
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("ragchat"),
		a.chat.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case messages.AnswerReceived, messages.HistoryLoaded:
		a.chat, cmd = a.chat.Update(msg)
		a.err = a.chat.Err()
		return a, cmd

	case messages.DocumentsLoaded, messages.DocumentDeleted:
		a.docs, cmd = a.docs.Update(msg)
		a.err = a.docs.Err()
		return a, cmd

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.ErrorOccurred:
		a.err = msg.Err

	case messages.Quit:
		return a, tea.Quit
	}

	// Everything else (cursor blink, errors) goes to the active screen.
	return a, a.forward(msg)
}

func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.active {
	case messages.ViewChat:
		a.chat, cmd = a.chat.Update(msg)
	case messages.ViewDocuments:
		a.docs, cmd = a.docs.Update(msg)
	case messages.ViewHelp:
	}
	return cmd
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keymap.Quit):
		return tea.Quit
	case key.Matches(msg, a.keymap.Help):
		if a.active == messages.ViewHelp {
			return a.switchTo(messages.ViewChat)
		}
		return a.switchTo(messages.ViewHelp)
	}

	switch a.active {
	case messages.ViewChat:
		if key.Matches(msg, a.keymap.Documents) {
			return a.switchTo(messages.ViewDocuments)
		}
	case messages.ViewHelp:
		if key.Matches(msg, a.keymap.Back) {
			return a.switchTo(messages.ViewChat)
		}
		return nil
	case messages.ViewDocuments:
	}
	return a.forward(msg)
}

// switchTo activates view and returns the command that initialises it.
func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	a.active = view
	if view == messages.ViewChat {
		return a.chat.Input().Focus()
	}
	a.chat.Input().Blur()
	if view == messages.ViewDocuments {
		return a.docs.Load()
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	switch a.active {
	case messages.ViewDocuments:
		return a.docs.View()
	case messages.ViewHelp:
		return a.helpView()
	default:
		return a.chat.View()
	}
}

func (a *App) helpView() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	b.WriteString(a.help.FullHelpView(a.keymap.FullHelp()))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Help.Render("[esc] back to chat"))
	return b.String()
}

// Run starts the program and blocks until the user quits or the context
// passed to New is cancelled.
func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx)).Run()
	return err
}

// ChatView returns the conversation screen.
func (a *App) ChatView() *chat.View { return a.chat }

// DocumentsView returns the documents screen.
func (a *App) DocumentsView() *documents.View { return a.docs }

// SessionID returns the active chat session, empty until the first answer
// of a new session arrives.
func (a *App) SessionID() string { return a.chat.SessionID() }

// CurrentView returns the active screen.
func (a *App) CurrentView() messages.ViewType { return a.active }

// Err returns the last error reported by a screen.
func (a *App) Err() error { return a.err }

// Ready reports whether the first window size has arrived.
func (a *App) Ready() bool { return a.ready }

// SetDimensions resizes every screen.
func (a *App) SetDimensions(width, height int) {
	a.width, a.height = width, height
	a.ready = true
	a.help.Width = width
	a.chat.SetDimensions(width, height)
	a.docs.SetDimensions(width, height)
}
