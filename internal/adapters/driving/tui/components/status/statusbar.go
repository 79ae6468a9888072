// Package status renders the one-line bar under the chat transcript.
package status

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
)

// State is what the chat screen is currently doing.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateLoading  State = "loading"
	StateError    State = "error"
)

// shortSessionLen is how many characters of a session id the bar shows.
const shortSessionLen = 8

// Bar shows the session, model and state on the left and keybinding
// hints on the right.
type Bar struct {
	styles *styles.Styles
	help   help.Model
	hints  []key.Binding

	state   State
	message string
	session string
	model   string
	width   int
}

// NewBar creates a bar showing the chat hints of km.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	b := &Bar{
		styles: s,
		help:   help.New(),
		hints:  km.ChatHelp(),
		state:  StateReady,
	}
	b.SetWidth(80)
	return b
}

// View renders the bar padded to its width.
func (b *Bar) View() string {
	left := strings.Join(b.left(), " ")
	right := b.help.ShortHelpView(b.hints)
	gap := max(b.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (b *Bar) left() []string {
	var parts []string
	if b.session != "" {
		parts = append(parts, b.styles.Subtitle.Render("session "+shortID(b.session)))
	}
	if b.model != "" {
		parts = append(parts, b.styles.Muted.Render(b.model))
	}
	return append(parts, b.stateLabel())
}

func (b *Bar) stateLabel() string {
	switch b.state {
	case StateThinking:
		return b.styles.Warning.Render("Thinking...")
	case StateLoading:
		return b.styles.Muted.Render("Loading...")
	case StateError:
		if b.message == "" {
			return b.styles.Error.Render("Error")
		}
		return b.styles.Error.Render("Error: " + b.message)
	case StateReady:
	}
	if b.message != "" {
		return b.styles.Success.Render(b.message)
	}
	return b.styles.Muted.Render("Ready")
}

func shortID(id string) string {
	if len(id) > shortSessionLen {
		return id[:shortSessionLen]
	}
	return id
}

// Fail switches to the error state showing err.
func (b *Bar) Fail(err error) {
	b.state = StateError
	b.message = ""
	if err != nil {
		b.message = err.Error()
	}
}

// Clear returns to the ready state, keeping session and model.
func (b *Bar) Clear() {
	b.state = StateReady
	b.message = ""
}

// SetState sets the state.
func (b *Bar) SetState(state State) { b.state = state }

// State returns the state.
func (b *Bar) State() State { return b.state }

// SetMessage sets the text shown with the state.
func (b *Bar) SetMessage(message string) { b.message = message }

// Message returns the text shown with the state.
func (b *Bar) Message() string { return b.message }

// SetSession sets the session id. Only a prefix is rendered.
func (b *Bar) SetSession(id string) { b.session = id }

// Session returns the session id.
func (b *Bar) Session() string { return b.session }

// SetModel sets the model name.
func (b *Bar) SetModel(model string) { b.model = model }

// Model returns the model name.
func (b *Bar) Model() string { return b.model }

// SetHints replaces the keybinding hints.
func (b *Bar) SetHints(bindings []key.Binding) { b.hints = bindings }

// SetWidth sets the bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
	b.help.Width = width / 2
}

// Width returns the bar width.
func (b *Bar) Width() int { return b.width }
