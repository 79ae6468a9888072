// Package input holds the single-line question field of the chat screen.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
)

// MaxQuestionLength caps how many characters a question may hold.
const MaxQuestionLength = 2000

const (
	// chrome is the width taken by the "You: " label, border and padding.
	chrome        = 11
	minFieldWidth = 20
)

// ChatInput is a focused textinput with a "You:" label.
type ChatInput struct {
	field  textinput.Model
	styles *styles.Styles
	width  int
}

// NewChatInput creates a focused input.
func NewChatInput(s *styles.Styles) *ChatInput {
	if s == nil {
		s = styles.DefaultStyles()
	}
	field := textinput.New()
	field.Placeholder = "Ask a question about your documents..."
	field.CharLimit = MaxQuestionLength
	field.Focus()

	c := &ChatInput{field: field, styles: s}
	c.SetWidth(61)
	return c
}

// Init starts the cursor blinking.
func (c *ChatInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update forwards msg to the text field.
func (c *ChatInput) Update(msg tea.Msg) (*ChatInput, tea.Cmd) {
	var cmd tea.Cmd
	c.field, cmd = c.field.Update(msg)
	return c, cmd
}

// View renders the label and field side by side.
func (c *ChatInput) View() string {
	//nolint:misspell // lipgloss spells it Center
	return lipgloss.JoinHorizontal(lipgloss.Center,
		c.styles.User.Render("You: "),
		c.styles.InputField.Render(c.field.View()),
	)
}

// Question returns the trimmed input, or false when there is nothing to send.
func (c *ChatInput) Question() (string, bool) {
	q := strings.TrimSpace(c.field.Value())
	return q, q != ""
}

// Value returns the raw input.
func (c *ChatInput) Value() string { return c.field.Value() }

// SetValue replaces the input, truncated to MaxQuestionLength.
func (c *ChatInput) SetValue(value string) { c.field.SetValue(value) }

// Reset clears the input.
func (c *ChatInput) Reset() { c.field.Reset() }

// Focus gives the field keyboard focus.
func (c *ChatInput) Focus() tea.Cmd { return c.field.Focus() }

// Blur removes keyboard focus.
func (c *ChatInput) Blur() { c.field.Blur() }

// Focused reports whether the field has focus.
func (c *ChatInput) Focused() bool { return c.field.Focused() }

// SetWidth sets the total width including the label.
func (c *ChatInput) SetWidth(width int) {
	c.width = width
	c.field.Width = max(width-chrome, minFieldWidth)
}

// Width returns the total width.
func (c *ChatInput) Width() int { return c.width }
