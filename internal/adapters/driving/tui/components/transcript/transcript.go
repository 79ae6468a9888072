// Package transcript renders a scrollable conversation for the TUI.
package transcript

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// snippetLen bounds how much of a source chunk is shown.
const snippetLen = 80

// Entry is one question and its answer, or the error that replaced it.
type Entry struct {
	Question string
	Answer   string
	Sources  []domain.RetrievedChunk
	Err      error
	Pending  bool
}

// Transcript holds the conversation and renders it into a viewport.
type Transcript struct {
	styles      *styles.Styles
	viewport    viewport.Model
	entries     []Entry
	showSources bool
}

// New creates an empty transcript.
func New(s *styles.Styles) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}
	t := &Transcript{
		styles:   s,
		viewport: viewport.New(80, 20),
	}
	t.refresh()
	return t
}

// Update forwards scrolling input to the viewport.
func (t *Transcript) Update(msg tea.Msg) (*Transcript, tea.Cmd) {
	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return t, cmd
}

// View renders the visible part of the conversation.
func (t *Transcript) View() string {
	return t.viewport.View()
}

// SetSize resizes the viewport and re-wraps the content.
func (t *Transcript) SetSize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	t.viewport.Width = width
	t.viewport.Height = height
	t.refresh()
}

// Ask appends a pending entry for question.
func (t *Transcript) Ask(question string) {
	t.entries = append(t.entries, Entry{Question: question, Pending: true})
	t.refresh()
}

// Answer resolves the last pending entry with resp.
func (t *Transcript) Answer(resp *domain.ChatResponse) {
	e := t.pending()
	if e == nil || resp == nil {
		return
	}
	e.Answer = resp.Answer
	e.Sources = resp.Sources
	e.Pending = false
	t.refresh()
}

// Fail resolves the last pending entry with err.
func (t *Transcript) Fail(err error) {
	e := t.pending()
	if e == nil {
		return
	}
	e.Err = err
	e.Pending = false
	t.refresh()
}

// Load replaces the transcript with stored turns.
func (t *Transcript) Load(turns []domain.Turn) {
	t.entries = make([]Entry, 0, len(turns))
	for _, turn := range turns {
		t.entries = append(t.entries, Entry{Question: turn.Question, Answer: turn.Answer})
	}
	t.refresh()
}

// Reset clears the conversation.
func (t *Transcript) Reset() {
	t.entries = nil
	t.refresh()
}

// ToggleSources shows or hides retrieved sources and reports the new setting.
func (t *Transcript) ToggleSources() bool {
	t.showSources = !t.showSources
	t.refresh()
	return t.showSources
}

// Entries returns the conversation so far.
func (t *Transcript) Entries() []Entry {
	return t.entries
}

// Waiting reports whether a question is awaiting its answer.
func (t *Transcript) Waiting() bool {
	return t.pending() != nil
}

func (t *Transcript) pending() *Entry {
	if n := len(t.entries); n > 0 && t.entries[n-1].Pending {
		return &t.entries[n-1]
	}
	return nil
}

func (t *Transcript) refresh() {
	t.viewport.SetContent(t.render())
	t.viewport.GotoBottom()
}

func (t *Transcript) render() string {
	if len(t.entries) == 0 {
		return t.styles.Muted.Render("Ask a question to start chatting with your documents.")
	}

	wrap := lipgloss.NewStyle().Width(t.viewport.Width)
	var b strings.Builder
	for i, e := range t.entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(wrap.Render(t.styles.User.Render("You: ") + e.Question))
		b.WriteString("\n")

		switch {
		case e.Pending:
			b.WriteString(t.styles.Muted.Render("Thinking..."))
		case e.Err != nil:
			b.WriteString(wrap.Render(t.styles.Error.Render("Error: " + e.Err.Error())))
		default:
			b.WriteString(wrap.Render(t.styles.Assistant.Render("Assistant: ") + e.Answer))
			if t.showSources {
				for _, src := range e.Sources {
					b.WriteString("\n")
					b.WriteString(t.styles.Source.Render(sourceLine(src)))
				}
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func sourceLine(src domain.RetrievedChunk) string {
	name := src.Chunk.DocumentID
	if f, ok := src.Chunk.Metadata[driven.MetaFilename].(string); ok && f != "" {
		name = f
	}
	return fmt.Sprintf("[%s #%d %.2f] %s", name, src.Chunk.Position, src.Score, snippet(src.Chunk.Content))
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > snippetLen {
		return string(r[:snippetLen-3]) + "..."
	}
	return s
}
