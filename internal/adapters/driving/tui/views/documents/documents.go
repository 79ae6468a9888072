// Package documents is the TUI screen that lists the catalogue and deletes
// documents on confirmation.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

var errNoDocumentService = errors.New("document service not available")

// chromeLines is the number of rows taken by the title, notice and footer.
const chromeLines = 8

// View is the documents screen.
type View struct {
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model
	svc    driving.DocumentService

	documents  []domain.Document
	selected   int
	offset     int
	confirming bool
	loading    bool
	notice     string
	err        error

	width, height int
}

// NewView creates the screen. svc may be nil; loading then reports an
// error instead of panicking.
func NewView(s *styles.Styles, km *keymap.KeyMap, svc driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		ctx:       context.Background(),
		styles:    s,
		keymap:    km,
		help:      help.New(),
		svc:       svc,
		documents: []domain.Document{},
	}
}

// SetContext sets the context used for service calls.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// Init implements the bubbletea component contract.
func (v *View) Init() tea.Cmd {
	return nil
}

// Load clears transient state and fetches the catalogue.
func (v *View) Load() tea.Cmd {
	v.loading = true
	v.confirming = false
	v.notice = ""
	v.err = nil
	return v.fetch()
}

func (v *View) fetch() tea.Cmd {
	ctx, svc := v.ctx, v.svc
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentsLoaded{Err: errNoDocumentService}
		}
		docs, err := svc.List(ctx)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

func (v *View) remove(id string) tea.Cmd {
	ctx, svc := v.ctx, v.svc
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentDeleted{DocumentID: id, Err: errNoDocumentService}
		}
		res, err := svc.Delete(ctx, id)
		if err != nil {
			return messages.DocumentDeleted{DocumentID: id, Err: err}
		}
		return messages.DocumentDeleted{DocumentID: res.DocumentID, ChunksRemoved: res.ChunksRemoved}
	}
}

// Update handles messages for the screen.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		if v.confirming {
			return v, v.confirm(msg)
		}
		return v, v.handleKey(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.documents = msg.Documents
			v.selected = min(v.selected, max(len(v.documents)-1, 0))
			v.scroll()
		}

	case messages.DocumentDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.notice = fmt.Sprintf("Deleted %s (%d chunks)", msg.DocumentID, msg.ChunksRemoved)
		return v, v.fetch()

	case messages.ErrorOccurred:
		v.err = msg.Err
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keymap.Up):
		v.move(-1)
	case key.Matches(msg, v.keymap.Down):
		v.move(1)
	case key.Matches(msg, v.keymap.Delete):
		if len(v.documents) > 0 {
			v.confirming = true
			v.notice = ""
		}
	case key.Matches(msg, v.keymap.Refresh):
		return v.Load()
	case key.Matches(msg, v.keymap.Back):
		return func() tea.Msg { return messages.ViewChanged{View: messages.ViewChat} }
	}
	return nil
}

// confirm deletes the selection on the confirm key; any other key cancels.
func (v *View) confirm(msg tea.KeyMsg) tea.Cmd {
	v.confirming = false
	doc := v.SelectedDocument()
	if doc == nil || !key.Matches(msg, v.keymap.Confirm) {
		return nil
	}
	return v.remove(doc.ID)
}

func (v *View) move(delta int) {
	next := v.selected + delta
	if next < 0 || next >= len(v.documents) {
		return
	}
	v.selected = next
	v.scroll()
}

// scroll keeps the selection inside the visible window.
func (v *View) scroll() {
	rows := v.rows()
	switch {
	case v.selected < v.offset:
		v.offset = v.selected
	case v.selected >= v.offset+rows:
		v.offset = v.selected - rows + 1
	}
}

func (v *View) rows() int {
	return max(v.height-chromeLines, 1)
}

// View renders the screen.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.documents))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents uploaded yet."))
	default:
		b.WriteString(v.renderList())
	}
	b.WriteString("\n\n")

	if doc := v.SelectedDocument(); v.confirming && doc != nil {
		b.WriteString(v.styles.Warning.Render(
			fmt.Sprintf("Delete %s and its chunks? [y] confirm  [any key] cancel", doc.Filename)))
		b.WriteString("\n")
	} else if v.notice != "" {
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n")
	}
	b.WriteString(v.help.ShortHelpView(v.keymap.DocumentsHelp()))
	return b.String()
}

func (v *View) renderList() string {
	rows := v.rows()
	end := min(v.offset+rows, len(v.documents))

	lines := make([]string, 0, end-v.offset+1)
	for i := v.offset; i < end; i++ {
		lines = append(lines, v.renderDocument(i, &v.documents[i]))
	}
	if len(v.documents) > rows {
		lines = append(lines, v.styles.Muted.Render(
			fmt.Sprintf("  [%d-%d of %d]", v.offset+1, end, len(v.documents))))
	}
	return strings.Join(lines, "\n")
}

func (v *View) renderDocument(index int, doc *domain.Document) string {
	width := max(v.width/2-4, 10)
	line := fmt.Sprintf("%s%-*s  %-5s  %s",
		cursor(index == v.selected), width, truncate(doc.Filename, width),
		doc.Format, doc.CreatedAt.Local().Format("2006-01-02 15:04"))

	if index == v.selected {
		return v.styles.Selected.Render(line)
	}
	return v.styles.Normal.Render(line)
}

func cursor(selected bool) string {
	if selected {
		return "> "
	}
	return "  "
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

// SetDimensions sets the screen size.
func (v *View) SetDimensions(width, height int) {
	v.width, v.height = width, height
	v.help.Width = width
}

// Documents returns the loaded catalogue.
func (v *View) Documents() []domain.Document { return v.documents }

// SelectedIndex returns the cursor position.
func (v *View) SelectedIndex() int { return v.selected }

// SelectedDocument returns the document under the cursor, or nil.
func (v *View) SelectedDocument() *domain.Document {
	if v.selected < len(v.documents) {
		return &v.documents[v.selected]
	}
	return nil
}

// IsConfirming reports whether a delete is awaiting confirmation.
func (v *View) IsConfirming() bool { return v.confirming }

// Err returns the last error.
func (v *View) Err() error { return v.err }
