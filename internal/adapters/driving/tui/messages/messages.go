// Package messages holds the bubbletea messages exchanged between the TUI
// screens and the commands that call the core services.
package messages

import "github.com/custodia-labs/ragchat/internal/core/domain"

// ViewType identifies a screen.
type ViewType int

const (
	ViewChat ViewType = iota
	ViewDocuments
	ViewHelp
)

var viewNames = [...]string{
	ViewChat:      "chat",
	ViewDocuments: "documents",
	ViewHelp:      "help",
}

// String returns the view name.
func (v ViewType) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return "unknown"
	}
	return viewNames[v]
}

// ViewChanged asks the app to activate View.
type ViewChanged struct {
	View ViewType
}

// AnswerReceived is the outcome of one chat turn. Response is nil when Err
// is set.
type AnswerReceived struct {
	Question string
	Response *domain.ChatResponse
	Err      error
}

// HistoryLoaded carries the stored turns of a resumed session.
type HistoryLoaded struct {
	SessionID string
	Turns     []domain.Turn
	Err       error
}

// DocumentsLoaded carries the catalogue.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentDeleted reports a finished delete.
type DocumentDeleted struct {
	DocumentID    string
	ChunksRemoved int
	Err           error
}

// ErrorOccurred surfaces an error on the active screen.
type ErrorOccurred struct {
	Err error
}

// Quit ends the program.
type Quit struct{}
