// Package keymap holds the TUI keybindings.
package keymap

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap groups every binding the screens react to. Chat bindings use
// modifier or function keys only so they never swallow typed text.
type KeyMap struct {
	Quit key.Binding
	Help key.Binding
	Back key.Binding

	// Chat screen.
	Send          key.Binding
	NewSession    key.Binding
	ToggleSources key.Binding
	Documents     key.Binding

	// Documents screen.
	Up      key.Binding
	Down    key.Binding
	Delete  key.Binding
	Refresh key.Binding
	Confirm key.Binding
}

// Ensure KeyMap implements the interface.
var _ help.KeyMap = (*KeyMap)(nil)

func bind(helpKey, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(helpKey, desc))
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: bind("ctrl+c", "quit", "ctrl+c"),
		Help: bind("f1", "help", "f1"),
		Back: bind("esc", "back", "esc"),

		Send:          bind("enter", "send", "enter"),
		NewSession:    bind("ctrl+n", "new session", "ctrl+n"),
		ToggleSources: bind("ctrl+s", "sources", "ctrl+s"),
		Documents:     bind("ctrl+d", "documents", "ctrl+d"),

		Up:      bind("↑/k", "up", "up", "k"),
		Down:    bind("↓/j", "down", "down", "j"),
		Delete:  bind("d", "delete", "d", "delete"),
		Refresh: bind("r", "refresh", "r"),
		Confirm: bind("y", "confirm", "y"),
	}
}

// ChatHelp returns the hints shown in the chat status bar.
func (k *KeyMap) ChatHelp() []key.Binding {
	return []key.Binding{k.Send, k.NewSession, k.ToggleSources, k.Documents, k.Quit}
}

// DocumentsHelp returns the hints shown under the document list.
func (k *KeyMap) DocumentsHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Delete, k.Refresh, k.Back}
}

// ShortHelp implements help.KeyMap.
func (k *KeyMap) ShortHelp() []key.Binding {
	return k.ChatHelp()
}

// FullHelp implements help.KeyMap.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.NewSession, k.ToggleSources},
		{k.Documents, k.Up, k.Down, k.Delete, k.Refresh, k.Confirm},
		{k.Help, k.Back, k.Quit},
	}
}
