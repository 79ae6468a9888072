// Package styles holds the TUI palette and the lipgloss styles built from it.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette names the colours the TUI draws with. Every entry is adaptive,
// picking the Light or Dark value from the terminal background.
type Palette struct {
	Accent    lipgloss.AdaptiveColor // assistant label, titles
	Highlight lipgloss.AdaptiveColor // user label, section headers
	Text      lipgloss.AdaptiveColor
	Subtle    lipgloss.AdaptiveColor
	Bar       lipgloss.AdaptiveColor // status bar background
	Edge      lipgloss.AdaptiveColor
	Good      lipgloss.AdaptiveColor
	Caution   lipgloss.AdaptiveColor
	Bad       lipgloss.AdaptiveColor
}

// DefaultPalette is Catppuccin Mocha on dark terminals and Latte on light ones.
func DefaultPalette() Palette {
	return Palette{
		Accent:    lipgloss.AdaptiveColor{Light: "#8839EF", Dark: "#CBA6F7"},
		Highlight: lipgloss.AdaptiveColor{Light: "#179299", Dark: "#94E2D5"},
		Text:      lipgloss.AdaptiveColor{Light: "#4C4F69", Dark: "#CDD6F4"},
		Subtle:    lipgloss.AdaptiveColor{Light: "#8C8FA1", Dark: "#6C7086"},
		Bar:       lipgloss.AdaptiveColor{Light: "#E6E9EF", Dark: "#181825"},
		Edge:      lipgloss.AdaptiveColor{Light: "#BCC0CC", Dark: "#45475A"},
		Good:      lipgloss.AdaptiveColor{Light: "#40A02B", Dark: "#A6E3A1"},
		Caution:   lipgloss.AdaptiveColor{Light: "#DF8E1D", Dark: "#F9E2AF"},
		Bad:       lipgloss.AdaptiveColor{Light: "#D20F39", Dark: "#F38BA8"},
	}
}

// Styles is the set of styles views render with.
type Styles struct {
	palette Palette

	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Normal    lipgloss.Style
	Muted     lipgloss.Style
	Selected  lipgloss.Style
	Help      lipgloss.Style
	Border    lipgloss.Style
	StatusBar lipgloss.Style

	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style

	InputField lipgloss.Style

	// Transcript roles.
	User      lipgloss.Style
	Assistant lipgloss.Style
	Source    lipgloss.Style
}

// New builds the styles for palette p.
func New(p Palette) *Styles {
	fg := func(c lipgloss.AdaptiveColor) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}
	rounded := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Edge)

	return &Styles{
		palette: p,

		Title:     fg(p.Accent).Bold(true),
		Subtitle:  fg(p.Highlight).Bold(true),
		Normal:    fg(p.Text),
		Muted:     fg(p.Subtle),
		Selected:  fg(p.Text).Background(p.Accent).Bold(true),
		Help:      fg(p.Subtle),
		Border:    rounded,
		StatusBar: fg(p.Subtle).Background(p.Bar).Padding(0, 1),

		Error:   fg(p.Bad),
		Success: fg(p.Good),
		Warning: fg(p.Caution),

		InputField: rounded.Padding(0, 1),

		User:      fg(p.Highlight).Bold(true),
		Assistant: fg(p.Accent).Bold(true),
		Source:    fg(p.Subtle).Italic(true).PaddingLeft(2),
	}
}

// DefaultStyles returns styles for the default palette.
func DefaultStyles() *Styles {
	return New(DefaultPalette())
}

// Palette returns the colours the styles were built from.
func (s *Styles) Palette() Palette {
	return s.palette
}
