package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds all lipgloss styles for the TUI.
type Styles struct {
	App          lipgloss.Style
	Pane         lipgloss.Style
	Modal        lipgloss.Style
	Title        lipgloss.Style
	Status       lipgloss.Style
	Item         lipgloss.Style
	ItemSelected lipgloss.Style
	URL          lipgloss.Style
	Label        lipgloss.Style
	Empty        lipgloss.Style
	HintKey      lipgloss.Style // Key portion of hints (e.g., "Enter", "j/k")
	HintDesc     lipgloss.Style // Description portion of hints (e.g., "confirm", "move")
	Info         lipgloss.Style
	Success      lipgloss.Style
	Warning      lipgloss.Style
	Error        lipgloss.Style
}

// palette picks one side of each adaptive color so the theme follows the
// dark_theme setting instead of the terminal background.
type palette struct {
	dark bool
}

func (p palette) color(c lipgloss.AdaptiveColor) lipgloss.Color {
	if p.dark {
		return lipgloss.Color(c.Dark)
	}
	return lipgloss.Color(c.Light)
}

// DefaultStyles returns the style configuration for a dark or light theme.
// Industrial design: grayscale with single desaturated teal accent.
func DefaultStyles(dark bool) Styles {
	p := palette{dark: dark}

	primary := p.color(lipgloss.AdaptiveColor{Light: "#505050", Dark: "#A0A0A0"})
	subtle := p.color(lipgloss.AdaptiveColor{Light: "#888888", Dark: "#606060"})
	accent := p.color(lipgloss.AdaptiveColor{Light: "#4A7070", Dark: "#5F8787"})
	border := p.color(lipgloss.AdaptiveColor{Light: "#888888", Dark: "#505050"})
	selectedFg := p.color(lipgloss.AdaptiveColor{Light: "#F0F0F0", Dark: "#1A1A1A"})

	return Styles{
		App: lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(2).
			PaddingRight(2),

		Pane: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(border).
			Padding(0, 1),

		Modal: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(accent).
			Padding(1, 2),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),

		Status: lipgloss.NewStyle().
			Foreground(subtle),

		Item: lipgloss.NewStyle().
			Foreground(primary).
			PaddingLeft(1),

		ItemSelected: lipgloss.NewStyle().
			PaddingLeft(1).
			Background(accent).
			Foreground(selectedFg),

		URL: lipgloss.NewStyle().
			Foreground(subtle).
			PaddingLeft(3),

		Label: lipgloss.NewStyle().
			Foreground(subtle).
			Width(10),

		Empty: lipgloss.NewStyle().
			Foreground(subtle),

		HintKey: lipgloss.NewStyle().
			Foreground(accent),

		HintDesc: lipgloss.NewStyle().
			Foreground(subtle),

		Info: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(p.color(lipgloss.AdaptiveColor{Light: "#338833", Dark: "#66CC66"})).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(p.color(lipgloss.AdaptiveColor{Light: "#CC8800", Dark: "#FFAA00"})).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(p.color(lipgloss.AdaptiveColor{Light: "#CC3333", Dark: "#FF6666"})).
			Bold(true),
	}
}
