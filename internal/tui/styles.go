package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds all lipgloss styles used by the UI.
type Styles struct {
	Title        lipgloss.Style
	Subtle       lipgloss.Style
	Error        lipgloss.Style
	Status       lipgloss.Style
	Spinner      lipgloss.Style
	Label        lipgloss.Style
	Link         lipgloss.Style
	Card         lipgloss.Style
	CardSelected lipgloss.Style
	Skeleton     lipgloss.Style
	Tile         lipgloss.Style
	TileValue    lipgloss.Style
	Tab          lipgloss.Style
	TabActive    lipgloss.Style
	Focused      lipgloss.Style
	Disabled     lipgloss.Style
}

type palette struct {
	accent, text, subtle, border, errc, ok lipgloss.Color
}

var (
	lightPalette = palette{accent: "62", text: "235", subtle: "243", border: "250", errc: "160", ok: "28"}
	darkPalette  = palette{accent: "111", text: "252", subtle: "245", border: "238", errc: "203", ok: "78"}
)

// DefaultStyles builds the styles for the light or dark palette.
func DefaultStyles(dark bool) Styles {
	p := lightPalette
	if dark {
		p = darkPalette
	}

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.border).
		Foreground(p.text).
		Padding(0, 1)

	return Styles{
		Title:        lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		Subtle:       lipgloss.NewStyle().Foreground(p.subtle),
		Error:        lipgloss.NewStyle().Foreground(p.errc),
		Status:       lipgloss.NewStyle().Foreground(p.ok),
		Spinner:      lipgloss.NewStyle().Foreground(p.accent),
		Label:        lipgloss.NewStyle().Foreground(p.subtle).Width(14),
		Link:         lipgloss.NewStyle().Foreground(p.accent).Underline(true),
		Card:         card,
		CardSelected: card.BorderForeground(p.accent),
		Skeleton:     card.Foreground(p.border),
		Tile:         lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(p.border).Padding(0, 1),
		TileValue:    lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		Tab:          lipgloss.NewStyle().Foreground(p.subtle).Padding(0, 1),
		TabActive:    lipgloss.NewStyle().Bold(true).Foreground(p.accent).Underline(true).Padding(0, 1),
		Focused:      lipgloss.NewStyle().Foreground(p.accent),
		Disabled:     lipgloss.NewStyle().Foreground(p.border).Strikethrough(true),
	}
}
