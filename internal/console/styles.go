// Package console prints pipeline results for people: inventories,
// validation reports and structure diagnostics.
package console

import "github.com/charmbracelet/lipgloss"

// Palette matches the dark terminal theme.
const (
	ColorBg     = "#0d1117"
	ColorBorder = "#30363d"
	ColorBlue   = "#58a6ff"
	ColorGreen  = "#3fb950"
	ColorRed    = "#f85149"
	ColorYellow = "#d29922"
	ColorGray   = "#8b949e"
	ColorBright = "#f0f6fc"
)

// Styles holds the lipgloss styles used by the printers.
type Styles struct {
	Title lipgloss.Style
	Label lipgloss.Style
	Muted lipgloss.Style
	Pass  lipgloss.Style
	Fail  lipgloss.Style
	Warn  lipgloss.Style
	Box   lipgloss.Style
}

func badge(bg string) lipgloss.Style {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(bg)).
		Foreground(lipgloss.Color(ColorBg)).
		Padding(0, 1).
		Bold(true)
}

// DefaultStyles returns the standard style set.
func DefaultStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorBright)),
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorBlue)),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorGray)).
			Italic(true),
		Pass: badge(ColorGreen),
		Fail: badge(ColorRed),
		Warn: badge(ColorYellow),
		Box: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorBorder)).
			Padding(0, 1),
	}
}

// PlainStyles renders without colors or borders.
func PlainStyles() *Styles {
	plain := lipgloss.NewStyle()
	return &Styles{Title: plain, Label: plain, Muted: plain, Pass: plain, Fail: plain, Warn: plain, Box: plain}
}
