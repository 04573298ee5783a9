package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colors used for terminal output.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/help text color
	In      lipgloss.Color // Data arrived
	Out     lipgloss.Color // Room freed
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	In:      lipgloss.Color("#58a6ff"),
	Out:     lipgloss.Color("#d29922"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
	In     lipgloss.Style
	Out    lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
		In:     lipgloss.NewStyle().Bold(true).Foreground(t.In),
		Out:    lipgloss.NewStyle().Bold(true).Foreground(t.Out),
	}
}
