// Package cli provides the terminal output pieces the batch tools share:
// a styled progress line for dataset iteration and small formatting and
// dump helpers.
package cli

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme for tool output.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/detail text color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Label lipgloss.Style
	Value lipgloss.Style
	Bar   lipgloss.Style
	Help  lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Label: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Value: lipgloss.NewStyle().Bold(true),
		Bar:   lipgloss.NewStyle().Foreground(t.Primary),
		Help:  lipgloss.NewStyle().Foreground(t.Dim),
	}
}
