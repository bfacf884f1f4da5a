// Package ui provides the terminal presentation layer: the verification
// report table and the interactive confirm/choice prompts.
package ui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	colorPrimary = lipgloss.Color("#2563EB") // Blue
	colorSuccess = lipgloss.Color("#10B981") // Green (satisfied)
	colorDanger  = lipgloss.Color("#EF4444") // Red (unsatisfied)
	colorMuted   = lipgloss.Color("#6B7280") // Gray
	colorBorder  = lipgloss.Color("#374151") // Dark gray
)

// Shared styles.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorPrimary).
			Padding(0, 1)

	okStyle = lipgloss.NewStyle().
		Foreground(colorSuccess)

	badStyle = lipgloss.NewStyle().
			Foreground(colorDanger)

	itemNameStyle = lipgloss.NewStyle().
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Bold(true)

	buttonStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 2)

	activeButtonStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(colorPrimary).
				Padding(0, 2)
)
