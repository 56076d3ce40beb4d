// Package tui implements the Bubble Tea TUI for browsing OAuth2 sessions.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hay-kot/oauth-sessions/internal/styles"
)

var (
	colorRed    = styles.ColorRed
	colorGreen  = styles.ColorGreen
	colorYellow = styles.ColorYellow
	colorBlue   = styles.ColorBlue
	colorGray   = styles.ColorGray
	colorWhite  = styles.ColorWhite
)

var (
	// Header title.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue).
			PaddingLeft(1)

	// Subtle header and footer text.
	subtleStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	// Selected item title.
	selectedStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	// Unselected item title.
	normalStyle = lipgloss.NewStyle().
			Foreground(colorWhite)

	// Session state badges.
	activeStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	finishedStyle = lipgloss.NewStyle().Foreground(colorGray).Italic(true)

	// Secondary item lines (ID, scopes, activity).
	detailStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	// Inline fetch errors.
	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	// Footer hint for available actions.
	hintStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	// Footer container.
	footerStyle = lipgloss.NewStyle().
			PaddingLeft(1)

	// Modal frame.
	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBlue).
			Padding(1, 2)

	modalTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	modalHelpStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			MarginTop(1)
)
