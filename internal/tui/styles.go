package tui

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	ColorOrange = lipgloss.Color("#DDA036")
	ColorGray   = lipgloss.Color("#9A9EA0")
	ColorRed    = lipgloss.Color("#E95420")
	ColorGreen  = lipgloss.Color("#4CAF50")
	ColorWhite  = lipgloss.Color("#FFFFFF")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorOrange)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorGray)
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorWhite)
	errorStyle = lipgloss.NewStyle().Foreground(ColorRed)

	scaleStyle  = lipgloss.NewStyle().Foreground(ColorGray)
	hotStyle    = lipgloss.NewStyle().Foreground(ColorRed)
	needleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorOrange)

	runningStyle = lipgloss.NewStyle().Foreground(ColorGreen)
	stoppedStyle = lipgloss.NewStyle().Foreground(ColorRed)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorOrange).
			Padding(0, 1)
)
