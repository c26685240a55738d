package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	skyBlue   = lipgloss.Color("#1DA1F2")
	leafGreen = lipgloss.Color("#17BF63")
	amber     = lipgloss.Color("#FFAD1F")
	alertRed  = lipgloss.Color("#E0245E")
	inkBg     = lipgloss.Color("#15202B")
	inkBg2    = lipgloss.Color("#192734")
	dimWhite  = lipgloss.Color("#8899A6")

	baseStyle = lipgloss.NewStyle().
			Background(inkBg).
			Foreground(dimWhite)

	logoStyle = lipgloss.NewStyle().
			Foreground(skyBlue).
			Bold(true).
			Padding(1, 0).
			Align(lipgloss.Center)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(skyBlue).
			Background(inkBg2).
			Padding(1, 2)

	progressEmptyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#38444D"))

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(skyBlue).
			Bold(true)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	successStyle = lipgloss.NewStyle().
			Foreground(leafGreen).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(alertRed).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(amber).
			Bold(true)

	matchStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	matchNameStyle = lipgloss.NewStyle().
			Foreground(skyBlue).
			Bold(true)

	logTimestampStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#5B7083"))

	logMessageStyle = lipgloss.NewStyle().
			Foreground(dimWhite)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5B7083")).
			Padding(1, 0, 0, 2)

	titleStyle = lipgloss.NewStyle().
			Background(skyBlue).
			Foreground(inkBg).
			Bold(true).
			Padding(0, 1)

	rateLimitNormalStyle = lipgloss.NewStyle().
				Foreground(leafGreen)

	rateLimitWarningStyle = lipgloss.NewStyle().
				Foreground(amber)

	rateLimitCriticalStyle = lipgloss.NewStyle().
				Foreground(alertRed)
)

// GetRateLimitStyle returns the appropriate style based on rate limit usage
func GetRateLimitStyle(usage float64) lipgloss.Style {
	switch {
	case usage >= 90:
		return rateLimitCriticalStyle
	case usage >= 70:
		return rateLimitWarningStyle
	default:
		return rateLimitNormalStyle
	}
}
