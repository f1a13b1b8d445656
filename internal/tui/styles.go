package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
const (
	colorPrimary   = "#7C3AED"
	colorSuccess   = "#10B981"
	colorError     = "#EF4444"
	colorGray      = "#6B7280"
	colorLightGray = "#9CA3AF"
	colorWhite     = "#F3F4F6"
	colorViolet    = "#A78BFA"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorPrimary))

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorLightGray))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGray))

	focusedLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color(colorViolet))

	buttonStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color(colorWhite)).
			Background(lipgloss.Color(colorPrimary))

	focusedButtonStyle = buttonStyle.
				Bold(true).
				Underline(true)

	disabledButtonStyle = lipgloss.NewStyle().
				Padding(0, 2).
				Foreground(lipgloss.Color(colorLightGray)).
				Background(lipgloss.Color(colorGray))

	successBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorSuccess)).
			Padding(0, 1)

	flashBoxStyle = successBoxStyle.
			BorderStyle(lipgloss.ThickBorder())

	errorBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorError)).
			Foreground(lipgloss.Color(colorError)).
			Padding(0, 1)

	counterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGray))

	counterOverStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color(colorError))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGray))
)
