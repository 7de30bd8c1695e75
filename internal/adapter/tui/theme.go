package tui

import "github.com/charmbracelet/lipgloss"

// Adaptive colors that work on both light and dark terminals.
var (
	colorError  = lipgloss.AdaptiveColor{Light: "#c62828", Dark: "#ef5350"}
	colorInfo   = lipgloss.AdaptiveColor{Light: "#0277bd", Dark: "#4fc3f7"}
	colorAccent = lipgloss.AdaptiveColor{Light: "#6a1b9a", Dark: "#ce93d8"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#9e9e9e"}

	colorBorder       = lipgloss.AdaptiveColor{Light: "#bdbdbd", Dark: "#616161"}
	colorBorderActive = lipgloss.AdaptiveColor{Light: "#1565c0", Dark: "#42a5f5"}
)

var (
	styleUserLabel      = lipgloss.NewStyle().Bold(true).Foreground(colorInfo)
	styleAssistantLabel = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleError          = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	styleMuted          = lipgloss.NewStyle().Foreground(colorMuted)
	styleSuggestion     = lipgloss.NewStyle().Foreground(colorInfo).Italic(true)
	styleStatusBar      = lipgloss.NewStyle().Faint(true)

	stylePane = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
	stylePaneActive = stylePane.BorderForeground(colorBorderActive)
)
