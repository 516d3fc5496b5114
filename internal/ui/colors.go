package ui

import "github.com/charmbracelet/lipgloss"

// Palette used by table.go and prompts.go, adaptive to light/dark terminal
// backgrounds the way charmbracelet apps in this stack typically declare
// their palette once and share it across every rendered view.
var (
	ColorAccent = lipgloss.AdaptiveColor{Light: "#0060B0", Dark: "#6FB7FF"}
	ColorWarn   = lipgloss.AdaptiveColor{Light: "#A85B00", Dark: "#FFB454"}
	ColorPass   = lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#5FD97A"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#6E6E6E", Dark: "#8A8A8A"}
)
