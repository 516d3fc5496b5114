package ui

import "github.com/charmbracelet/lipgloss"

var (
	passStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	warnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	failStyle   = lipgloss.NewStyle().Foreground(ColorWarn).Bold(true)
	accentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
	mutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
)

// RenderPass renders a success marker/line in ColorPass, or returns it
// unstyled when color is disabled (spec.md §7 command output).
func RenderPass(s string) string {
	if !ShouldUseColor() {
		return s
	}
	return passStyle.Render(s)
}

// RenderWarn renders a warning marker/line (e.g. a Notice from the session
// repo's micro-session merge/purge) in ColorWarn.
func RenderWarn(s string) string {
	if !ShouldUseColor() {
		return s
	}
	return warnStyle.Render(s)
}

// RenderFail renders an error marker/line in bold ColorWarn.
func RenderFail(s string) string {
	if !ShouldUseColor() {
		return s
	}
	return failStyle.Render(s)
}

// RenderAccent renders a highlighted value (e.g. a task id) in ColorAccent.
func RenderAccent(s string) string {
	if !ShouldUseColor() {
		return s
	}
	return accentStyle.Render(s)
}

// RenderMuted renders secondary/hint text in ColorMuted.
func RenderMuted(s string) string {
	if !ShouldUseColor() {
		return s
	}
	return mutedStyle.Render(s)
}
