package ui

import "github.com/charmbracelet/glamour"

// RenderMarkdown renders a task description/annotation body as markdown for
// `show`, falling back to the raw text if glamour can't build a renderer
// (e.g. an unsupported terminal profile).
func RenderMarkdown(body string) string {
	width := GetWidth()
	if width > 100 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return body
	}
	out, err := r.Render(body)
	if err != nil {
		return body
	}
	return out
}
