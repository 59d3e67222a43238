package report

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// RenderTerminal renders report markdown for terminal display with
// glamour. Falls back to the raw markdown if rendering fails, so report
// output is never lost to a styling problem.
func RenderTerminal(markdown string, width int) string {
	if width <= 0 || width > 120 {
		width = 120
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return markdown
	}

	rendered, err := r.Render(markdown)
	if err != nil {
		return markdown
	}

	return strings.TrimSuffix(rendered, "\n")
}
