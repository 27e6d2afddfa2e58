// Package render provides terminal rendering of the run overview and the final result.
package render

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
)

const defaultWrap = 80

// RenderMarkdown renders agent output for the terminal, word-wrapped at width columns (80 if width <= 0).
// With noColor the plain "notty" style is used, so the text is still laid out but carries no escapes.
func RenderMarkdown(content string, width int, noColor bool) (string, error) {
	if width <= 0 {
		width = defaultWrap
	}

	style := glamour.WithAutoStyle()
	if noColor {
		style = glamour.WithStandardStyle(styles.NoTTYStyle)
	}
	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}

	out, err := renderer.Render(content)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
