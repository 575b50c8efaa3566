package chat

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
)

// markdown renders message bodies with glamour. Rendered committed messages
// are cached until the width changes.
type markdown struct {
	width    int
	renderer *glamour.TermRenderer
	cache    map[string]string
}

func newMarkdown() *markdown {
	return &markdown{cache: make(map[string]string)}
}

// render returns text as styled terminal output wrapped at width. Only
// committed text should be cached; a streaming reply changes every chunk.
func (m *markdown) render(text string, width int, cache bool) string {
	if width < 10 {
		width = 10
	}
	if m.renderer == nil || width != m.width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return plain(text, width)
		}
		m.renderer = r
		m.width = width
		m.cache = make(map[string]string)
	}

	if out, ok := m.cache[text]; ok {
		return out
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return plain(text, width)
	}
	out = strings.Trim(out, "\n")
	if cache {
		m.cache[text] = out
	}
	return out
}

func plain(text string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(text)
}
