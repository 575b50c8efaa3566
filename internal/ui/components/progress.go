package components

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizchat/internal/ui/theme"
)

// Gauge shows a numeric setting as a horizontal bar with its value.
type Gauge struct {
	Label   string
	Percent float64
	Value   string
	Width   int
	Focused bool
}

// NewGauge creates a gauge for value within [min, max].
func NewGauge(label string, value, min, max float64, display string, width int) Gauge {
	pct := 0.0
	if max > min {
		pct = (value - min) / (max - min)
	}
	return Gauge{
		Label:   label,
		Percent: pct,
		Value:   display,
		Width:   width,
	}
}

// View renders the gauge.
func (g Gauge) View() string {
	labelStyle := lipgloss.NewStyle().Foreground(theme.Text)
	if g.Focused {
		labelStyle = theme.Focused
	}

	var result string
	if g.Label != "" {
		result += labelStyle.Render(g.Label) + "  "
	}

	value := "  " + g.Value
	barWidth := g.Width - lipgloss.Width(result) - lipgloss.Width(value)
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth) * g.Percent)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	empty := barWidth - filled

	fill := theme.Secondary
	if g.Focused {
		fill = theme.Highlight
	}

	result += lipgloss.NewStyle().Background(fill).Render(strings.Repeat(" ", filled))
	result += lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", empty))
	result += lipgloss.NewStyle().Foreground(theme.TextDim).Render(value)

	return result
}
