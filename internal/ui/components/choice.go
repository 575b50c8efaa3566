package components

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizchat/internal/ui/theme"
)

// Choice is a single-select radio group.
type Choice struct {
	Label    string
	Options  []string
	Selected int
	Focused  bool
}

// NewChoice creates a radio group. selected is clamped to the options.
func NewChoice(label string, options []string, selected int) Choice {
	if selected < 0 || selected >= len(options) {
		selected = 0
	}
	return Choice{
		Label:    label,
		Options:  options,
		Selected: selected,
	}
}

// Update moves the selection while the group is focused.
func (c Choice) Update(msg tea.Msg) (Choice, tea.Cmd) {
	if !c.Focused {
		return c, nil
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}

	switch kmsg.String() {
	case "up", "k":
		if c.Selected > 0 {
			c.Selected--
		}
	case "down", "j":
		if c.Selected < len(c.Options)-1 {
			c.Selected++
		}
	}

	return c, nil
}

// Value returns the selected option, or "" for an empty group.
func (c Choice) Value() string {
	if c.Selected < 0 || c.Selected >= len(c.Options) {
		return ""
	}
	return c.Options[c.Selected]
}

// View renders the group.
func (c Choice) View() string {
	labelStyle := lipgloss.NewStyle().Foreground(theme.TextDim).Bold(true)
	if c.Focused {
		labelStyle = theme.Focused
	}
	s := labelStyle.Render(c.Label) + "\n\n"

	for i, opt := range c.Options {
		mark := "( )"
		if i == c.Selected {
			mark = "(•)"
		}
		line := fmt.Sprintf("  %s %s", mark, opt)

		switch {
		case i == c.Selected && c.Focused:
			s += theme.Selected.Render(line) + "\n"
		case i == c.Selected:
			s += theme.Unselected.Bold(true).Render(line) + "\n"
		default:
			s += lipgloss.NewStyle().Foreground(theme.TextDim).Render(line) + "\n"
		}
	}

	return s
}
