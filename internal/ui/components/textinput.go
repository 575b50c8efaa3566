package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

// TextInput wraps bubbles/textinput for the chat line and the API key field.
type TextInput struct {
	Model textinput.Model
}

// NewTextInput creates a focused single-line input.
func NewTextInput(placeholder string, width int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "› "
	if width > 0 {
		ti.SetWidth(width)
	}
	ti.Focus()
	return TextInput{Model: ti}
}

// NewSecretInput creates an input that masks what is typed.
func NewSecretInput(placeholder string, width int) TextInput {
	t := NewTextInput(placeholder, width)
	t.Model.EchoMode = textinput.EchoPassword
	t.Model.EchoCharacter = '•'
	return t
}

// Init returns the initial command.
func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Update handles messages.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// View renders the text input.
func (t TextInput) View() string {
	return t.Model.View()
}

// Value returns the current input value.
func (t TextInput) Value() string {
	return t.Model.Value()
}

// Submitted returns the value as typed and clears the input. ok is false
// for blank input, which is left in place.
func (t *TextInput) Submitted() (string, bool) {
	v := t.Model.Value()
	if strings.TrimSpace(v) == "" {
		return "", false
	}
	t.Model.Reset()
	return v, true
}

// Restore puts text back into the input, e.g. after a failed send.
func (t *TextInput) Restore(text string) {
	t.Model.SetValue(text)
	t.Model.CursorEnd()
}
