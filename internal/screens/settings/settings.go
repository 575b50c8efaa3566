// Package settings is the configuration screen: provider, API key, model,
// temperature, max tokens and system prompt.
package settings

import (
	"fmt"
	"math"
	"strings"

	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizchat/internal/chat"
	"github.com/abhisek/quizchat/internal/llm"
	"github.com/abhisek/quizchat/internal/quiz"
	"github.com/abhisek/quizchat/internal/router"
	"github.com/abhisek/quizchat/internal/screen"
	"github.com/abhisek/quizchat/internal/ui/components"
	"github.com/abhisek/quizchat/internal/ui/layout"
	"github.com/abhisek/quizchat/internal/ui/theme"
)

const (
	fieldProvider = iota
	fieldAPIKey
	fieldModel
	fieldTemperature
	fieldMaxTokens
	fieldSystemPrompt
	fieldCount
)

const (
	temperatureStep = 0.1
	maxTokensStep   = 100
)

// SettingsScreen edits a copy of the shared settings. Leaving the screen
// applies the copy and saves it.
type SettingsScreen struct {
	env *screen.Env

	llm         llm.Config
	temperature float64
	maxTokens   int

	apiKey components.TextInput
	prompt textarea.Model

	field int
	err   string
}

var _ screen.Screen = (*SettingsScreen)(nil)
var _ screen.KeyHintProvider = (*SettingsScreen)(nil)

// New creates the settings screen from env.Settings.
func New(env *screen.Env) *SettingsScreen {
	cur := env.Settings

	prompt := textarea.New()
	prompt.SetValue(cur.SystemPrompt)
	prompt.SetHeight(6)
	prompt.ShowLineNumbers = false
	prompt.Blur()

	s := &SettingsScreen{
		env:         env,
		llm:         cur.LLM,
		temperature: cur.Temperature,
		maxTokens:   cur.MaxTokens,
		apiKey:      components.NewSecretInput("API 키", 0),
		prompt:      prompt,
	}
	s.apiKey.Model.SetValue(cur.LLM.APIKey())
	s.setField(fieldProvider)
	return s
}

func (s *SettingsScreen) Init() tea.Cmd {
	return nil
}

func (s *SettingsScreen) Title() string {
	return "설정"
}

func (s *SettingsScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{{Key: "Tab", Description: "Next field"}}
	switch s.field {
	case fieldProvider, fieldModel, fieldTemperature, fieldMaxTokens:
		hints = append(hints, layout.KeyHint{Key: "←→", Description: "Change"})
	}
	return append(hints,
		layout.KeyHint{Key: "Esc", Description: "Save & back"},
		layout.KeyHint{Key: "Ctrl+C", Description: "Quit"},
	)
}

// Settings returns the edited settings.
func (s *SettingsScreen) Settings() chat.Settings {
	cfg := s.llm
	cfg.SetAPIKey(strings.TrimSpace(s.apiKey.Value()))
	return chat.Settings{
		LLM:          cfg,
		SystemPrompt: s.prompt.Value(),
		Temperature:  s.temperature,
		MaxTokens:    s.maxTokens,
	}
}

func (s *SettingsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, s.forward(msg)
	}

	switch kmsg.String() {
	case "esc", "ctrl+s":
		return s, s.save()
	case "tab":
		s.setField((s.field + 1) % fieldCount)
		return s, nil
	case "shift+tab":
		s.setField((s.field + fieldCount - 1) % fieldCount)
		return s, nil
	case "up":
		if s.field != fieldSystemPrompt {
			s.setField((s.field + fieldCount - 1) % fieldCount)
			return s, nil
		}
	case "down":
		if s.field != fieldSystemPrompt {
			s.setField((s.field + 1) % fieldCount)
			return s, nil
		}
	case "left":
		if s.adjust(-1) {
			return s, nil
		}
	case "right":
		if s.adjust(+1) {
			return s, nil
		}
	}

	return s, s.forward(msg)
}

// forward routes a message to the focused text field.
func (s *SettingsScreen) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch s.field {
	case fieldAPIKey:
		s.apiKey, cmd = s.apiKey.Update(msg)
	case fieldSystemPrompt:
		s.prompt, cmd = s.prompt.Update(msg)
	}
	return cmd
}

func (s *SettingsScreen) setField(f int) {
	s.field = f
	if f == fieldAPIKey {
		s.apiKey.Model.Focus()
	} else {
		s.apiKey.Model.Blur()
	}
	if f == fieldSystemPrompt {
		s.prompt.Focus()
	} else {
		s.prompt.Blur()
	}
}

// adjust steps the focused choice or number field. It reports whether the
// field consumed the key.
func (s *SettingsScreen) adjust(dir int) bool {
	switch s.field {
	case fieldProvider:
		s.llm.SetAPIKey(strings.TrimSpace(s.apiKey.Value()))
		s.llm.Provider = cycle(llm.Providers(), s.llm.Provider, dir)
		s.apiKey.Model.SetValue(s.llm.APIKey())
	case fieldModel:
		s.llm.SetModel(cycle(llm.Models(s.llm.Provider), s.llm.Model(), dir))
	case fieldTemperature:
		t := s.temperature + float64(dir)*temperatureStep
		t = math.Round(t*10) / 10
		s.temperature = math.Max(quiz.MinTemperature, math.Min(quiz.MaxTemperature, t))
	case fieldMaxTokens:
		n := s.maxTokens + dir*maxTokensStep
		s.maxTokens = max(quiz.MinMaxTokens, min(quiz.MaxMaxTokens, n))
	default:
		return false
	}
	return true
}

// cycle steps through options from cur. An unknown cur starts at the first
// option.
func cycle(options []string, cur string, dir int) string {
	if len(options) == 0 {
		return cur
	}
	for i, o := range options {
		if o == cur {
			return options[(i+dir+len(options))%len(options)]
		}
	}
	return options[0]
}

// save applies the edits to the shared settings, persists them and goes
// back. A blank system prompt is rejected.
func (s *SettingsScreen) save() tea.Cmd {
	next := s.Settings()
	if strings.TrimSpace(next.SystemPrompt) == "" {
		s.err = "시스템 프롬프트를 입력하세요."
		s.setField(fieldSystemPrompt)
		return nil
	}
	if err := next.RequestConfig().Validate(); err != nil {
		s.err = err.Error()
		return nil
	}

	s.env.Settings = next
	if s.env.SaveSettings != nil {
		if err := s.env.SaveSettings(next); err != nil {
			s.err = fmt.Sprintf("설정을 저장하지 못했습니다: %v", err)
			return nil
		}
	}
	s.err = ""
	return func() tea.Msg { return router.PopScreenMsg{} }
}

func (s *SettingsScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	inner := cw - 6
	s.apiKey.Model.SetWidth(inner - 4)
	s.prompt.SetWidth(inner)

	var b strings.Builder
	b.WriteString(theme.Title.Width(inner).Render("⚙️  설정"))
	b.WriteString("\n\n")

	b.WriteString(s.row(fieldProvider, "Provider", s.llm.Provider))
	b.WriteString(s.label(fieldAPIKey, "API Key") + "\n" + s.apiKey.View() + "\n\n")
	b.WriteString(s.row(fieldModel, "Model", s.llm.Model()))

	temp := components.NewGauge("Temperature", s.temperature, quiz.MinTemperature, quiz.MaxTemperature,
		fmt.Sprintf("%.1f", s.temperature), inner)
	temp.Focused = s.field == fieldTemperature
	b.WriteString(temp.View() + "\n\n")

	tokens := components.NewGauge("Max tokens ", float64(s.maxTokens), quiz.MinMaxTokens, quiz.MaxMaxTokens,
		fmt.Sprintf("%d", s.maxTokens), inner)
	tokens.Focused = s.field == fieldMaxTokens
	b.WriteString(tokens.View() + "\n\n")

	b.WriteString(s.label(fieldSystemPrompt, "System prompt") + "\n" + s.prompt.View())

	if s.err != "" {
		b.WriteString("\n\n" + theme.ErrorText.Width(inner).Render(s.err))
	}

	return components.Center(components.Card(b.String(), cw), width, height)
}

func (s *SettingsScreen) label(f int, text string) string {
	if s.field == f {
		return theme.Focused.Render("▸ " + text)
	}
	return lipgloss.NewStyle().Foreground(theme.TextDim).Render("  " + text)
}

func (s *SettingsScreen) row(f int, name, value string) string {
	v := theme.Body.Render(value)
	if s.field == f {
		v = theme.Selected.Render("◂ " + value + " ▸")
	}
	return s.label(f, name) + "  " + v + "\n\n"
}
