// Package setup is the first screen: the learner picks an operation and a
// difficulty and starts the quiz.
package setup

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizchat/internal/quiz"
	"github.com/abhisek/quizchat/internal/router"
	"github.com/abhisek/quizchat/internal/screen"
	"github.com/abhisek/quizchat/internal/screens/chat"
	"github.com/abhisek/quizchat/internal/store"
	"github.com/abhisek/quizchat/internal/ui/components"
	"github.com/abhisek/quizchat/internal/ui/layout"
	"github.com/abhisek/quizchat/internal/ui/theme"
)

const (
	focusOperation = iota
	focusDifficulty
	focusStart
	focusCount
)

// SetupScreen picks the quiz selection.
type SetupScreen struct {
	env   *screen.Env
	ops   components.Choice
	diffs components.Choice
	start components.Button
	focus int
	err   string
}

var _ screen.Screen = (*SetupScreen)(nil)
var _ screen.KeyHintProvider = (*SetupScreen)(nil)

// New creates the setup screen. A selection retained by the session (after
// a reset) is pre-selected.
func New(env *screen.Env) *SetupScreen {
	opLabels := make([]string, 0, len(quiz.Operations()))
	opSel := 0
	for i, op := range quiz.Operations() {
		opLabels = append(opLabels, string(op))
		if op == env.Session.Operation() {
			opSel = i
		}
	}
	diffLabels := make([]string, 0, len(quiz.Difficulties()))
	diffSel := 0
	for i, d := range quiz.Difficulties() {
		diffLabels = append(diffLabels, string(d))
		if d == env.Session.Difficulty() {
			diffSel = i
		}
	}

	s := &SetupScreen{
		env:   env,
		ops:   components.NewChoice("연산 유형", opLabels, opSel),
		diffs: components.NewChoice("난이도", diffLabels, diffSel),
	}
	s.start = components.NewButton("퀴즈 시작", false, s.startQuiz)
	s.setFocus(focusOperation)
	return s
}

func (s *SetupScreen) Init() tea.Cmd {
	return nil
}

func (s *SetupScreen) Title() string {
	return "퀴즈 설정"
}

func (s *SetupScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Choose"},
		{Key: "Tab", Description: "Next"},
		{Key: "Enter", Description: "Start"},
		{Key: "Ctrl+S", Description: "Settings"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *SetupScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	switch kmsg.String() {
	case "tab", "right":
		s.setFocus((s.focus + 1) % focusCount)
		return s, nil
	case "shift+tab", "left":
		s.setFocus((s.focus + focusCount - 1) % focusCount)
		return s, nil
	case "enter":
		if s.focus != focusStart {
			return s, s.startQuiz()
		}
	}

	var cmd tea.Cmd
	switch s.focus {
	case focusOperation:
		s.ops, cmd = s.ops.Update(msg)
	case focusDifficulty:
		s.diffs, cmd = s.diffs.Update(msg)
	case focusStart:
		s.start, cmd = s.start.Update(msg)
	}
	return s, cmd
}

func (s *SetupScreen) setFocus(f int) {
	s.focus = f
	s.ops.Focused = f == focusOperation
	s.diffs.Focused = f == focusDifficulty
	s.start.Active = f == focusStart
}

// startQuiz records the selection, starts a fresh conversation and opens
// the chat screen, which sends the bootstrap turn.
func (s *SetupScreen) startQuiz() tea.Cmd {
	op := quiz.Operation(s.ops.Value())
	diff := quiz.Difficulty(s.diffs.Value())

	sess := s.env.Session
	if err := sess.Select(op, diff); err != nil {
		s.err = err.Error()
		return nil
	}
	if err := sess.Start(); err != nil {
		s.err = err.Error()
		return nil
	}
	s.err = ""
	s.env.Service.RecordSession(s.env.Ctx, sess, store.ActionStart)

	return func() tea.Msg {
		return router.PushScreenMsg{Screen: chat.New(s.env)}
	}
}

func (s *SetupScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var b strings.Builder
	b.WriteString(theme.Title.Width(cw - 6).Render("🧮 사칙연산 퀴즈"))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Width(cw - 6).Render("연산과 난이도를 고르고 퀴즈를 시작하세요!"))
	b.WriteString("\n\n")

	columns := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width((cw-6)/2).Render(s.ops.View()),
		lipgloss.NewStyle().Width((cw-6)/2).Render(s.diffs.View()),
	)
	b.WriteString(columns)
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Width(cw - 6).Align(lipgloss.Center).Render(s.start.View()))

	if !s.env.Settings.HasKey() {
		b.WriteString("\n\n")
		b.WriteString(theme.Info.Render("Ctrl+S: API 키와 모델을 먼저 설정하세요."))
	}
	if s.err != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.ErrorText.Render(s.err))
	}

	return components.Center(components.Card(b.String(), cw), width, height)
}
