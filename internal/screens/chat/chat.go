// Package chat is the quiz conversation screen. Replies stream in through a
// tea.Cmd that reads one event at a time from the chat service.
package chat

import (
	"context"
	"errors"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	chatsvc "github.com/abhisek/quizchat/internal/chat"
	"github.com/abhisek/quizchat/internal/quiz"
	"github.com/abhisek/quizchat/internal/router"
	"github.com/abhisek/quizchat/internal/screen"
	"github.com/abhisek/quizchat/internal/store"
	"github.com/abhisek/quizchat/internal/ui/components"
	"github.com/abhisek/quizchat/internal/ui/layout"
	"github.com/abhisek/quizchat/internal/ui/theme"
)

// ChatScreen implements screen.Screen for a running quiz.
type ChatScreen struct {
	env     *screen.Env
	input   components.TextInput
	spinner spinner.Model
	md      *markdown

	// turn is the reply in flight; nil when idle.
	turn   *quiz.Turn
	cancel context.CancelFunc

	info   string
	errMsg string
}

var _ screen.Screen = (*ChatScreen)(nil)
var _ screen.KeyHintProvider = (*ChatScreen)(nil)
var _ screen.BackBlocker = (*ChatScreen)(nil)
var _ screen.Busy = (*ChatScreen)(nil)

// New creates the chat screen for env.Session, which must be started.
func New(env *screen.Env) *ChatScreen {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = theme.BotLabel
	return &ChatScreen{
		env:     env,
		input:   components.NewTextInput("답을 입력하세요...", 0),
		spinner: sp,
		md:      newMarkdown(),
	}
}

// Init sends the bootstrap turn.
func (s *ChatScreen) Init() tea.Cmd {
	return tea.Batch(s.input.Init(), s.bootstrap())
}

func (s *ChatScreen) Title() string {
	return "퀴즈"
}

func (s *ChatScreen) KeyHints() []layout.KeyHint {
	if s.Streaming() {
		return []layout.KeyHint{
			{Key: "", Description: "답변을 받는 중..."},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "Enter", Description: "Send"},
		{Key: "Ctrl+R", Description: "Reset"},
	}
	if s.needsBootstrap() {
		hints = append(hints, layout.KeyHint{Key: "Ctrl+T", Description: "Retry"})
	}
	return append(hints,
		layout.KeyHint{Key: "Ctrl+S", Description: "Settings"},
		layout.KeyHint{Key: "Ctrl+C", Description: "Quit"},
	)
}

// BlocksBack keeps Esc from leaving the conversation; Ctrl+R resets it.
func (s *ChatScreen) BlocksBack() bool { return true }

// Streaming reports whether a reply is in flight.
func (s *ChatScreen) Streaming() bool {
	return s.turn != nil
}

// Busy keeps the settings screen from covering a streaming reply, whose
// events are only delivered to the active screen.
func (s *ChatScreen) Busy() bool { return s.Streaming() }

func (s *ChatScreen) needsBootstrap() bool {
	return s.env.Session.Phase() == quiz.PhaseAwaitingFirstReply && !s.Streaming()
}

func (s *ChatScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case streamOpenedMsg:
		return s.handleOpened(msg)

	case streamEventMsg:
		return s.handleEvent(msg)

	case spinner.TickMsg:
		if !s.Streaming() {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *ChatScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "ctrl+r":
		if s.Streaming() {
			return s, nil
		}
		s.env.Service.RecordSession(s.env.Ctx, s.env.Session, store.ActionReset)
		s.env.Session.Reset()
		return s, func() tea.Msg { return router.PopToRootMsg{} }

	case "ctrl+t":
		if !s.needsBootstrap() {
			return s, nil
		}
		return s, s.bootstrap()

	case "enter":
		if s.Streaming() {
			return s, nil
		}
		return s, s.send()
	}

	if s.Streaming() {
		return s, nil
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// bootstrap opens the first turn of the conversation.
func (s *ChatScreen) bootstrap() tea.Cmd {
	turn, err := s.env.Session.BeginBootstrap()
	if err != nil {
		s.errMsg = err.Error()
		return nil
	}
	return s.open(turn)
}

// send opens a reply turn for the text in the input line.
func (s *ChatScreen) send() tea.Cmd {
	text, ok := s.input.Submitted()
	if !ok {
		return nil
	}
	turn, err := s.env.Session.BeginReply(text)
	if err != nil {
		s.input.Restore(text)
		if errors.Is(err, quiz.ErrAwaitingFirstReply) {
			s.info = "Ctrl+T로 퀴즈를 다시 시작하세요."
			return nil
		}
		s.errMsg = err.Error()
		return nil
	}
	return s.open(turn)
}

// open starts the request for turn off the update loop. The settings are
// copied here, so edits made while the reply streams apply to the next turn.
func (s *ChatScreen) open(turn *quiz.Turn) tea.Cmd {
	ctx, cancel := context.WithCancel(s.env.Ctx)
	s.turn = turn
	s.cancel = cancel
	s.info = ""
	s.errMsg = ""

	svc, settings, sess := s.env.Service, s.env.Settings, s.env.Session
	open := func() tea.Msg {
		events, err := svc.Start(ctx, settings, sess, turn)
		return streamOpenedMsg{turn: turn, events: events, err: err}
	}
	return tea.Batch(open, s.spinner.Tick)
}

func (s *ChatScreen) handleOpened(msg streamOpenedMsg) (screen.Screen, tea.Cmd) {
	if msg.turn != s.turn {
		return s, nil
	}
	if msg.err != nil {
		s.fail(msg.err)
		return s, nil
	}
	return s, waitForEvent(msg.turn, msg.events)
}

func (s *ChatScreen) handleEvent(msg streamEventMsg) (screen.Screen, tea.Cmd) {
	if msg.turn != s.turn {
		return s, nil
	}
	turn := s.turn

	if !msg.ok {
		s.finish()
		s.report(turn, chatsvc.Interrupted(s.env.Session, turn))
		return s, nil
	}

	done, err := chatsvc.Apply(s.env.Session, turn, msg.ev)
	if !done {
		return s, waitFor(msg)
	}
	s.finish()
	if err != nil {
		s.report(turn, err)
	}
	return s, nil
}

// fail reports an error from Start; the turn never produced a chunk.
func (s *ChatScreen) fail(err error) {
	turn := s.turn
	s.env.Session.Abort(turn)
	s.finish()
	s.report(turn, err)
}

func (s *ChatScreen) finish() {
	if s.cancel != nil {
		s.cancel()
	}
	s.turn = nil
	s.cancel = nil
}

// report shows err and gives the unsent learner text back to the input.
func (s *ChatScreen) report(turn *quiz.Turn, err error) {
	if errors.Is(err, chatsvc.ErrMissingAPIKey) {
		s.info = chatsvc.InfoMissingKey
	} else {
		s.errMsg = chatsvc.UserMessage(err)
	}
	if text := turn.UserText(); text != "" && s.input.Value() == "" {
		s.input.Restore(text)
	}
}

func waitForEvent(turn *quiz.Turn, events <-chan chatsvc.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		return streamEventMsg{turn: turn, ev: ev, ok: ok, events: events}
	}
}

func waitFor(prev streamEventMsg) tea.Cmd {
	return waitForEvent(prev.turn, prev.events)
}
