package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	chatsvc "github.com/abhisek/quizchat/internal/chat"
	"github.com/abhisek/quizchat/internal/llm"
	"github.com/abhisek/quizchat/internal/quiz"
	"github.com/abhisek/quizchat/internal/router"
	"github.com/abhisek/quizchat/internal/screen"
)

type testFactory struct {
	provider *llm.MockProvider
	calls    int
}

func (f *testFactory) build(context.Context, llm.Config) (llm.Provider, error) {
	f.calls++
	return f.provider, nil
}

func testEnv(t *testing.T, responses ...llm.MockResponse) (*screen.Env, *testFactory) {
	t.Helper()
	f := &testFactory{provider: llm.NewMockProvider(responses...)}
	svc := chatsvc.NewService(chatsvc.Options{
		Factory: f.build,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	settings := chatsvc.DefaultSettings()
	settings.LLM.SetAPIKey("sk-test")

	env := screen.NewEnv(context.Background(), svc, settings)
	if err := env.Session.Select(quiz.OpAddition, quiz.DifficultyEasy); err != nil {
		t.Fatal(err)
	}
	if err := env.Session.Start(); err != nil {
		t.Fatal(err)
	}
	return env, f
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func ctrlKey(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Mod: tea.ModCtrl}
}

// drive runs cmd and feeds stream messages back into the screen until the
// reply is over. Other messages (spinner ticks) are dropped.
func drive(t *testing.T, s *ChatScreen, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 1000 {
			t.Fatal("stream did not finish")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case streamOpenedMsg, streamEventMsg:
			_, next := s.Update(msg)
			queue = append(queue, next)
		}
	}
}

func TestChatScreen_Title(t *testing.T) {
	env, _ := testEnv(t)
	if New(env).Title() != "퀴즈" {
		t.Error("unexpected title")
	}
}

func TestChatScreen_BootstrapStreamsFirstQuestion(t *testing.T) {
	env, f := testEnv(t, llm.MockResponse{Chunks: []string{"5 + 3 ", "= ?"}})
	s := New(env)

	drive(t, s, s.bootstrap())

	if s.Streaming() {
		t.Fatal("still streaming after Done")
	}
	msgs := env.Session.Messages()
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	if msgs[0] != quiz.UserMessage(quiz.BootstrapPrompt) {
		t.Errorf("msgs[0] = %+v", msgs[0])
	}
	if msgs[1].Content != "5 + 3 = ?" {
		t.Errorf("reply = %q", msgs[1].Content)
	}
	if f.calls != 1 {
		t.Errorf("factory calls = %d, want 1", f.calls)
	}
	if env.Session.Phase() != quiz.PhaseSteady {
		t.Errorf("phase = %v, want steady", env.Session.Phase())
	}
	if !strings.Contains(s.View(80, 24), "5 + 3") {
		t.Error("reply missing from view")
	}
}

func TestChatScreen_MissingKeyShowsInfo(t *testing.T) {
	env, f := testEnv(t)
	env.Settings.LLM.SetAPIKey("")
	s := New(env)

	drive(t, s, s.bootstrap())

	if s.info != chatsvc.InfoMissingKey {
		t.Errorf("info = %q", s.info)
	}
	if s.errMsg != "" {
		t.Errorf("unexpected error message %q", s.errMsg)
	}
	if f.calls != 0 {
		t.Errorf("factory calls = %d, want 0", f.calls)
	}
	if len(env.Session.Messages()) != 0 {
		t.Error("history changed")
	}

	var retry bool
	for _, h := range s.KeyHints() {
		if h.Key == "Ctrl+T" {
			retry = true
		}
	}
	if !retry {
		t.Error("expected Ctrl+T hint after failed bootstrap")
	}
}

func TestChatScreen_RetryBootstrapAfterKeyEntered(t *testing.T) {
	env, f := testEnv(t, llm.MockResponse{Chunks: []string{"안녕!"}})
	env.Settings.LLM.SetAPIKey("")
	s := New(env)
	drive(t, s, s.bootstrap())

	env.Settings.LLM.SetAPIKey("sk-now")
	_, cmd := s.Update(ctrlKey('t'))
	drive(t, s, cmd)

	if f.calls != 1 {
		t.Errorf("factory calls = %d, want 1", f.calls)
	}
	if len(env.Session.Messages()) != 2 {
		t.Errorf("messages = %d, want 2", len(env.Session.Messages()))
	}
	if s.info != "" {
		t.Errorf("info not cleared: %q", s.info)
	}
}

func TestChatScreen_SendReplyVerbatim(t *testing.T) {
	env, f := testEnv(t,
		llm.MockResponse{Chunks: []string{"5 + 3 = ?"}},
		llm.MockResponse{Chunks: []string{"정답! 🎉"}},
	)
	s := New(env)
	drive(t, s, s.bootstrap())

	s.input.Model.SetValue("8")
	_, cmd := s.Update(specialKey(tea.KeyEnter))
	drive(t, s, cmd)

	msgs := env.Session.Messages()
	if len(msgs) != 4 {
		t.Fatalf("messages = %d, want 4", len(msgs))
	}
	if msgs[2] != quiz.UserMessage("8") {
		t.Errorf("msgs[2] = %+v, want user \"8\"", msgs[2])
	}
	if s.input.Value() != "" {
		t.Errorf("input not cleared: %q", s.input.Value())
	}

	last := f.provider.Calls[len(f.provider.Calls)-1]
	if got := last.Messages[len(last.Messages)-1].Content; got != "8" {
		t.Errorf("last request message = %q, want 8", got)
	}
}

func TestChatScreen_MidStreamFailureKeepsHistory(t *testing.T) {
	env, _ := testEnv(t,
		llm.MockResponse{Chunks: []string{"5 + 3 = ?"}},
		llm.MockResponse{Chunks: []string{"정"}, StreamErr: errors.New("connection reset")},
	)
	s := New(env)
	drive(t, s, s.bootstrap())
	before := env.Session.Messages()

	s.input.Model.SetValue("8")
	_, cmd := s.Update(specialKey(tea.KeyEnter))
	drive(t, s, cmd)

	if got := env.Session.Messages(); len(got) != len(before) {
		t.Fatalf("messages = %d, want %d", len(got), len(before))
	}
	if !strings.HasPrefix(s.errMsg, "응답 생성 중 오류가 발생했습니다") {
		t.Errorf("errMsg = %q", s.errMsg)
	}
	if s.input.Value() != "8" {
		t.Errorf("input = %q, want unsent text restored", s.input.Value())
	}
	if env.Session.Pending() {
		t.Error("turn still pending")
	}
}

func TestChatScreen_BootstrapFailureWording(t *testing.T) {
	env, _ := testEnv(t, llm.MockResponse{Err: errors.New("boom")})
	s := New(env)
	drive(t, s, s.bootstrap())

	if !strings.HasPrefix(s.errMsg, "초기 메시지 생성 중 오류가 발생했습니다") {
		t.Errorf("errMsg = %q", s.errMsg)
	}
	if env.Session.Phase() != quiz.PhaseAwaitingFirstReply {
		t.Errorf("phase = %v", env.Session.Phase())
	}
}

func TestChatScreen_EnterIgnoredWhileStreaming(t *testing.T) {
	env, _ := testEnv(t, llm.MockResponse{Chunks: []string{"hi"}})
	s := New(env)
	s.bootstrap() // opened but not driven

	s.input.Model.SetValue("8")
	_, cmd := s.Update(specialKey(tea.KeyEnter))
	if cmd != nil {
		t.Error("expected no command while streaming")
	}
	if s.input.Value() != "8" {
		t.Error("input consumed while streaming")
	}
}

func TestChatScreen_ResetReturnsToSetup(t *testing.T) {
	env, _ := testEnv(t, llm.MockResponse{Chunks: []string{"hi"}})
	s := New(env)
	drive(t, s, s.bootstrap())

	_, cmd := s.Update(ctrlKey('r'))
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(router.PopToRootMsg); !ok {
		t.Error("expected PopToRootMsg")
	}
	if env.Session.Phase() != quiz.PhaseNotStarted {
		t.Errorf("phase = %v, want not started", env.Session.Phase())
	}
	if env.Session.Operation() != quiz.OpAddition {
		t.Error("selection not retained")
	}
}

func TestChatScreen_BlocksBack(t *testing.T) {
	env, _ := testEnv(t)
	var scr screen.Screen = New(env)
	if b, ok := scr.(screen.BackBlocker); !ok || !b.BlocksBack() {
		t.Error("chat screen should block Esc")
	}
}
