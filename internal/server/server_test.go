package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizchat/internal/chat"
	"github.com/abhisek/quizchat/internal/llm"
	"github.com/abhisek/quizchat/internal/quiz"
)

type testEnv struct {
	server   *httptest.Server
	provider *llm.MockProvider
	builds   atomic.Int32
}

func newTestEnv(t *testing.T, settings chat.Settings, responses ...llm.MockResponse) *testEnv {
	t.Helper()
	env := &testEnv{provider: llm.NewMockProvider(responses...)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := chat.NewService(chat.Options{
		Factory: func(_ context.Context, _ llm.Config) (llm.Provider, error) {
			env.builds.Add(1)
			return env.provider, nil
		},
		Frontend: "web",
		Logger:   logger,
	})
	srv := New(Options{Service: svc, Settings: settings, Logger: logger})
	env.server = httptest.NewServer(srv.Handler())
	t.Cleanup(env.server.Close)
	return env
}

func keyedSettings() chat.Settings {
	s := chat.DefaultSettings()
	s.LLM.SetAPIKey("sk-test")
	return s
}

func (e *testEnv) dial(t *testing.T) (context.Context, *websocket.Conn) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws"
	c, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.CloseNow() })

	first := readFrame(ctx, t, c)
	require.Equal(t, frameState, first.Type)
	require.Equal(t, quiz.PhaseNotStarted.String(), first.Phase)
	return ctx, c
}

func readFrame(ctx context.Context, t *testing.T, c *websocket.Conn) serverFrame {
	t.Helper()
	var f serverFrame
	require.NoError(t, wsjson.Read(ctx, c, &f))
	return f
}

// readUntil collects frames up to and including the first of type typ.
func readUntil(ctx context.Context, t *testing.T, c *websocket.Conn, typ string) []serverFrame {
	t.Helper()
	var frames []serverFrame
	for {
		f := readFrame(ctx, t, c)
		frames = append(frames, f)
		if f.Type == typ {
			return frames
		}
	}
}

func send(ctx context.Context, t *testing.T, c *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, wsjson.Write(ctx, c, v))
}

func chunks(frames []serverFrame) string {
	var b strings.Builder
	for _, f := range frames {
		if f.Type == frameChunk {
			b.WriteString(f.Content)
		}
	}
	return b.String()
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, keyedSettings())

	resp, err := http.Get(env.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOptions(t *testing.T) {
	env := newTestEnv(t, keyedSettings())

	resp, err := http.Get(env.server.URL + "/api/options")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got optionsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))

	require.Len(t, got.Operations, 5)
	require.Len(t, got.Difficulties, 3)
	assert.Equal(t, choice{Key: "add", Label: string(quiz.OpAddition)}, got.Operations[0])
	assert.Equal(t, choice{Key: "hard", Label: string(quiz.DifficultyHard)}, got.Difficulties[2])
	assert.Len(t, got.Providers, len(llm.Providers()))
	assert.True(t, got.Defaults.HasKey)
	assert.Equal(t, quiz.DefaultMaxTokens, got.Defaults.MaxTokens)
}

func TestOptions_DoesNotExposeKey(t *testing.T) {
	env := newTestEnv(t, keyedSettings())

	resp, err := http.Get(env.server.URL + "/api/options")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "sk-test")
}

func TestIndexServed(t *testing.T) {
	env := newTestEnv(t, keyedSettings())

	resp, err := http.Get(env.server.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebSocket_QuizExchange(t *testing.T) {
	env := newTestEnv(t, keyedSettings(),
		llm.MockResponse{Chunks: []string{"안녕! ", "5 + 3 = ?"}},
		llm.MockResponse{Chunks: []string{"정답! ", "다음 문제: 2 + 2 = ?"}},
	)
	ctx, c := env.dial(t)

	send(ctx, t, c, clientFrame{Type: frameStart, Operation: "add", Difficulty: "easy"})

	state := readFrame(ctx, t, c)
	require.Equal(t, frameState, state.Type)
	assert.Equal(t, quiz.PhaseAwaitingFirstReply.String(), state.Phase)
	assert.Equal(t, string(quiz.OpAddition), state.Operation)
	assert.Equal(t, string(quiz.DifficultyEasy), state.Difficulty)

	frames := readUntil(ctx, t, c, frameDone)
	assert.Equal(t, "안녕! 5 + 3 = ?", chunks(frames))
	assert.Equal(t, "안녕! 5 + 3 = ?", frames[len(frames)-1].Content)

	state = readFrame(ctx, t, c)
	assert.Equal(t, quiz.PhaseSteady.String(), state.Phase)
	require.Len(t, state.Messages, 1)
	assert.Equal(t, quiz.RoleAssistant, state.Messages[0].Role)

	send(ctx, t, c, clientFrame{Type: frameSend, Content: "8"})
	frames = readUntil(ctx, t, c, frameDone)
	assert.Equal(t, "정답! 다음 문제: 2 + 2 = ?", chunks(frames))

	state = readFrame(ctx, t, c)
	require.Len(t, state.Messages, 3)
	assert.Equal(t, quiz.UserMessage("8"), state.Messages[1])

	require.Equal(t, 2, env.provider.CallCount())
	second := env.provider.Calls[1]
	last := second.Messages[len(second.Messages)-1]
	assert.Equal(t, llm.RoleUser, last.Role)
	assert.Equal(t, "8", last.Content)
	assert.Contains(t, second.System, string(quiz.OpAddition))
}

func TestWebSocket_MissingKey(t *testing.T) {
	env := newTestEnv(t, chat.DefaultSettings())
	ctx, c := env.dial(t)

	send(ctx, t, c, clientFrame{Type: frameStart, Operation: "mul", Difficulty: "hard"})
	readFrame(ctx, t, c) // state

	f := readFrame(ctx, t, c)
	assert.Equal(t, frameInfo, f.Type)
	assert.Equal(t, chat.InfoMissingKey, f.Content)
	assert.Zero(t, env.builds.Load())
}

func TestWebSocket_SettingsFrameSuppliesKey(t *testing.T) {
	env := newTestEnv(t, chat.DefaultSettings(), llm.MockResponse{Chunks: []string{"hi"}})
	ctx, c := env.dial(t)

	key := "sk-browser"
	send(ctx, t, c, clientFrame{Type: frameSettings, APIKey: &key})
	f := readFrame(ctx, t, c)
	require.Equal(t, frameInfo, f.Type)
	assert.Equal(t, infoSettingsApplied, f.Content)

	send(ctx, t, c, clientFrame{Type: frameStart, Operation: "sub", Difficulty: "normal"})
	readFrame(ctx, t, c) // state
	frames := readUntil(ctx, t, c, frameDone)
	assert.Equal(t, "hi", chunks(frames))
	assert.Equal(t, int32(1), env.builds.Load())
}

func TestWebSocket_InvalidSettingsRejected(t *testing.T) {
	env := newTestEnv(t, keyedSettings())
	ctx, c := env.dial(t)

	temp := 3.5
	send(ctx, t, c, clientFrame{Type: frameSettings, Temperature: &temp})
	f := readFrame(ctx, t, c)
	assert.Equal(t, frameError, f.Type)
	assert.Contains(t, f.Content, "temperature")
}

func TestWebSocket_MidStreamFailureKeepsHistory(t *testing.T) {
	env := newTestEnv(t, keyedSettings(),
		llm.MockResponse{Chunks: []string{"5 + 3 = ?"}},
		llm.MockResponse{Chunks: []string{"정"}, StreamErr: errors.New("connection reset")},
	)
	ctx, c := env.dial(t)

	send(ctx, t, c, clientFrame{Type: frameStart, Operation: "add", Difficulty: "easy"})
	readUntil(ctx, t, c, frameDone)
	readFrame(ctx, t, c) // state

	send(ctx, t, c, clientFrame{Type: frameSend, Content: "8"})
	frames := readUntil(ctx, t, c, frameError)
	failure := frames[len(frames)-1]
	assert.Equal(t, "8", failure.Pending)
	assert.True(t, strings.HasPrefix(failure.Content, "응답 생성 중 오류가 발생했습니다: "), failure.Content)

	send(ctx, t, c, clientFrame{Type: frameReset})
	state := readFrame(ctx, t, c)
	assert.Equal(t, quiz.PhaseNotStarted.String(), state.Phase)
	assert.Empty(t, state.Messages)
	assert.Equal(t, string(quiz.OpAddition), state.Operation)
}

func TestWebSocket_BootstrapFailureThenRetry(t *testing.T) {
	env := newTestEnv(t, keyedSettings(),
		llm.MockResponse{Err: errors.New("boom")},
		llm.MockResponse{Chunks: []string{"다시 안녕!"}},
	)
	ctx, c := env.dial(t)

	send(ctx, t, c, clientFrame{Type: frameStart, Operation: "div", Difficulty: "easy"})
	readFrame(ctx, t, c) // state
	f := readFrame(ctx, t, c)
	require.Equal(t, frameError, f.Type)
	assert.True(t, strings.HasPrefix(f.Content, "초기 메시지 생성 중 오류가 발생했습니다: "), f.Content)
	assert.Empty(t, f.Pending)

	send(ctx, t, c, clientFrame{Type: frameSend, Content: "hello"})
	f = readFrame(ctx, t, c)
	assert.Equal(t, frameInfo, f.Type)
	assert.Equal(t, "hello", f.Pending)

	send(ctx, t, c, clientFrame{Type: frameRetry})
	frames := readUntil(ctx, t, c, frameDone)
	assert.Equal(t, "다시 안녕!", chunks(frames))
}

func TestWebSocket_SendBeforeStart(t *testing.T) {
	env := newTestEnv(t, keyedSettings())
	ctx, c := env.dial(t)

	send(ctx, t, c, clientFrame{Type: frameSend, Content: "8"})
	f := readFrame(ctx, t, c)
	assert.Equal(t, frameInfo, f.Type)
	assert.Equal(t, infoNotStarted, f.Content)
	assert.Equal(t, "8", f.Pending)
}

func TestWebSocket_UnknownSelection(t *testing.T) {
	env := newTestEnv(t, keyedSettings())
	ctx, c := env.dial(t)

	send(ctx, t, c, clientFrame{Type: frameStart, Operation: "pow", Difficulty: "easy"})
	f := readFrame(ctx, t, c)
	assert.Equal(t, frameError, f.Type)
	assert.Contains(t, f.Content, "pow")
}

func TestApplySettings(t *testing.T) {
	base := keyedSettings()

	t.Run("provider switch picks a model", func(t *testing.T) {
		next, err := applySettings(base, clientFrame{Provider: llm.ProviderMock})
		require.NoError(t, err)
		assert.Equal(t, llm.ProviderMock, next.LLM.Provider)
		assert.True(t, next.HasKey())
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := applySettings(base, clientFrame{Provider: "acme"})
		assert.Error(t, err)
	})

	t.Run("unknown model", func(t *testing.T) {
		_, err := applySettings(base, clientFrame{Model: "gpt-99"})
		assert.Error(t, err)
	})

	t.Run("enumerated model", func(t *testing.T) {
		model := llm.Models(base.LLM.Provider)[1]
		next, err := applySettings(base, clientFrame{Model: model})
		require.NoError(t, err)
		assert.Equal(t, model, next.LLM.Model())
	})

	t.Run("blank prompt", func(t *testing.T) {
		blank := "  "
		_, err := applySettings(base, clientFrame{SystemPrompt: &blank})
		assert.Error(t, err)
	})

	t.Run("max tokens range", func(t *testing.T) {
		n := 0
		_, err := applySettings(base, clientFrame{MaxTokens: &n})
		assert.Error(t, err)
		n = 4096
		next, err := applySettings(base, clientFrame{MaxTokens: &n})
		require.NoError(t, err)
		assert.Equal(t, 4096, next.MaxTokens)
	})

	t.Run("invalid input leaves settings untouched", func(t *testing.T) {
		temp := -1.0
		next, err := applySettings(base, clientFrame{Temperature: &temp})
		assert.Error(t, err)
		assert.Equal(t, base, next)
	})
}
