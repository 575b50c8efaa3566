package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/abhisek/quizchat/internal/chat"
	"github.com/abhisek/quizchat/internal/llm"
	"github.com/abhisek/quizchat/internal/quiz"
	"github.com/abhisek/quizchat/internal/store"
)

// Client frame types.
const (
	frameSettings = "settings"
	frameStart    = "start"
	frameSend     = "send"
	frameReset    = "reset"
	frameRetry    = "retry"
)

// Server frame types.
const (
	frameState = "state"
	frameInfo  = "info"
	frameChunk = "chunk"
	frameDone  = "done"
	frameError = "error"
)

const (
	infoSettingsApplied = "설정을 적용했습니다."
	infoNotStarted      = "먼저 연산과 난이도를 고르고 퀴즈를 시작하세요."
	infoAwaitingFirst   = "첫 메시지를 받지 못했습니다. 다시 시도를 눌러 퀴즈를 시작하세요."
)

// clientFrame is a message from the browser. Pointer fields of a settings
// frame are optional; nil leaves the current value.
type clientFrame struct {
	Type string `json:"type"`

	Content string `json:"content,omitempty"`

	Operation  string `json:"operation,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`

	Provider     string   `json:"provider,omitempty"`
	Model        string   `json:"model,omitempty"`
	APIKey       *string  `json:"api_key,omitempty"`
	SystemPrompt *string  `json:"system_prompt,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	MaxTokens    *int     `json:"max_tokens,omitempty"`
}

// serverFrame is a message to the browser.
type serverFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`

	// Pending is unsent learner text handed back after a failed turn.
	Pending string `json:"pending,omitempty"`

	Phase      string         `json:"phase,omitempty"`
	Operation  string         `json:"operation,omitempty"`
	Difficulty string         `json:"difficulty,omitempty"`
	Messages   []quiz.Message `json:"messages,omitempty"`
}

// conn is one browser connection. Frames are handled one at a time, so a
// streamed reply finishes before the next frame is read.
type conn struct {
	srv      *Server
	ws       *websocket.Conn
	session  *quiz.Session
	settings chat.Settings
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Error("ws_accept_failed", "error", err)
		return
	}
	defer ws.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &conn{
		srv:      s,
		ws:       ws,
		session:  quiz.NewSession(),
		settings: s.settings,
	}
	s.logger.Info("ws_session_open", "session", c.session.ID, "remote", r.RemoteAddr)

	err = c.serve(ctx)

	if c.session.Started() {
		s.service.RecordSession(context.WithoutCancel(ctx), c.session, store.ActionEnd)
	}
	switch {
	case err == nil, websocket.CloseStatus(err) != -1, errors.Is(err, context.Canceled), errors.Is(err, io.EOF):
		s.logger.Info("ws_session_close", "session", c.session.ID, "exchanges", len(c.session.Messages())/2)
		ws.Close(websocket.StatusNormalClosure, "")
	default:
		s.logger.Warn("ws_session_close", "session", c.session.ID, "error", err)
		ws.Close(websocket.StatusInternalError, "internal error")
	}
}

func (c *conn) serve(ctx context.Context) error {
	if err := c.writeState(ctx); err != nil {
		return err
	}
	for {
		var f clientFrame
		if err := wsjson.Read(ctx, c.ws, &f); err != nil {
			return err
		}
		if err := c.handle(ctx, f); err != nil {
			return err
		}
	}
}

// handle dispatches one client frame. Only write failures are returned;
// everything else is reported to the client.
func (c *conn) handle(ctx context.Context, f clientFrame) error {
	switch f.Type {
	case frameSettings:
		next, err := applySettings(c.settings, f)
		if err != nil {
			return c.write(ctx, serverFrame{Type: frameError, Content: err.Error()})
		}
		c.settings = next
		return c.write(ctx, serverFrame{Type: frameInfo, Content: infoSettingsApplied})

	case frameStart:
		return c.start(ctx, f)

	case frameSend:
		if strings.TrimSpace(f.Content) == "" {
			return nil
		}
		turn, err := c.session.BeginReply(f.Content)
		switch {
		case errors.Is(err, quiz.ErrNotStarted):
			return c.write(ctx, serverFrame{Type: frameInfo, Content: infoNotStarted, Pending: f.Content})
		case errors.Is(err, quiz.ErrAwaitingFirstReply):
			return c.write(ctx, serverFrame{Type: frameInfo, Content: infoAwaitingFirst, Pending: f.Content})
		case err != nil:
			return c.write(ctx, serverFrame{Type: frameError, Content: err.Error(), Pending: f.Content})
		}
		return c.run(ctx, turn)

	case frameRetry:
		turn, err := c.session.BeginBootstrap()
		if err != nil {
			return c.write(ctx, serverFrame{Type: frameError, Content: err.Error()})
		}
		return c.run(ctx, turn)

	case frameReset:
		if c.session.Started() {
			c.srv.service.RecordSession(ctx, c.session, store.ActionReset)
		}
		c.session.Reset()
		return c.writeState(ctx)

	default:
		return c.write(ctx, serverFrame{Type: frameError, Content: fmt.Sprintf("unknown frame type %q", f.Type)})
	}
}

func (c *conn) start(ctx context.Context, f clientFrame) error {
	op, err := quiz.ParseOperation(f.Operation)
	if err != nil {
		return c.write(ctx, serverFrame{Type: frameError, Content: err.Error()})
	}
	diff, err := quiz.ParseDifficulty(f.Difficulty)
	if err != nil {
		return c.write(ctx, serverFrame{Type: frameError, Content: err.Error()})
	}
	if err := c.session.Select(op, diff); err != nil {
		return c.write(ctx, serverFrame{Type: frameError, Content: err.Error()})
	}
	if err := c.session.Start(); err != nil {
		return c.write(ctx, serverFrame{Type: frameError, Content: err.Error()})
	}
	c.srv.service.RecordSession(ctx, c.session, store.ActionStart)
	if err := c.writeState(ctx); err != nil {
		return err
	}

	turn, err := c.session.BeginBootstrap()
	if err != nil {
		return c.write(ctx, serverFrame{Type: frameError, Content: err.Error()})
	}
	return c.run(ctx, turn)
}

// run streams one turn to the client, forwarding each chunk as it arrives.
func (c *conn) run(ctx context.Context, turn *quiz.Turn) error {
	events, err := c.srv.service.Start(ctx, c.settings, c.session, turn)
	if err != nil {
		c.session.Abort(turn)
		return c.fail(ctx, turn, err)
	}

	for ev := range events {
		done, err := chat.Apply(c.session, turn, ev)
		if ev.Delta != "" {
			if werr := c.write(ctx, serverFrame{Type: frameChunk, Content: ev.Delta}); werr != nil {
				c.session.Abort(turn)
				return werr
			}
		}
		if !done {
			continue
		}
		if err != nil {
			return c.fail(ctx, turn, err)
		}
		if err := c.write(ctx, serverFrame{Type: frameDone, Content: turn.Text()}); err != nil {
			return err
		}
		return c.writeState(ctx)
	}
	return c.fail(ctx, turn, chat.Interrupted(c.session, turn))
}

func (c *conn) fail(ctx context.Context, turn *quiz.Turn, err error) error {
	if errors.Is(err, chat.ErrMissingAPIKey) {
		return c.write(ctx, serverFrame{Type: frameInfo, Content: chat.InfoMissingKey, Pending: turn.UserText()})
	}
	c.srv.logger.Warn("ws_turn_failed", "session", c.session.ID, "bootstrap", turn.Bootstrap(), "error", err)
	return c.write(ctx, serverFrame{Type: frameError, Content: chat.UserMessage(err), Pending: turn.UserText()})
}

func (c *conn) writeState(ctx context.Context) error {
	return c.write(ctx, serverFrame{
		Type:       frameState,
		Phase:      c.session.Phase().String(),
		Operation:  string(c.session.Operation()),
		Difficulty: string(c.session.Difficulty()),
		Messages:   c.session.Transcript(),
	})
}

func (c *conn) write(ctx context.Context, f serverFrame) error {
	return wsjson.Write(ctx, c.ws, f)
}

// applySettings returns cur updated with the fields present in f, or an
// error if the result is not a usable configuration.
func applySettings(cur chat.Settings, f clientFrame) (chat.Settings, error) {
	next := cur
	if f.Provider != "" {
		if llm.Models(f.Provider) == nil {
			return cur, fmt.Errorf("설정이 올바르지 않습니다: unknown provider %q", f.Provider)
		}
		next.LLM.Provider = f.Provider
		if next.LLM.Model() == "" {
			next.LLM.SetModel(llm.Models(f.Provider)[0])
		}
	}
	if f.APIKey != nil {
		next.LLM.SetAPIKey(strings.TrimSpace(*f.APIKey))
	}
	if f.Model != "" {
		if !contains(llm.Models(next.LLM.Provider), f.Model) {
			return cur, fmt.Errorf("설정이 올바르지 않습니다: unknown model %q for %s", f.Model, next.LLM.Provider)
		}
		next.LLM.SetModel(f.Model)
	}
	if f.SystemPrompt != nil {
		if strings.TrimSpace(*f.SystemPrompt) == "" {
			return cur, errors.New("설정이 올바르지 않습니다: system prompt is empty")
		}
		next.SystemPrompt = *f.SystemPrompt
	}
	if f.Temperature != nil {
		next.Temperature = *f.Temperature
	}
	if f.MaxTokens != nil {
		next.MaxTokens = *f.MaxTokens
	}
	if err := next.RequestConfig().Validate(); err != nil {
		return cur, fmt.Errorf("설정이 올바르지 않습니다: %w", err)
	}
	return next, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
