// Package chat runs one streamed completion per quiz turn and applies the
// result to the session: chunks are accumulated on the turn, which is then
// committed on success or discarded on failure.
package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/abhisek/quizchat/internal/llm"
	"github.com/abhisek/quizchat/internal/quiz"
	"github.com/abhisek/quizchat/internal/store"
)

// Event is one step of a streamed reply. The last event has Done set; Err
// is set on it when the reply failed.
type Event struct {
	Delta string
	Err   error
	Done  bool
}

// ProviderFactory builds a provider from the current settings. It is called
// once per request so settings edits take effect on the next turn.
type ProviderFactory func(ctx context.Context, cfg llm.Config) (llm.Provider, error)

// Options configures a Service.
type Options struct {
	// Factory defaults to llm.NewProvider, logging usage to Events.
	Factory ProviderFactory

	// Events, when set, receives usage and session lifecycle events.
	Events store.EventRepo

	// Frontend labels session events ("tui", "web").
	Frontend string

	Logger *slog.Logger
}

// Service starts streamed replies.
type Service struct {
	factory  ProviderFactory
	events   store.EventRepo
	frontend string
	logger   *slog.Logger
}

// NewService creates a Service.
func NewService(opts Options) *Service {
	s := &Service{
		factory:  opts.Factory,
		events:   opts.Events,
		frontend: opts.Frontend,
		logger:   opts.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.factory == nil {
		events := opts.Events
		s.factory = func(ctx context.Context, cfg llm.Config) (llm.Provider, error) {
			return llm.NewProvider(ctx, cfg, events)
		}
	}
	return s
}

// Start opens a streamed reply for turn. The returned channel yields the
// reply chunks and ends with a Done event; it is closed afterwards.
//
// Errors returned directly leave nothing to clean up besides aborting the
// turn: ErrMissingAPIKey when no key is set (no provider is built),
// *SetupError for invalid settings or provider construction failures and
// *RequestError when the request could not be opened.
func (s *Service) Start(ctx context.Context, settings Settings, session *quiz.Session, turn *quiz.Turn) (<-chan Event, error) {
	if !settings.HasKey() {
		s.logger.Info("chat_stream_missing_key", "session", session.ID, "provider", settings.LLM.Provider)
		return nil, ErrMissingAPIKey
	}

	rc := settings.RequestConfig()
	if err := rc.Validate(); err != nil {
		return nil, &SetupError{Err: err}
	}

	provider, err := s.factory(ctx, settings.LLM)
	if err != nil {
		s.logger.Error("chat_stream_provider_error", "session", session.ID, "provider", settings.LLM.Provider, "error", err)
		return nil, &SetupError{Err: err}
	}

	req := buildRequest(quiz.Compose(rc.SystemPrompt, session, turn), rc)
	purpose := llm.PurposeReply
	if turn.Bootstrap() {
		purpose = llm.PurposeBootstrap
	}

	reqCtx := llm.WithSessionID(llm.WithPurpose(ctx, purpose), session.ID)
	cancel := context.CancelFunc(func() {})
	if settings.LLM.Timeout > 0 {
		reqCtx, cancel = context.WithTimeout(reqCtx, settings.LLM.Timeout)
	}

	s.logger.Info("chat_stream_start",
		"session", session.ID,
		"purpose", purpose,
		"provider", provider.Name(),
		"model", provider.ModelID(),
		"message_count", len(req.Messages)+1,
	)

	stream, err := provider.Stream(reqCtx, req)
	if err != nil {
		cancel()
		s.logger.Error("chat_stream_create_error", "session", session.ID, "error", err)
		return nil, &RequestError{Bootstrap: turn.Bootstrap(), Err: err}
	}

	ch := make(chan Event, 8)
	go s.pump(ctx, stream, cancel, ch, session.ID, turn.Bootstrap())
	return ch, nil
}

// pump forwards stream chunks to ch. Sends give up when ctx, the caller's
// context, is done; the request context may expire first and its error is
// still delivered.
func (s *Service) pump(ctx context.Context, stream llm.Stream, cancel context.CancelFunc, ch chan<- Event, sessionID string, bootstrap bool) {
	defer close(ch)
	defer cancel()
	defer stream.Close()

	start := time.Now()
	send := func(ev Event) bool {
		select {
		case ch <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	chunks := 0
	for stream.Next() {
		chunks++
		if !send(Event{Delta: stream.Content()}) {
			s.logger.Info("chat_stream_abandoned", "session", sessionID, "chunks", chunks)
			return
		}
	}

	if err := stream.Err(); err != nil {
		s.logger.Error("chat_stream_error", "session", sessionID, "chunks", chunks, "error", err)
		send(Event{Err: &StreamError{Bootstrap: bootstrap, Err: err}, Done: true})
		return
	}

	usage := stream.Usage()
	s.logger.Info("chat_stream_done",
		"session", sessionID,
		"chunks", chunks,
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	send(Event{Done: true})
}

func buildRequest(msgs []quiz.Message, rc quiz.RequestConfig) llm.Request {
	req := llm.Request{
		MaxTokens:   rc.MaxTokens,
		Temperature: rc.Temperature,
		Messages:    make([]llm.Message, 0, len(msgs)),
	}
	for _, m := range msgs {
		switch m.Role {
		case quiz.RoleSystem:
			req.System = m.Content
		case quiz.RoleAssistant:
			req.Messages = append(req.Messages, llm.Message{Role: llm.RoleAssistant, Content: m.Content})
		default:
			req.Messages = append(req.Messages, llm.Message{Role: llm.RoleUser, Content: m.Content})
		}
	}
	return req
}

// RecordSession appends a lifecycle event to the usage log, if enabled.
func (s *Service) RecordSession(ctx context.Context, session *quiz.Session, action string) {
	if s.events == nil {
		return
	}
	err := s.events.AppendSessionEvent(ctx, store.SessionEventData{
		SessionID:  session.ID,
		Action:     action,
		Operation:  session.Operation().Key(),
		Difficulty: session.Difficulty().Key(),
		Exchanges:  len(session.Messages()) / 2,
		Frontend:   s.frontend,
	})
	if err != nil {
		s.logger.Warn("session_event_log_failed", "session", session.ID, "action", action, "error", err)
	}
}
