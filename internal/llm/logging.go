package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/abhisek/quizchat/internal/store"
)

// LoggingProvider is a decorator that records every streamed request as a
// usage event once its stream finishes. Message contents are not recorded.
type LoggingProvider struct {
	inner     Provider
	eventRepo store.EventRepo
}

// WithLogging wraps a Provider with usage event logging.
func WithLogging(p Provider, repo store.EventRepo) Provider {
	return &LoggingProvider{inner: p, eventRepo: repo}
}

func (l *LoggingProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	rec := &usageRecorder{
		repo:  l.eventRepo,
		start: time.Now(),
		data: store.LLMRequestEventData{
			SessionID: SessionIDFrom(ctx),
			Provider:  l.inner.Name(),
			Model:     l.inner.ModelID(),
			Purpose:   PurposeFrom(ctx),
		},
	}

	s, err := l.inner.Stream(ctx, req)
	if err != nil {
		rec.finish(ctx, Usage{}, err)
		return nil, err
	}
	return &loggingStream{Stream: s, rec: rec, ctx: ctx}, nil
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

func (l *LoggingProvider) Name() string {
	return l.inner.Name()
}

type loggingStream struct {
	Stream
	rec *usageRecorder
	ctx context.Context
}

func (s *loggingStream) Next() bool {
	if s.Stream.Next() {
		return true
	}
	s.rec.finish(s.ctx, s.Stream.Usage(), s.Stream.Err())
	return false
}

func (s *loggingStream) Close() error {
	err := s.Stream.Close()
	// A stream closed before its end counts as cancelled.
	s.rec.finish(s.ctx, s.Stream.Usage(), context.Canceled)
	return err
}

type usageRecorder struct {
	repo  store.EventRepo
	start time.Time
	data  store.LLMRequestEventData
	done  bool
}

// finish writes the event the first time it is called.
func (r *usageRecorder) finish(ctx context.Context, u Usage, err error) {
	if r.done {
		return
	}
	r.done = true

	r.data.LatencyMs = time.Since(r.start).Milliseconds()
	r.data.InputTokens = u.InputTokens
	r.data.OutputTokens = u.OutputTokens
	r.data.Success = err == nil
	if err != nil {
		r.data.ErrorMessage = err.Error()
	}

	// The request context may already be cancelled; the event still belongs
	// in the log.
	if logErr := r.repo.AppendLLMRequest(context.WithoutCancel(ctx), r.data); logErr != nil {
		slog.Warn("llm_usage_log_failed", "error", logErr)
	}
}
