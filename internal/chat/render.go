package chat

import (
	"context"
	"io"

	"github.com/abhisek/quizchat/internal/quiz"
)

// Apply applies one event to turn and reports whether the turn is over.
// A chunk is appended to the turn; a Done event commits the turn to session,
// or aborts it and returns the error when the reply failed.
func Apply(session *quiz.Session, turn *quiz.Turn, ev Event) (bool, error) {
	if ev.Delta != "" {
		turn.Write(ev.Delta)
	}
	if !ev.Done {
		return false, nil
	}
	if ev.Err != nil {
		session.Abort(turn)
		return true, ev.Err
	}
	return true, session.Finalize(turn)
}

// Interrupted aborts a turn whose event channel closed before a Done event,
// which happens when the caller's context ended mid-reply.
func Interrupted(session *quiz.Session, turn *quiz.Turn) error {
	session.Abort(turn)
	return &StreamError{Bootstrap: turn.Bootstrap(), Err: io.ErrUnexpectedEOF}
}

// Render drains events into turn, calling display with the reply so far
// after every chunk. On success the turn is committed to session; on any
// failure it is aborted and session is left as it was before the turn began.
func Render(session *quiz.Session, turn *quiz.Turn, events <-chan Event, display func(partial string)) error {
	for ev := range events {
		done, err := Apply(session, turn, ev)
		if ev.Delta != "" && display != nil {
			display(turn.Text())
		}
		if done {
			return err
		}
	}
	return Interrupted(session, turn)
}

// Exchange runs Start and Render for one turn. On any error the turn is
// aborted, so the caller only needs to report it.
func (s *Service) Exchange(ctx context.Context, settings Settings, session *quiz.Session, turn *quiz.Turn, display func(partial string)) error {
	events, err := s.Start(ctx, settings, session, turn)
	if err != nil {
		session.Abort(turn)
		return err
	}
	return Render(session, turn, events, display)
}
