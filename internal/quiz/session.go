package quiz

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNoSelection is returned by Start when no operation or difficulty is set.
	ErrNoSelection = errors.New("quiz: operation and difficulty must be selected")

	// ErrNotStarted is returned when a turn is requested before Start.
	ErrNotStarted = errors.New("quiz: session not started")

	// ErrTurnInFlight is returned when a turn is begun while another is pending.
	ErrTurnInFlight = errors.New("quiz: a turn is already in flight")

	// ErrAwaitingFirstReply is returned by BeginReply while the history is empty.
	ErrAwaitingFirstReply = errors.New("quiz: waiting for the first reply")

	// ErrEmptyMessage is returned by BeginReply for blank user text.
	ErrEmptyMessage = errors.New("quiz: empty message")

	// ErrStaleTurn is returned by Finalize for a turn that is no longer pending,
	// e.g. because the session was reset while it streamed.
	ErrStaleTurn = errors.New("quiz: turn is not pending")
)

// Phase is the lifecycle position of a Session. It is derived from the
// session's fields and never stored.
type Phase int

const (
	PhaseNotStarted         Phase = iota // no selection since the last reset
	PhaseConfigured                      // operation and difficulty chosen
	PhaseAwaitingFirstReply              // started, history empty
	PhaseSteady                          // at least one exchange committed
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseConfigured:
		return "configured"
	case PhaseAwaitingFirstReply:
		return "awaiting_first_reply"
	case PhaseSteady:
		return "steady"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Session holds the conversation state of one learner. It is not safe for
// concurrent use; front ends serialize access and at most one Turn may be
// pending at a time.
type Session struct {
	// ID identifies the session in logs and the usage store.
	ID string

	operation  Operation
	difficulty Difficulty
	configured bool
	started    bool

	messages []Message
	pending  *Turn
}

// NewSession returns an empty session with a fresh ID.
func NewSession() *Session {
	return &Session{ID: uuid.NewString()}
}

// Select records the operation and difficulty. It may be called at any time;
// a started conversation uses the new labels from its next request on.
func (s *Session) Select(op Operation, diff Difficulty) error {
	if !op.Valid() {
		return fmt.Errorf("quiz: unknown operation %q", op)
	}
	if !diff.Valid() {
		return fmt.Errorf("quiz: unknown difficulty %q", diff)
	}
	s.operation = op
	s.difficulty = diff
	s.configured = true
	return nil
}

// Start begins a new conversation with the current selection. Any stored
// history and pending turn are discarded.
func (s *Session) Start() error {
	if !s.operation.Valid() || !s.difficulty.Valid() {
		return ErrNoSelection
	}
	s.messages = nil
	s.pending = nil
	s.configured = true
	s.started = true
	return nil
}

// Reset clears the history and the started flag. The operation and
// difficulty stay available as the pre-selection for the next Start.
func (s *Session) Reset() {
	s.messages = nil
	s.pending = nil
	s.started = false
	s.configured = false
}

// Operation returns the selected operation, or "" if none.
func (s *Session) Operation() Operation { return s.operation }

// Difficulty returns the selected difficulty, or "" if none.
func (s *Session) Difficulty() Difficulty { return s.difficulty }

// Started reports whether a conversation is in progress.
func (s *Session) Started() bool { return s.started }

// Pending reports whether a turn is in flight.
func (s *Session) Pending() bool { return s.pending != nil }

// Messages returns a copy of the committed history.
func (s *Session) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Transcript returns the history as shown to the learner. The synthetic
// bootstrap prompt that opens every conversation is left out.
func (s *Session) Transcript() []Message {
	msgs := s.Messages()
	if len(msgs) > 0 && msgs[0].Role == RoleUser && msgs[0].Content == BootstrapPrompt {
		return msgs[1:]
	}
	return msgs
}

// Phase derives the lifecycle phase from the session's fields.
func (s *Session) Phase() Phase {
	switch {
	case s.started && len(s.messages) > 0:
		return PhaseSteady
	case s.started:
		return PhaseAwaitingFirstReply
	case s.configured:
		return PhaseConfigured
	default:
		return PhaseNotStarted
	}
}

// BeginBootstrap opens the first turn of a started conversation. Its prompt
// is the fixed BootstrapPrompt.
func (s *Session) BeginBootstrap() (*Turn, error) {
	if err := s.canBegin(); err != nil {
		return nil, err
	}
	if len(s.messages) > 0 {
		return nil, fmt.Errorf("quiz: bootstrap after %d messages", len(s.messages))
	}
	s.pending = &Turn{prompt: UserMessage(BootstrapPrompt), bootstrap: true}
	return s.pending, nil
}

// BeginReply opens a turn answering the learner's text. The text is passed
// through untouched.
func (s *Session) BeginReply(text string) (*Turn, error) {
	if err := s.canBegin(); err != nil {
		return nil, err
	}
	if len(s.messages) == 0 {
		return nil, ErrAwaitingFirstReply
	}
	if text == "" {
		return nil, ErrEmptyMessage
	}
	s.pending = &Turn{prompt: UserMessage(text)}
	return s.pending, nil
}

func (s *Session) canBegin() error {
	if !s.started {
		return ErrNotStarted
	}
	if s.pending != nil {
		return ErrTurnInFlight
	}
	return nil
}

// Finalize commits the turn's prompt and accumulated reply to the history
// as one user/assistant pair.
func (s *Session) Finalize(t *Turn) error {
	if t == nil || t != s.pending {
		return ErrStaleTurn
	}
	s.messages = append(s.messages, t.prompt, AssistantMessage(t.Text()))
	s.pending = nil
	return nil
}

// Abort discards the turn. The history is left as it was before the turn
// began. Aborting a turn that is not pending is a no-op.
func (s *Session) Abort(t *Turn) {
	if t != nil && t == s.pending {
		s.pending = nil
	}
}
