package quiz

import "strings"

// Turn is one in-flight exchange: the user prompt being answered and the
// reply text received so far. A Turn is created by Session.BeginBootstrap or
// Session.BeginReply and ends with Session.Finalize or Session.Abort.
type Turn struct {
	prompt    Message
	bootstrap bool
	reply     strings.Builder
	chunks    int
}

// Write appends a streamed chunk to the reply.
func (t *Turn) Write(chunk string) {
	t.reply.WriteString(chunk)
	t.chunks++
}

// Text returns the reply accumulated so far.
func (t *Turn) Text() string { return t.reply.String() }

// Chunks returns the number of chunks written.
func (t *Turn) Chunks() int { return t.chunks }

// Prompt returns the user message this turn answers.
func (t *Turn) Prompt() Message { return t.prompt }

// Bootstrap reports whether the prompt is the synthetic opening message.
func (t *Turn) Bootstrap() bool { return t.bootstrap }

// UserText returns the learner's own text, or "" for a bootstrap turn.
// Front ends put it back into the input after a failure.
func (t *Turn) UserText() string {
	if t.bootstrap {
		return ""
	}
	return t.prompt.Content
}
