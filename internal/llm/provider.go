package llm

import (
	"context"
	"strings"
)

// Provider is the core abstraction for LLM interaction.
// Consumers open one streamed completion per request.
type Provider interface {
	// Stream sends the conversation to the LLM and returns the reply as a
	// lazy, finite sequence of text chunks. An error here means the request
	// could not be opened; failures after that surface through Stream.Err.
	Stream(ctx context.Context, req Request) (Stream, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string

	// Name returns the provider name ("openai", "anthropic", ...).
	Name() string
}

// Stream is a single-consumer, non-restartable sequence of reply chunks.
//
//	for s.Next() {
//		fmt.Print(s.Content())
//	}
//	if err := s.Err(); err != nil { ... }
//
// Close must be called once the caller is done, even after an error.
type Stream interface {
	// Next advances to the next non-empty chunk. It returns false at the end
	// of the reply or on error.
	Next() bool

	// Content returns the chunk Next advanced to.
	Content() string

	// Err returns the terminal error, if any.
	Err() error

	// Close releases the underlying connection.
	Close() error

	// Usage reports token consumption. Only complete after Next returned false,
	// and zero when the provider does not report usage.
	Usage() Usage
}

// Request describes what to send to the LLM.
type Request struct {
	// System is the system prompt. Sets the LLM's role and constraints.
	System string

	// Messages is the conversation history, oldest first, ending with the
	// user turn being answered.
	Messages []Message

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 2.0.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Collect drains s and returns the concatenated reply. The stream is closed.
func Collect(s Stream) (string, error) {
	defer s.Close()

	var b strings.Builder
	for s.Next() {
		b.WriteString(s.Content())
	}
	return b.String(), s.Err()
}
