package llm

import (
	"context"
	"sync"
)

// MockResponse is a canned streamed reply for the MockProvider.
type MockResponse struct {
	// Chunks are yielded in order by the stream.
	Chunks []string
	Usage  Usage

	// Err fails the request before any chunk is produced.
	Err error

	// StreamErr ends the stream with an error after all Chunks.
	StreamErr error
}

// DemoResponse is the reply used by the "mock" provider when no canned
// responses are queued, so the app can be tried without an API key.
var DemoResponse = MockResponse{
	Chunks: []string{"안녕! 만나서 반가워! 🎉 ", "첫 번째 문제야: ", "**5 + 3 = ?**"},
}

// MockProvider is a deterministic Provider for testing.
// It returns canned responses in FIFO order and records all requests.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request

	// Fallback is used once the queue is empty. When nil, an empty queue
	// returns ErrProviderUnavailable.
	Fallback *MockResponse
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// Stream returns the next canned response as a stream.
func (m *MockProvider) Stream(_ context.Context, req Request) (Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	var resp MockResponse
	switch {
	case len(m.responses) > 0:
		resp = m.responses[0]
		m.responses = m.responses[1:]
	case m.Fallback != nil:
		resp = *m.Fallback
	default:
		return nil, &ErrProviderUnavailable{Err: nil}
	}

	if resp.Err != nil {
		return nil, resp.Err
	}
	return &mockStream{resp: resp, pos: -1}, nil
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// Name returns "mock".
func (m *MockProvider) Name() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Stream calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

type mockStream struct {
	resp   MockResponse
	pos    int
	err    error
	closed bool
}

func (s *mockStream) Next() bool {
	if s.closed || s.err != nil {
		return false
	}
	for s.pos+1 < len(s.resp.Chunks) {
		s.pos++
		if s.resp.Chunks[s.pos] != "" {
			return true
		}
	}
	s.pos = len(s.resp.Chunks)
	s.err = s.resp.StreamErr
	return false
}

func (s *mockStream) Content() string {
	if s.pos < 0 || s.pos >= len(s.resp.Chunks) {
		return ""
	}
	return s.resp.Chunks[s.pos]
}

func (s *mockStream) Err() error   { return s.err }
func (s *mockStream) Usage() Usage { return s.resp.Usage }

func (s *mockStream) Close() error {
	s.closed = true
	return nil
}
