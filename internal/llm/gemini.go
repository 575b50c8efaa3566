package llm

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"google.golang.org/genai"
)

// geminiModels maps friendly names to Gemini model IDs.
var geminiModels = map[string]string{
	"gemini-flash": "gemini-2.0-flash",
	"gemini-pro":   "gemini-2.5-pro",
}

// geminiModelsClient is the subset of genai.Models the provider calls.
type geminiModelsClient interface {
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// GeminiProvider implements Provider using the Google Gemini SDK.
type GeminiProvider struct {
	models geminiModelsClient
	model  string
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiProvider{
		models: client.Models,
		model:  resolveModel(cfg.Model, geminiModels),
	}, nil
}

func (p *GeminiProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	contents := buildGeminiContents(req.Messages)
	if len(contents) == 0 {
		return nil, fmt.Errorf("gemini: at least one message is required")
	}

	// The iterator only issues the request when ranged over, so the cancel
	// func lets Close stop a reply that is still being produced.
	streamCtx, cancel := context.WithCancel(ctx)
	seq := p.models.GenerateContentStream(streamCtx, p.model, contents, config)
	return newGeminiStream(seq, cancel), nil
}

func (p *GeminiProvider) ModelID() string {
	return p.model
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

func buildGeminiContents(msgs []Message) []*genai.Content {
	out := make([]*genai.Content, len(msgs))
	for i, m := range msgs {
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		out[i] = &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		}
	}
	return out
}

type geminiEvent struct {
	delta string
	usage *genai.GenerateContentResponseUsageMetadata
	err   error
}

type geminiStream struct {
	events  chan geminiEvent
	cancel  context.CancelFunc
	current string
	usage   Usage
	err     error
	done    bool
}

func newGeminiStream(seq iter.Seq2[*genai.GenerateContentResponse, error], cancel context.CancelFunc) *geminiStream {
	s := &geminiStream{
		events: make(chan geminiEvent, 32),
		cancel: cancel,
	}
	go func() {
		defer close(s.events)
		for resp, err := range seq {
			if err != nil {
				s.events <- geminiEvent{err: err}
				return
			}
			if resp.UsageMetadata != nil {
				s.events <- geminiEvent{usage: resp.UsageMetadata}
			}
			if text := visibleText(resp); text != "" {
				s.events <- geminiEvent{delta: text}
			}
		}
	}()
	return s
}

func (s *geminiStream) Next() bool {
	if s.done {
		return false
	}
	for ev := range s.events {
		switch {
		case ev.err != nil:
			s.err = mapGeminiError(ev.err)
			s.done = true
			return false
		case ev.usage != nil:
			s.usage = Usage{
				InputTokens:  int(ev.usage.PromptTokenCount),
				OutputTokens: int(ev.usage.CandidatesTokenCount),
				TotalTokens:  int(ev.usage.TotalTokenCount),
			}
		case ev.delta != "":
			s.current = ev.delta
			return true
		}
	}
	s.done = true
	return false
}

func (s *geminiStream) Content() string { return s.current }
func (s *geminiStream) Err() error      { return s.err }
func (s *geminiStream) Usage() Usage    { return s.usage }

func (s *geminiStream) Close() error {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if !s.done {
		for range s.events {
		}
		s.done = true
	}
	return nil
}

func visibleText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

func mapGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return classifyStatus(apiErrPtr.Code, err)
	}
	return &ErrProviderUnavailable{Err: err}
}
