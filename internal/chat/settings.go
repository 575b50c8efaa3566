package chat

import (
	"strings"

	"github.com/abhisek/quizchat/internal/llm"
	"github.com/abhisek/quizchat/internal/quiz"
)

// Settings is the configuration surface: provider credentials plus the
// generation parameters. Front ends pass a copy to Start, so edits made
// while a reply streams only affect the next request.
type Settings struct {
	LLM          llm.Config
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		LLM:          llm.DefaultConfig(),
		SystemPrompt: quiz.DefaultSystemPrompt,
		Temperature:  quiz.DefaultTemperature,
		MaxTokens:    quiz.DefaultMaxTokens,
	}
}

// HasKey reports whether a request may be attempted.
func (s Settings) HasKey() bool {
	return !s.LLM.RequiresKey() || strings.TrimSpace(s.LLM.APIKey()) != ""
}

// RequestConfig snapshots the generation parameters.
func (s Settings) RequestConfig() quiz.RequestConfig {
	return quiz.RequestConfig{
		Model:        s.LLM.Model(),
		SystemPrompt: s.SystemPrompt,
		Temperature:  s.Temperature,
		MaxTokens:    s.MaxTokens,
	}
}
