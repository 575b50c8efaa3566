package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// providerModels enumerates the models offered per provider, first = default.
var providerModels = map[string][]string{
	ProviderOpenAI:     {"gpt-4o", "gpt-4-turbo", "gpt-4", "gpt-3.5-turbo"},
	ProviderAnthropic:  {"claude-haiku-4-5-20251001", "claude-sonnet-4-20250514"},
	ProviderGemini:     {"gemini-2.0-flash", "gemini-2.5-flash", "gemini-2.5-pro"},
	ProviderOpenRouter: {"openai/gpt-4o", "anthropic/claude-3-haiku", "google/gemini-2.0-flash-exp"},
	ProviderMock:       {"mock"},
}

// Providers returns the provider names in display order.
func Providers() []string {
	return []string{ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOpenRouter, ProviderMock}
}

// Models returns the enumerated models of a provider, or nil if unknown.
func Models(provider string) []string {
	ms, ok := providerModels[provider]
	if !ok {
		return nil
	}
	out := make([]string, len(ms))
	copy(out, ms)
	return out
}

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "openai", "anthropic", "gemini", "openrouter", "mock"
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig

	// Timeout bounds a single streamed request, including reading the reply.
	// Zero leaves it to the transport.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey  string
	Model   string // Default: "claude-haiku-4-5-20251001"
	BaseURL string // Optional.
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o"
	BaseURL string // Optional. Override for compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-2.0-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "openai/gpt-4o"
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderOpenAI,
		Anthropic:  AnthropicConfig{Model: providerModels[ProviderAnthropic][0]},
		OpenAI:     OpenAIConfig{Model: providerModels[ProviderOpenAI][0]},
		Gemini:     GeminiConfig{Model: providerModels[ProviderGemini][0]},
		OpenRouter: OpenRouterConfig{Model: providerModels[ProviderOpenRouter][0]},
	}
}

// APIKey returns the key of the selected provider.
func (c Config) APIKey() string {
	switch c.Provider {
	case ProviderAnthropic:
		return c.Anthropic.APIKey
	case ProviderOpenAI:
		return c.OpenAI.APIKey
	case ProviderGemini:
		return c.Gemini.APIKey
	case ProviderOpenRouter:
		return c.OpenRouter.APIKey
	}
	return ""
}

// SetAPIKey sets the key of the selected provider.
func (c *Config) SetAPIKey(key string) {
	switch c.Provider {
	case ProviderAnthropic:
		c.Anthropic.APIKey = key
	case ProviderOpenAI:
		c.OpenAI.APIKey = key
	case ProviderGemini:
		c.Gemini.APIKey = key
	case ProviderOpenRouter:
		c.OpenRouter.APIKey = key
	}
}

// Model returns the model of the selected provider.
func (c Config) Model() string {
	switch c.Provider {
	case ProviderAnthropic:
		return c.Anthropic.Model
	case ProviderOpenAI:
		return c.OpenAI.Model
	case ProviderGemini:
		return c.Gemini.Model
	case ProviderOpenRouter:
		return c.OpenRouter.Model
	case ProviderMock:
		return "mock"
	}
	return ""
}

// SetModel sets the model of the selected provider.
func (c *Config) SetModel(model string) {
	switch c.Provider {
	case ProviderAnthropic:
		c.Anthropic.Model = model
	case ProviderOpenAI:
		c.OpenAI.Model = model
	case ProviderGemini:
		c.Gemini.Model = model
	case ProviderOpenRouter:
		c.OpenRouter.Model = model
	}
}

// RequiresKey reports whether the selected provider needs an API key.
func (c Config) RequiresKey() bool {
	return c.Provider != ProviderMock
}

// ApplyEnv overlays QUIZCHAT_* environment variables onto c.
func (c *Config) ApplyEnv() {
	if p := os.Getenv("QUIZCHAT_LLM_PROVIDER"); p != "" {
		c.Provider = p
	}

	if k := os.Getenv("QUIZCHAT_ANTHROPIC_API_KEY"); k != "" {
		c.Anthropic.APIKey = k
	}
	if m := os.Getenv("QUIZCHAT_ANTHROPIC_MODEL"); m != "" {
		c.Anthropic.Model = m
	}

	if k := os.Getenv("QUIZCHAT_OPENAI_API_KEY"); k != "" {
		c.OpenAI.APIKey = k
	}
	if m := os.Getenv("QUIZCHAT_OPENAI_MODEL"); m != "" {
		c.OpenAI.Model = m
	}
	if u := os.Getenv("QUIZCHAT_OPENAI_BASE_URL"); u != "" {
		c.OpenAI.BaseURL = u
	}

	if k := os.Getenv("QUIZCHAT_GEMINI_API_KEY"); k != "" {
		c.Gemini.APIKey = k
	}
	if m := os.Getenv("QUIZCHAT_GEMINI_MODEL"); m != "" {
		c.Gemini.Model = m
	}

	if k := os.Getenv("QUIZCHAT_OPENROUTER_API_KEY"); k != "" {
		c.OpenRouter.APIKey = k
	}
	if m := os.Getenv("QUIZCHAT_OPENROUTER_MODEL"); m != "" {
		c.OpenRouter.Model = m
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	return cfg
}

// DiscoverKeys fills empty provider keys from the standard API key env vars
// (OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY, OPENROUTER_API_KEY).
// It reports whether the selected provider ends up with a key.
func (c *Config) DiscoverKeys() bool {
	fill := func(dst *string, env string) {
		if *dst == "" {
			*dst = os.Getenv(env)
		}
	}
	fill(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	fill(&c.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	fill(&c.Gemini.APIKey, "GEMINI_API_KEY")
	fill(&c.OpenRouter.APIKey, "OPENROUTER_API_KEY")
	return c.APIKey() != "" || !c.RequiresKey()
}

// Validate checks the provider name. A missing key is not an error here:
// the app starts without one and asks for it in settings.
func (c Config) Validate() error {
	if _, ok := providerModels[c.Provider]; !ok {
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}
