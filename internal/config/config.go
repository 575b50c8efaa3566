// Package config loads the quizchat configuration. Values are layered, lowest
// first: built-in defaults, the YAML config file, a .env file, QUIZCHAT_*
// and the standard provider API key environment variables. Command-line
// flags are applied on top by the caller before Validate.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/quizchat/internal/chat"
	"github.com/abhisek/quizchat/internal/llm"
	"github.com/abhisek/quizchat/internal/quiz"
)

// ProviderConfig is the per-provider section of the config file.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	Model   string `yaml:"model,omitempty" json:"model,omitempty"`
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
}

// LogConfig configures the log file.
type LogConfig struct {
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
}

// Config is the on-disk and effective configuration.
type Config struct {
	Provider   string         `yaml:"provider" json:"provider"`
	OpenAI     ProviderConfig `yaml:"openai,omitempty" json:"openai,omitempty"`
	Anthropic  ProviderConfig `yaml:"anthropic,omitempty" json:"anthropic,omitempty"`
	Gemini     ProviderConfig `yaml:"gemini,omitempty" json:"gemini,omitempty"`
	OpenRouter ProviderConfig `yaml:"openrouter,omitempty" json:"openrouter,omitempty"`

	SystemPrompt   string        `yaml:"system_prompt" json:"system_prompt"`
	Temperature    float64       `yaml:"temperature" json:"temperature"`
	MaxTokens      int           `yaml:"max_tokens" json:"max_tokens"`
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty" json:"request_timeout,omitempty"`

	// Addr is the listen address of the browser mode.
	Addr string `yaml:"addr,omitempty" json:"addr,omitempty"`

	// UsageDB enables the usage log when set.
	UsageDB string `yaml:"usage_db,omitempty" json:"usage_db,omitempty"`

	Log LogConfig `yaml:"log,omitempty" json:"log,omitempty"`
}

// DefaultAddr is the browser mode listen address.
const DefaultAddr = ":8080"

// Default returns the built-in defaults.
func Default() Config {
	d := llm.DefaultConfig()
	return Config{
		Provider:     d.Provider,
		OpenAI:       ProviderConfig{Model: d.OpenAI.Model},
		Anthropic:    ProviderConfig{Model: d.Anthropic.Model},
		Gemini:       ProviderConfig{Model: d.Gemini.Model},
		OpenRouter:   ProviderConfig{Model: d.OpenRouter.Model},
		SystemPrompt: quiz.DefaultSystemPrompt,
		Temperature:  quiz.DefaultTemperature,
		MaxTokens:    quiz.DefaultMaxTokens,
		Addr:         DefaultAddr,
		Log:          LogConfig{Level: "info", Format: "json"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/quizchat/config.yaml, falling back to
// ~/.config/quizchat/config.yaml.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".quizchat", "config.yaml")
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "quizchat", "config.yaml")
}

// LoadOptions controls Load.
type LoadOptions struct {
	// Path of the YAML file. A missing file is not an error.
	Path string

	// DotEnv is the .env file to read; "" skips it. Variables already set
	// in the environment win.
	DotEnv string
}

// Load builds the effective configuration. It does not validate; call
// Validate after applying flags.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	if opts.Path != "" {
		data, err := os.ReadFile(opts.Path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", opts.Path, err)
			}
		}
	}

	if opts.DotEnv != "" {
		if err := godotenv.Load(opts.DotEnv); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", opts.DotEnv, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays QUIZCHAT_* variables and discovers standard API keys.
func (c *Config) applyEnv() error {
	l := c.LLM()
	l.ApplyEnv()
	l.DiscoverKeys()
	c.setLLM(l)

	if v := os.Getenv("QUIZCHAT_SYSTEM_PROMPT"); v != "" {
		c.SystemPrompt = v
	}
	if v := os.Getenv("QUIZCHAT_TEMPERATURE"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("QUIZCHAT_TEMPERATURE: %w", err)
		}
		c.Temperature = t
	}
	if v := os.Getenv("QUIZCHAT_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("QUIZCHAT_MAX_TOKENS: %w", err)
		}
		c.MaxTokens = n
	}
	if v := os.Getenv("QUIZCHAT_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("QUIZCHAT_REQUEST_TIMEOUT: %w", err)
		}
		c.RequestTimeout = d
	}
	if v := os.Getenv("QUIZCHAT_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("QUIZCHAT_DB"); v != "" {
		c.UsageDB = v
	}
	if v := os.Getenv("QUIZCHAT_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("QUIZCHAT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// LLM returns the provider configuration.
func (c Config) LLM() llm.Config {
	return llm.Config{
		Provider:   c.Provider,
		OpenAI:     llm.OpenAIConfig{APIKey: c.OpenAI.APIKey, Model: c.OpenAI.Model, BaseURL: c.OpenAI.BaseURL},
		Anthropic:  llm.AnthropicConfig{APIKey: c.Anthropic.APIKey, Model: c.Anthropic.Model, BaseURL: c.Anthropic.BaseURL},
		Gemini:     llm.GeminiConfig{APIKey: c.Gemini.APIKey, Model: c.Gemini.Model},
		OpenRouter: llm.OpenRouterConfig{APIKey: c.OpenRouter.APIKey, Model: c.OpenRouter.Model, BaseURL: c.OpenRouter.BaseURL},
		Timeout:    c.RequestTimeout,
	}
}

func (c *Config) setLLM(l llm.Config) {
	c.Provider = l.Provider
	c.OpenAI = ProviderConfig{APIKey: l.OpenAI.APIKey, Model: l.OpenAI.Model, BaseURL: l.OpenAI.BaseURL}
	c.Anthropic = ProviderConfig{APIKey: l.Anthropic.APIKey, Model: l.Anthropic.Model, BaseURL: l.Anthropic.BaseURL}
	c.Gemini = ProviderConfig{APIKey: l.Gemini.APIKey, Model: l.Gemini.Model}
	c.OpenRouter = ProviderConfig{APIKey: l.OpenRouter.APIKey, Model: l.OpenRouter.Model, BaseURL: l.OpenRouter.BaseURL}
	c.RequestTimeout = l.Timeout
}

// SetModel sets the model of the selected provider.
func (c *Config) SetModel(model string) {
	l := c.LLM()
	l.SetModel(model)
	c.setLLM(l)
}

// Settings returns the configuration surface used by the chat service.
func (c Config) Settings() chat.Settings {
	return chat.Settings{
		LLM:          c.LLM(),
		SystemPrompt: c.SystemPrompt,
		Temperature:  c.Temperature,
		MaxTokens:    c.MaxTokens,
	}
}

// ApplySettings copies settings edited in a front end back into c, so they
// can be saved.
func (c *Config) ApplySettings(s chat.Settings) {
	c.setLLM(s.LLM)
	c.SystemPrompt = s.SystemPrompt
	c.Temperature = s.Temperature
	c.MaxTokens = s.MaxTokens
}

// Save writes c to path as YAML, creating the directory. The file holds API
// keys and is written owner-only.
func Save(path string, c Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Masked returns a copy of c with API keys shortened for display.
func (c Config) Masked() Config {
	c.OpenAI.APIKey = MaskKey(c.OpenAI.APIKey)
	c.Anthropic.APIKey = MaskKey(c.Anthropic.APIKey)
	c.Gemini.APIKey = MaskKey(c.Gemini.APIKey)
	c.OpenRouter.APIKey = MaskKey(c.OpenRouter.APIKey)
	return c
}

// MaskKey keeps the first and last four characters of key.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", 4) + key[len(key)-4:]
}
