package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizchat/internal/llm"
	"github.com/abhisek/quizchat/internal/quiz"
)

// clearEnv blanks every variable Load reads so the host environment does
// not leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY",
		"QUIZCHAT_LLM_PROVIDER", "QUIZCHAT_OPENAI_API_KEY", "QUIZCHAT_OPENAI_MODEL",
		"QUIZCHAT_OPENAI_BASE_URL", "QUIZCHAT_ANTHROPIC_API_KEY", "QUIZCHAT_ANTHROPIC_MODEL",
		"QUIZCHAT_GEMINI_API_KEY", "QUIZCHAT_GEMINI_MODEL", "QUIZCHAT_OPENROUTER_API_KEY",
		"QUIZCHAT_OPENROUTER_MODEL", "QUIZCHAT_SYSTEM_PROMPT", "QUIZCHAT_TEMPERATURE",
		"QUIZCHAT_MAX_TOKENS", "QUIZCHAT_REQUEST_TIMEOUT", "QUIZCHAT_ADDR", "QUIZCHAT_DB",
		"QUIZCHAT_LOG_FILE", "QUIZCHAT_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, llm.ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, quiz.DefaultSystemPrompt, cfg.SystemPrompt)
	assert.Equal(t, 0.5, cfg.Temperature)
	assert.Equal(t, 1024, cfg.MaxTokens)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(LoadOptions{Path: filepath.Join(t.TempDir(), "nope.yaml")})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `provider: anthropic
anthropic:
  api_key: sk-ant-file
  model: claude-sonnet-4-5
temperature: 1.2
max_tokens: 300
request_timeout: 45s
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(LoadOptions{Path: path})
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "sk-ant-file", cfg.Anthropic.APIKey)
	assert.Equal(t, 1.2, cfg.Temperature)
	assert.Equal(t, 300, cfg.MaxTokens)
	assert.Equal(t, 45*time.Second, cfg.RequestTimeout)
	// Unset fields keep their defaults.
	assert.Equal(t, quiz.DefaultSystemPrompt, cfg.SystemPrompt)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
}

func TestLoadBadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: [\n"), 0o600))
	_, err := Load(LoadOptions{Path: path})
	assert.Error(t, err)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: openai\nmax_tokens: 100\n"), 0o600))

	t.Setenv("QUIZCHAT_LLM_PROVIDER", "gemini")
	t.Setenv("QUIZCHAT_MAX_TOKENS", "200")
	t.Setenv("QUIZCHAT_TEMPERATURE", "0.9")

	cfg, err := Load(LoadOptions{Path: path})
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderGemini, cfg.Provider)
	assert.Equal(t, 200, cfg.MaxTokens)
	assert.Equal(t, 0.9, cfg.Temperature)
}

func TestLoadBadEnvNumber(t *testing.T) {
	clearEnv(t)
	t.Setenv("QUIZCHAT_MAX_TOKENS", "lots")
	_, err := Load(LoadOptions{})
	assert.Error(t, err)
}

func TestLoadDiscoversStandardKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.OpenAI.APIKey)
	assert.True(t, cfg.Settings().HasKey())
}

func TestLoadFileKeyWinsOverDiscovery(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("openai:\n  api_key: sk-from-file\n"), 0o600))

	cfg, err := Load(LoadOptions{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "sk-from-file", cfg.OpenAI.APIKey)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	const key = "QUIZCHAT_DOTENV_PROBE"
	t.Cleanup(func() { os.Unsetenv(key) })

	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte(key+"=from-dotenv\nQUIZCHAT_ADDR=:9999\n"), 0o600))

	cfg, err := Load(LoadOptions{DotEnv: dotenv})
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", os.Getenv(key))
	// QUIZCHAT_ADDR was already set (blank) by clearEnv, so .env must not
	// replace it.
	assert.Equal(t, DefaultAddr, cfg.Addr)
}

func TestLoadMissingDotEnv(t *testing.T) {
	clearEnv(t)
	_, err := Load(LoadOptions{DotEnv: filepath.Join(t.TempDir(), ".env")})
	assert.NoError(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Provider = llm.ProviderOpenRouter
	cfg.OpenRouter.APIKey = "sk-or-secret"
	cfg.OpenRouter.Model = "meta-llama/llama-3-70b-instruct"
	cfg.RequestTimeout = 20 * time.Second
	require.NoError(t, Save(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(LoadOptions{Path: path})
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"mock provider", func(c *Config) { c.Provider = llm.ProviderMock }, false},
		{"unknown provider", func(c *Config) { c.Provider = "cohere" }, true},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, true},
		{"temperature negative", func(c *Config) { c.Temperature = -0.1 }, true},
		{"max tokens zero", func(c *Config) { c.MaxTokens = 0 }, true},
		{"max tokens too large", func(c *Config) { c.MaxTokens = 5000 }, true},
		{"empty system prompt", func(c *Config) { c.SystemPrompt = "" }, true},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"text log format", func(c *Config) { c.Log.Format = "text" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.OpenAI.APIKey = "sk-test"
	cfg.RequestTimeout = 5 * time.Second

	s := cfg.Settings()
	assert.Equal(t, "gpt-4o", s.LLM.Model())
	assert.Equal(t, 5*time.Second, s.LLM.Timeout)
	assert.True(t, s.HasKey())

	s.Temperature = 1.5
	s.LLM.SetModel("gpt-4")
	cfg.ApplySettings(s)
	assert.Equal(t, 1.5, cfg.Temperature)
	assert.Equal(t, "gpt-4", cfg.OpenAI.Model)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
}

func TestSetModel(t *testing.T) {
	cfg := Default()
	cfg.Provider = llm.ProviderGemini
	cfg.SetModel("gemini-1.5-pro")
	assert.Equal(t, "gemini-1.5-pro", cfg.Gemini.Model)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "", MaskKey(""))
	assert.Equal(t, "*****", MaskKey("short"))
	assert.Equal(t, "sk-a****wxyz", MaskKey("sk-abcdefghijklmnopqrstuvwxyz"))

	cfg := Default()
	cfg.Anthropic.APIKey = "sk-ant-1234567890"
	masked := cfg.Masked()
	assert.Equal(t, "sk-a****7890", masked.Anthropic.APIKey)
	assert.Equal(t, "sk-ant-1234567890", cfg.Anthropic.APIKey)
}
