package quiz

import "fmt"

const (
	MinTemperature = 0.0
	MaxTemperature = 2.0
	MinMaxTokens   = 1
	MaxMaxTokens   = 4096

	DefaultTemperature = 0.5
	DefaultMaxTokens   = 1024
)

// RequestConfig is the read-only snapshot of the user's settings taken when
// a request is built. It is never stored with the session.
type RequestConfig struct {
	Model        string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// Validate checks the numeric ranges the settings surface allows.
func (c RequestConfig) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Temperature < MinTemperature || c.Temperature > MaxTemperature {
		return fmt.Errorf("temperature %.2f out of range [%.1f, %.1f]", c.Temperature, MinTemperature, MaxTemperature)
	}
	if c.MaxTokens < MinMaxTokens || c.MaxTokens > MaxMaxTokens {
		return fmt.Errorf("max tokens %d out of range [%d, %d]", c.MaxTokens, MinMaxTokens, MaxMaxTokens)
	}
	return nil
}
