package domain

import "fmt"

// Generation parameter bounds.
const (
	MinMaxTokens     = 1000
	MaxMaxTokens     = 16384
	DefaultMaxTokens = 8192

	MinTemperature     = 0.0
	MaxTemperature     = 2.0
	DefaultTemperature = 0.7
)

// Settings holds the per-session generation parameters.
type Settings struct {
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// DefaultSettings returns the settings a new session starts with.
func DefaultSettings() Settings {
	return Settings{
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	}
}

// Validate checks both parameters against their closed ranges.
func (s Settings) Validate() error {
	if s.MaxTokens < MinMaxTokens || s.MaxTokens > MaxMaxTokens {
		return fmt.Errorf("max_tokens %d out of range [%d, %d]", s.MaxTokens, MinMaxTokens, MaxMaxTokens)
	}
	if s.Temperature < MinTemperature || s.Temperature > MaxTemperature {
		return fmt.Errorf("temperature %.2f out of range [%.1f, %.1f]", s.Temperature, MinTemperature, MaxTemperature)
	}
	return nil
}

// Clamp pulls both parameters into their ranges.
func (s Settings) Clamp() Settings {
	s.MaxTokens = min(max(s.MaxTokens, MinMaxTokens), MaxMaxTokens)
	s.Temperature = min(max(s.Temperature, MinTemperature), MaxTemperature)
	return s
}
