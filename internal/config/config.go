// Package config provides configuration for the chat front-ends.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/domain"
	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/gateway"
)

// Config holds the front-end configuration.
type Config struct {
	// Backend settings
	BackendURL     string
	Variant        string
	RequestTimeout time.Duration // zero keeps the variant default
	HealthTimeout  time.Duration // zero keeps the variant default
	ForwardHistory *bool         // nil keeps the variant default
	Location       string

	// Initial generation parameters
	MaxTokens   int
	Temperature float64

	// Web server settings
	HTTPPort       int
	RateLimit      float64 // API requests per second
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string
}

// Load reads configuration from the environment and, when CHAT_CONFIG names
// one, a YAML file. Environment values win over the file.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := v.GetString("CHAT_CONFIG"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		BackendURL:     v.GetString("API_BASE_URL"),
		Variant:        strings.ToLower(v.GetString("CHAT_VARIANT")),
		RequestTimeout: time.Duration(v.GetInt("CHAT_TIMEOUT_MS")) * time.Millisecond,
		HealthTimeout:  time.Duration(v.GetInt("HEALTH_TIMEOUT_MS")) * time.Millisecond,
		Location:       v.GetString("CHAT_LOCATION"),
		MaxTokens:      v.GetInt("CHAT_MAX_TOKENS"),
		Temperature:    v.GetFloat64("CHAT_TEMPERATURE"),
		HTTPPort:       v.GetInt("HTTP_PORT"),
		RateLimit:      v.GetFloat64("API_RATE_LIMIT"),
		PingInterval:   time.Duration(v.GetInt("WS_PING_INTERVAL_MS")) * time.Millisecond,
		WriteTimeout:   time.Duration(v.GetInt("WS_WRITE_TIMEOUT_MS")) * time.Millisecond,
		ReadTimeout:    time.Duration(v.GetInt("WS_READ_TIMEOUT_MS")) * time.Millisecond,
		MaxMessageSize: v.GetInt64("WS_MAX_MESSAGE_SIZE"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
		LogFile:        v.GetString("LOG_FILE"),
	}
	if v.IsSet("CHAT_FORWARD_HISTORY") {
		forward := v.GetBool("CHAT_FORWARD_HISTORY")
		cfg.ForwardHistory = &forward
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_BASE_URL", "http://localhost:8000")
	v.SetDefault("CHAT_VARIANT", gateway.VariantAssistant)
	v.SetDefault("CHAT_TIMEOUT_MS", 0)
	v.SetDefault("HEALTH_TIMEOUT_MS", 0)
	v.SetDefault("CHAT_LOCATION", "")
	v.SetDefault("CHAT_MAX_TOKENS", domain.DefaultMaxTokens)
	v.SetDefault("CHAT_TEMPERATURE", domain.DefaultTemperature)
	v.SetDefault("HTTP_PORT", 8501)
	v.SetDefault("API_RATE_LIMIT", 10)
	v.SetDefault("WS_PING_INTERVAL_MS", 30000)
	v.SetDefault("WS_WRITE_TIMEOUT_MS", 10000)
	v.SetDefault("WS_READ_TIMEOUT_MS", 60000)
	v.SetDefault("WS_MAX_MESSAGE_SIZE", 65536)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_FILE", "")
}

// Validate checks values that cannot be defaulted sensibly.
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("API_BASE_URL must not be empty")
	}
	if _, err := gateway.ProfileFor(c.Variant); err != nil {
		return err
	}
	if c.RequestTimeout < 0 || c.HealthTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// Settings returns the initial generation parameters, clamped into range.
func (c *Config) Settings() domain.Settings {
	return domain.Settings{MaxTokens: c.MaxTokens, Temperature: c.Temperature}.Clamp()
}

// Profile returns the gateway profile for the variant with overrides applied.
func (c *Config) Profile() gateway.Profile {
	profile, err := gateway.ProfileFor(c.Variant)
	if err != nil {
		profile = gateway.AssistantProfile()
	}
	if c.RequestTimeout > 0 {
		profile.Timeout = c.RequestTimeout
	}
	if c.HealthTimeout > 0 {
		profile.HealthTimeout = c.HealthTimeout
	}
	if c.ForwardHistory != nil {
		profile.SendsHistory = *c.ForwardHistory
	}
	return profile
}
