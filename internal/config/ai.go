package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvAIEnabled = "MAILROOM_AI_ENABLED"
	EnvAIBaseURL = "MAILROOM_AI_BASE_URL"
	EnvAIAPIKey  = "MAILROOM_AI_API_KEY"
	EnvAIModel   = "MAILROOM_AI_MODEL"
	EnvAITimeout = "MAILROOM_AI_TIMEOUT"
)

// AIConfig holds settings for the AI classification fallback. The API key
// is only ever read from the environment, never from a config file.
type AIConfig struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
	Timeout string `toml:"timeout"`

	apiKey string
}

// APIKey returns the API key loaded from the environment.
func (c *AIConfig) APIKey() string {
	return c.apiKey
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *AIConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AIConfig) Finalize() error {
	c.applyDefaults()
	c.applyEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *AIConfig) Merge(overlay *AIConfig) {
	if overlay.Enabled {
		c.Enabled = true
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *AIConfig) applyDefaults() {
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Timeout == "" {
		c.Timeout = "20s"
	}
}

func (c *AIConfig) applyEnv() {
	if v := os.Getenv(EnvAIEnabled); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Enabled = enabled
		}
	}
	if v := os.Getenv(EnvAIBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvAIModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvAITimeout); v != "" {
		c.Timeout = v
	}
	c.apiKey = os.Getenv(EnvAIAPIKey)
}

func (c *AIConfig) validate() error {
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if c.Enabled && c.apiKey == "" {
		return fmt.Errorf("%s required when ai is enabled", EnvAIAPIKey)
	}
	return nil
}
