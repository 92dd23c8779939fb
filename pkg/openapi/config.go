package openapi

import "os"

// Config carries the document metadata.
type Config struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
}

// ConfigEnv names the environment variables that may override each field.
type ConfigEnv struct {
	Title       string
	Description string
}

// Finalize fills defaults and applies env overrides.
func (c *Config) Finalize(env *ConfigEnv) error {
	c.applyDefaults()
	if env != nil {
		c.applyEnv(env)
	}
	return nil
}

// Merge copies non-empty overlay fields into c.
func (c *Config) Merge(overlay *Config) {
	if overlay.Title != "" {
		c.Title = overlay.Title
	}
	if overlay.Description != "" {
		c.Description = overlay.Description
	}
}

func (c *Config) applyDefaults() {
	if c.Title == "" {
		c.Title = "Mailroom API"
	}
	if c.Description == "" {
		c.Description = "Freight email classification and shipment workflow service."
	}
}

func (c *Config) applyEnv(env *ConfigEnv) {
	if env.Title != "" {
		if v := os.Getenv(env.Title); v != "" {
			c.Title = v
		}
	}
	if env.Description != "" {
		if v := os.Getenv(env.Description); v != "" {
			c.Description = v
		}
	}
}
