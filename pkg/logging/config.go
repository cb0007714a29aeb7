package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config controls the root logger.
type Config struct {
	Level          string `toml:"level"`
	Format         string `toml:"format"`
	WebhookURL     string `toml:"webhook_url"`
	WebhookTimeout string `toml:"webhook_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Level          string
	Format         string
	WebhookURL     string
	WebhookTimeout string
}

func (c *Config) WebhookTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.WebhookTimeout)
	return d
}

// SlogLevel parses Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Level != "" {
		c.Level = overlay.Level
	}
	if overlay.Format != "" {
		c.Format = overlay.Format
	}
	if overlay.WebhookURL != "" {
		c.WebhookURL = overlay.WebhookURL
	}
	if overlay.WebhookTimeout != "" {
		c.WebhookTimeout = overlay.WebhookTimeout
	}
}

func (c *Config) loadDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
	if c.WebhookTimeout == "" {
		c.WebhookTimeout = "5s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Level != "" {
		if v := os.Getenv(env.Level); v != "" {
			c.Level = v
		}
	}
	if env.Format != "" {
		if v := os.Getenv(env.Format); v != "" {
			c.Format = v
		}
	}
	if env.WebhookURL != "" {
		if v := os.Getenv(env.WebhookURL); v != "" {
			c.WebhookURL = v
		}
	}
	if env.WebhookTimeout != "" {
		if v := os.Getenv(env.WebhookTimeout); v != "" {
			c.WebhookTimeout = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid format %q: must be text or json", c.Format)
	}
	if _, err := time.ParseDuration(c.WebhookTimeout); err != nil {
		return fmt.Errorf("invalid webhook_timeout: %w", err)
	}
	return nil
}
