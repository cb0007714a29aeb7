package provider

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

// Config holds the TIA provider endpoint and client credentials.
type Config struct {
	BaseURL      string `toml:"base_url"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	Timeout      string `toml:"timeout"`
	EnginesTTL   string `toml:"engines_ttl"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      string
	EnginesTTL   string
}

func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

func (c *Config) EnginesTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.EnginesTTL)
	return d
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
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.ClientID != "" {
		c.ClientID = overlay.ClientID
	}
	if overlay.ClientSecret != "" {
		c.ClientSecret = overlay.ClientSecret
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.EnginesTTL != "" {
		c.EnginesTTL = overlay.EnginesTTL
	}
}

func (c *Config) loadDefaults() {
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.EnginesTTL == "" {
		c.EnginesTTL = "5m"
	}
}

func (c *Config) loadEnv(env *Env) {
	for _, o := range []struct {
		name string
		dst  *string
	}{
		{env.BaseURL, &c.BaseURL},
		{env.ClientID, &c.ClientID},
		{env.ClientSecret, &c.ClientSecret},
		{env.Timeout, &c.Timeout},
		{env.EnginesTTL, &c.EnginesTTL},
	} {
		if o.name == "" {
			continue
		}
		if v := os.Getenv(o.name); v != "" {
			*o.dst = v
		}
	}
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url required")
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base_url: %q", c.BaseURL)
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("client_id and client_secret required")
	}
	if d, err := time.ParseDuration(c.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid timeout: %q", c.Timeout)
	}
	if _, err := time.ParseDuration(c.EnginesTTL); err != nil {
		return fmt.Errorf("invalid engines_ttl: %q", c.EnginesTTL)
	}
	return nil
}
