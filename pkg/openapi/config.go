package openapi

import "os"

// Config holds the metadata published in the generated document.
type Config struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	ServerURL   string `toml:"server_url"`
}

// ConfigEnv maps config fields to environment variable names for override injection.
type ConfigEnv struct {
	Title       string
	Description string
	ServerURL   string
}

// Finalize applies defaults and environment variable overrides.
func (c *Config) Finalize(env *ConfigEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Title != "" {
		c.Title = overlay.Title
	}
	if overlay.Description != "" {
		c.Description = overlay.Description
	}
	if overlay.ServerURL != "" {
		c.ServerURL = overlay.ServerURL
	}
}

func (c *Config) loadDefaults() {
	if c.Title == "" {
		c.Title = "Tollgate API"
	}
	if c.Description == "" {
		c.Description = "Account authentication, job tracking, and a proxy to the TIA product classification provider."
	}
}

func (c *Config) loadEnv(env *ConfigEnv) {
	for _, o := range []struct {
		name string
		dst  *string
	}{
		{env.Title, &c.Title},
		{env.Description, &c.Description},
		{env.ServerURL, &c.ServerURL},
	} {
		if o.name == "" {
			continue
		}
		if v := os.Getenv(o.name); v != "" {
			*o.dst = v
		}
	}
}
