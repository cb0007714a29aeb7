// Package config loads the service configuration from TOML files and TOLLGATE_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/tollgate/internal/auth"
	"github.com/JaimeStill/tollgate/internal/provider"
	"github.com/JaimeStill/tollgate/pkg/database"
	"github.com/JaimeStill/tollgate/pkg/logging"
	"github.com/JaimeStill/tollgate/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvTollgateEnv             = "TOLLGATE_ENV"
	EnvTollgateShutdownTimeout = "TOLLGATE_SHUTDOWN_TIMEOUT"
	EnvTollgateVersion         = "TOLLGATE_VERSION"
)

var databaseEnv = &database.Env{
	Host:             "TOLLGATE_DB_HOST",
	Port:             "TOLLGATE_DB_PORT",
	Name:             "TOLLGATE_DB_NAME",
	User:             "TOLLGATE_DB_USER",
	Password:         "TOLLGATE_DB_PASSWORD",
	SSLMode:          "TOLLGATE_DB_SSL_MODE",
	MaxConns:         "TOLLGATE_DB_MAX_CONNS",
	MinConns:         "TOLLGATE_DB_MIN_CONNS",
	ConnMaxLifetime:  "TOLLGATE_DB_CONN_MAX_LIFETIME",
	ConnTimeout:      "TOLLGATE_DB_CONN_TIMEOUT",
	StatementTimeout: "TOLLGATE_DB_STATEMENT_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "TOLLGATE_STORAGE_CONTAINER_NAME",
	ConnectionString: "TOLLGATE_STORAGE_CONNECTION_STRING",
	ServiceURL:       "TOLLGATE_STORAGE_SERVICE_URL",
}

var authEnv = &auth.Env{
	PrivateKey:      "TOLLGATE_AUTH_PRIVATE_KEY",
	PublicKey:       "TOLLGATE_AUTH_PUBLIC_KEY",
	AccessTokenTTL:  "TOLLGATE_AUTH_ACCESS_TOKEN_TTL",
	RefreshTokenTTL: "TOLLGATE_AUTH_REFRESH_TOKEN_TTL",
	Issuer:          "TOLLGATE_AUTH_ISSUER",
}

var providerEnv = &provider.Env{
	BaseURL:      "TOLLGATE_PROVIDER_BASE_URL",
	ClientID:     "TOLLGATE_PROVIDER_CLIENT_ID",
	ClientSecret: "TOLLGATE_PROVIDER_CLIENT_SECRET",
	Timeout:      "TOLLGATE_PROVIDER_TIMEOUT",
	EnginesTTL:   "TOLLGATE_PROVIDER_ENGINES_TTL",
}

var loggingEnv = &logging.Env{
	Level:          "TOLLGATE_LOG_LEVEL",
	Format:         "TOLLGATE_LOG_FORMAT",
	WebhookURL:     "TOLLGATE_LOG_WEBHOOK_URL",
	WebhookTimeout: "TOLLGATE_LOG_WEBHOOK_TIMEOUT",
}

// Config is the root configuration for the Tollgate service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Auth            auth.Config     `toml:"auth"`
	Provider        provider.Config `toml:"provider"`
	Logging         logging.Config  `toml:"logging"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the TOLLGATE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvTollgateEnv); env != "" {
		return env
	}
	return "local"
}

// Development reports whether the service runs in a local or development environment.
func (c *Config) Development() bool {
	switch c.Env() {
	case "local", "development", "dev":
		return true
	}
	return false
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads config.toml from dir (if present), applies the config.<env>.toml
// overlay, and finalizes all values. Without files, defaults and environment
// variables provide all configuration.
func Load(dir string) (*Config, error) {
	cfg := &Config{}

	base := joinPath(dir, BaseConfigFile)
	if _, err := os.Stat(base); err == nil {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(dir, cfg.Env()); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Auth.Merge(&overlay.Auth)
	c.Provider.Merge(&overlay.Provider)
	c.Logging.Merge(&overlay.Logging)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}

	sections := []struct {
		name     string
		finalize func() error
	}{
		{"server", c.Server.Finalize},
		{"database", func() error { return c.Database.Finalize(databaseEnv) }},
		{"storage", func() error { return c.Storage.Finalize(storageEnv) }},
		{"api", c.API.Finalize},
		{"auth", func() error { return c.Auth.Finalize(authEnv) }},
		{"provider", func() error { return c.Provider.Finalize(providerEnv) }},
		{"logging", func() error { return c.Logging.Finalize(loggingEnv) }},
	}
	for _, s := range sections {
		if err := s.finalize(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvTollgateShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvTollgateVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &cfg, nil
}

func overlayPath(dir, env string) string {
	path := joinPath(dir, fmt.Sprintf(OverlayConfigPattern, env))
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func joinPath(dir, file string) string {
	if dir == "" {
		return file
	}
	return dir + string(os.PathSeparator) + file
}

// DatabaseFromEnv finalizes a database config from defaults and the
// TOLLGATE_DB_* variables alone.
func DatabaseFromEnv() (*database.Config, error) {
	c := &database.Config{}
	if err := c.Finalize(databaseEnv); err != nil {
		return nil, err
	}
	return c, nil
}
