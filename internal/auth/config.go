package auth

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config holds token signing keys and lifetimes. Keys are base64-encoded PEM.
type Config struct {
	PrivateKey      string `toml:"private_key"`
	PublicKey       string `toml:"public_key"`
	AccessTokenTTL  string `toml:"access_token_ttl"`
	RefreshTokenTTL string `toml:"refresh_token_ttl"`
	Issuer          string `toml:"issuer"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	PrivateKey      string
	PublicKey       string
	AccessTokenTTL  string
	RefreshTokenTTL string
	Issuer          string
}

func (c *Config) AccessTokenDuration() time.Duration {
	d, _ := time.ParseDuration(c.AccessTokenTTL)
	return d
}

func (c *Config) RefreshTokenDuration() time.Duration {
	d, _ := time.ParseDuration(c.RefreshTokenTTL)
	return d
}

// Keys decodes the RSA signing pair.
func (c *Config) Keys() (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privPEM, err := base64.StdEncoding.DecodeString(c.PrivateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("decode private_key: %w", err)
	}
	pubPEM, err := base64.StdEncoding.DecodeString(c.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("decode public_key: %w", err)
	}

	priv, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
	if err != nil {
		return nil, nil, fmt.Errorf("parse private_key: %w", err)
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		return nil, nil, fmt.Errorf("parse public_key: %w", err)
	}

	return priv, pub, nil
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
	if overlay.PrivateKey != "" {
		c.PrivateKey = overlay.PrivateKey
	}
	if overlay.PublicKey != "" {
		c.PublicKey = overlay.PublicKey
	}
	if overlay.AccessTokenTTL != "" {
		c.AccessTokenTTL = overlay.AccessTokenTTL
	}
	if overlay.RefreshTokenTTL != "" {
		c.RefreshTokenTTL = overlay.RefreshTokenTTL
	}
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
}

func (c *Config) loadDefaults() {
	if c.AccessTokenTTL == "" {
		c.AccessTokenTTL = "1h"
	}
	if c.RefreshTokenTTL == "" {
		c.RefreshTokenTTL = "168h"
	}
	if c.Issuer == "" {
		c.Issuer = "tollgate"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.PrivateKey != "" {
		if v := os.Getenv(env.PrivateKey); v != "" {
			c.PrivateKey = v
		}
	}
	if env.PublicKey != "" {
		if v := os.Getenv(env.PublicKey); v != "" {
			c.PublicKey = v
		}
	}
	if env.AccessTokenTTL != "" {
		if v := os.Getenv(env.AccessTokenTTL); v != "" {
			c.AccessTokenTTL = v
		}
	}
	if env.RefreshTokenTTL != "" {
		if v := os.Getenv(env.RefreshTokenTTL); v != "" {
			c.RefreshTokenTTL = v
		}
	}
	if env.Issuer != "" {
		if v := os.Getenv(env.Issuer); v != "" {
			c.Issuer = v
		}
	}
}

func (c *Config) validate() error {
	if c.PrivateKey == "" || c.PublicKey == "" {
		return fmt.Errorf("private_key and public_key required")
	}
	access, err := time.ParseDuration(c.AccessTokenTTL)
	if err != nil || access <= 0 {
		return fmt.Errorf("invalid access_token_ttl: %q", c.AccessTokenTTL)
	}
	refresh, err := time.ParseDuration(c.RefreshTokenTTL)
	if err != nil || refresh <= 0 {
		return fmt.Errorf("invalid refresh_token_ttl: %q", c.RefreshTokenTTL)
	}
	if _, _, err := c.Keys(); err != nil {
		return err
	}
	return nil
}
