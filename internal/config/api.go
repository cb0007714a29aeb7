package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/JaimeStill/tollgate/pkg/formatting"
	"github.com/JaimeStill/tollgate/pkg/middleware"
	"github.com/JaimeStill/tollgate/pkg/openapi"
	"github.com/JaimeStill/tollgate/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "TOLLGATE_CORS_ENABLED",
	Origins:          "TOLLGATE_CORS_ORIGINS",
	AllowedMethods:   "TOLLGATE_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "TOLLGATE_CORS_ALLOWED_HEADERS",
	ExposedHeaders:   "TOLLGATE_CORS_EXPOSED_HEADERS",
	AllowCredentials: "TOLLGATE_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "TOLLGATE_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "TOLLGATE_API_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "TOLLGATE_API_MAX_PAGE_SIZE",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "TOLLGATE_OPENAPI_TITLE",
	Description: "TOLLGATE_OPENAPI_DESCRIPTION",
	ServerURL:   "TOLLGATE_OPENAPI_SERVER_URL",
}

// APIConfig holds API routing, upload, CORS, pagination, and document settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	Version       string                `toml:"version"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
	OpenAPI       openapi.Config        `toml:"openapi"`
}

// MaxUploadSizeBytes returns the parsed upload limit. Finalize guarantees it parses.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, _ := formatting.ParseBytes(c.MaxUploadSize)
	return size
}

// VersionPrefix is the route prefix of the current API version, e.g. "/v1".
func (c *APIConfig) VersionPrefix() string {
	return "/" + c.Version
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.Version == "" {
		c.Version = "v1"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "10MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("TOLLGATE_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("TOLLGATE_API_VERSION"); v != "" {
		c.Version = v
	}
	if v := os.Getenv("TOLLGATE_API_MAX_UPLOAD_SIZE"); v != "" {
		c.MaxUploadSize = v
	}
}

func (c *APIConfig) validate() error {
	if !strings.HasPrefix(c.BasePath, "/") || strings.HasSuffix(c.BasePath, "/") {
		return fmt.Errorf("invalid base_path %q: must start and not end with /", c.BasePath)
	}
	if strings.Contains(c.Version, "/") {
		return fmt.Errorf("invalid version %q", c.Version)
	}
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	return nil
}
