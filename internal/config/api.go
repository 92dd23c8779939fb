package config

import (
	"fmt"
	"os"

	"github.com/lodestarfreight/mailroom/pkg/formatting"
	"github.com/lodestarfreight/mailroom/pkg/middleware"
	"github.com/lodestarfreight/mailroom/pkg/openapi"
	"github.com/lodestarfreight/mailroom/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "MAILROOM_CORS_ENABLED",
	Origins:          "MAILROOM_CORS_ORIGINS",
	AllowedMethods:   "MAILROOM_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "MAILROOM_CORS_ALLOWED_HEADERS",
	AllowCredentials: "MAILROOM_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "MAILROOM_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "MAILROOM_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "MAILROOM_PAGINATION_MAX_PAGE_SIZE",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "MAILROOM_OPENAPI_TITLE",
	Description: "MAILROOM_OPENAPI_DESCRIPTION",
}

// APIConfig holds API routing, CORS, and pagination settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
	OpenAPI       openapi.Config        `toml:"openapi"`
}

func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return 50 * 1024 * 1024 // 50MB fallback
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.applyDefaults()
	c.applyEnv()

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
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) applyDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "50MB"
	}
}

func (c *APIConfig) applyEnv() {
	if v := os.Getenv("MAILROOM_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("MAILROOM_API_MAX_UPLOAD_SIZE"); v != "" {
		c.MaxUploadSize = v
	}
}
