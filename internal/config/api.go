package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/reactit/kycdesk/pkg/formatting"
	"github.com/reactit/kycdesk/pkg/middleware"
	"github.com/reactit/kycdesk/pkg/pagination"
)

const (
	EnvAPIBasePath      = "KYCDESK_API_BASE_PATH"
	EnvAPIPublicURL     = "KYCDESK_API_PUBLIC_URL"
	EnvAPIMaxUploadSize = "KYCDESK_API_MAX_UPLOAD_SIZE"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "KYCDESK_CORS_ENABLED",
	Origins:          "KYCDESK_CORS_ORIGINS",
	AllowedMethods:   "KYCDESK_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "KYCDESK_CORS_ALLOWED_HEADERS",
	AllowCredentials: "KYCDESK_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "KYCDESK_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "KYCDESK_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "KYCDESK_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds routing, upload, CORS and pagination settings for the
// API module.
type APIConfig struct {
	BasePath string `toml:"base_path"`
	// PublicURL is the externally reachable origin used in links sent to
	// customers, e.g. https://kyc.example.com.
	PublicURL     string                `toml:"public_url"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
}

// MaxUploadSizeBytes parses MaxUploadSize. Call after Finalize.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, _ := formatting.ParseBytes(c.MaxUploadSize)
	return size
}

// Finalize applies defaults, environment overrides and validation, then
// finalizes the nested CORS and pagination sections.
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
	return nil
}

// Merge overwrites fields that are set in overlay.
func (c *APIConfig) Merge(overlay *APIConfig) {
	mergeString(&c.BasePath, overlay.BasePath)
	mergeString(&c.PublicURL, overlay.PublicURL)
	mergeString(&c.MaxUploadSize, overlay.MaxUploadSize)
	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.PublicURL == "" {
		c.PublicURL = "http://localhost:8080"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "20MB"
	}
}

func (c *APIConfig) loadEnv() {
	envString(EnvAPIBasePath, &c.BasePath)
	envString(EnvAPIPublicURL, &c.PublicURL)
	envString(EnvAPIMaxUploadSize, &c.MaxUploadSize)
}

func (c *APIConfig) validate() error {
	if !strings.HasPrefix(c.BasePath, "/") || strings.Count(c.BasePath, "/") != 1 {
		return fmt.Errorf("base_path must be a single path segment: %q", c.BasePath)
	}
	if u, err := url.Parse(c.PublicURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid public_url: %q", c.PublicURL)
	}
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	return nil
}
