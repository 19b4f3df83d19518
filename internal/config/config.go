// Package config resolves service configuration from config.toml, an
// environment overlay file and KYCDESK_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/reactit/kycdesk/pkg/auth"
	"github.com/reactit/kycdesk/pkg/cache"
	"github.com/reactit/kycdesk/pkg/database"
	"github.com/reactit/kycdesk/pkg/mail"
	"github.com/reactit/kycdesk/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvKycdeskEnv             = "KYCDESK_ENV"
	EnvKycdeskShutdownTimeout = "KYCDESK_SHUTDOWN_TIMEOUT"
	EnvKycdeskVersion         = "KYCDESK_VERSION"
)

var databaseEnv = &database.Env{
	DSN:             "KYCDESK_DB_DSN",
	Host:            "KYCDESK_DB_HOST",
	Port:            "KYCDESK_DB_PORT",
	Name:            "KYCDESK_DB_NAME",
	User:            "KYCDESK_DB_USER",
	Password:        "KYCDESK_DB_PASSWORD",
	SSLMode:         "KYCDESK_DB_SSL_MODE",
	MaxOpenConns:    "KYCDESK_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "KYCDESK_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "KYCDESK_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "KYCDESK_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "KYCDESK_STORAGE_CONTAINER_NAME",
	ConnectionString: "KYCDESK_STORAGE_CONNECTION_STRING",
	AccountURL:       "KYCDESK_STORAGE_ACCOUNT_URL",
	MaxRetries:       "KYCDESK_STORAGE_MAX_RETRIES",
	URLTTL:           "KYCDESK_STORAGE_URL_TTL",
}

var cacheEnv = &cache.Env{
	Enabled:     "KYCDESK_CACHE_ENABLED",
	Addr:        "KYCDESK_CACHE_ADDR",
	Username:    "KYCDESK_CACHE_USERNAME",
	Password:    "KYCDESK_CACHE_PASSWORD",
	DB:          "KYCDESK_CACHE_DB",
	KeyPrefix:   "KYCDESK_CACHE_KEY_PREFIX",
	DialTimeout: "KYCDESK_CACHE_DIAL_TIMEOUT",
}

var mailEnv = &mail.Env{
	Enabled:     "KYCDESK_MAIL_ENABLED",
	Host:        "KYCDESK_MAIL_HOST",
	Port:        "KYCDESK_MAIL_PORT",
	Username:    "KYCDESK_MAIL_USERNAME",
	Password:    "KYCDESK_MAIL_PASSWORD",
	From:        "KYCDESK_MAIL_FROM",
	TLS:         "KYCDESK_MAIL_TLS",
	Timeout:     "KYCDESK_MAIL_TIMEOUT",
	Concurrency: "KYCDESK_MAIL_CONCURRENCY",
}

var authEnv = &auth.Env{
	Enabled:   "KYCDESK_AUTH_ENABLED",
	IssuerURL: "KYCDESK_AUTH_ISSUER_URL",
	JWKSURL:   "KYCDESK_AUTH_JWKS_URL",
	Audience:  "KYCDESK_AUTH_AUDIENCE",
	AdminRole: "KYCDESK_AUTH_ADMIN_ROLE",
}

// Config is the root configuration for the kycdesk service.
type Config struct {
	Server          ServerConfig       `toml:"server"`
	Database        database.Config    `toml:"database"`
	Storage         storage.Config     `toml:"storage"`
	Cache           cache.Config       `toml:"cache"`
	Mail            mail.Config        `toml:"mail"`
	Auth            auth.Config        `toml:"auth"`
	Identity        IdentityConfig     `toml:"identity"`
	API             APIConfig          `toml:"api"`
	Verification    VerificationConfig `toml:"verification"`
	FaceMatch       FaceMatchConfig    `toml:"face_match"`
	Analyzer        AnalyzerConfig     `toml:"analyzer"`
	OCR             OCRConfig          `toml:"ocr"`
	News            NewsConfig         `toml:"news"`
	ShutdownTimeout string             `toml:"shutdown_timeout"`
	Version         string             `toml:"version"`
}

// Env returns KYCDESK_ENV, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvKycdeskEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration parses ShutdownTimeout. Call after Load.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads config.toml when present, merges config.<KYCDESK_ENV>.toml over
// it, then applies defaults and environment overrides. Without any file the
// configuration comes from defaults and the environment alone.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overlays every section.
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
	c.Cache.Merge(&overlay.Cache)
	c.Mail.Merge(&overlay.Mail)
	c.Auth.Merge(&overlay.Auth)
	c.Identity.Merge(&overlay.Identity)
	c.API.Merge(&overlay.API)
	c.Verification.Merge(&overlay.Verification)
	c.FaceMatch.Merge(&overlay.FaceMatch)
	c.Analyzer.Merge(&overlay.Analyzer)
	c.OCR.Merge(&overlay.OCR)
	c.News.Merge(&overlay.News)
}

// Finalize applies defaults, environment overrides and validation to every
// section, reporting the first failure prefixed with its section name.
func (c *Config) Finalize() error {
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
		{"cache", func() error { return c.Cache.Finalize(cacheEnv) }},
		{"mail", func() error { return c.Mail.Finalize(mailEnv) }},
		{"auth", func() error { return c.Auth.Finalize(authEnv) }},
		{"identity", c.Identity.Finalize},
		{"api", c.API.Finalize},
		{"verification", c.Verification.Finalize},
		{"face_match", c.FaceMatch.Finalize},
		{"analyzer", c.Analyzer.Finalize},
		{"ocr", c.OCR.Finalize},
		{"news", c.News.Finalize},
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
	if v := os.Getenv(EnvKycdeskShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvKycdeskVersion); v != "" {
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

func overlayPath() string {
	env := os.Getenv(EnvKycdeskEnv)
	if env == "" {
		return ""
	}
	path := fmt.Sprintf(OverlayConfigPattern, env)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
