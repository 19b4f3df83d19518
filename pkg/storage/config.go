package storage

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds blob storage connection parameters. Either ConnectionString
// (shared key, Azurite) or AccountURL (Azure AD credential chain) is required.
type Config struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	AccountURL       string `toml:"account_url"`
	MaxRetries       int32  `toml:"max_retries"`
	URLTTL           string `toml:"url_ttl"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ContainerName    string
	ConnectionString string
	AccountURL       string
	MaxRetries       string
	URLTTL           string
}

// URLTTLDuration returns URLTTL as a time.Duration.
func (c *Config) URLTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.URLTTL)
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
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.AccountURL != "" {
		c.AccountURL = overlay.AccountURL
	}
	if overlay.MaxRetries != 0 {
		c.MaxRetries = overlay.MaxRetries
	}
	if overlay.URLTTL != "" {
		c.URLTTL = overlay.URLTTL
	}
}

func (c *Config) loadDefaults() {
	if c.ContainerName == "" {
		c.ContainerName = "kyc-files"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.URLTTL == "" {
		c.URLTTL = "1h"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.ContainerName != "" {
		if v := os.Getenv(env.ContainerName); v != "" {
			c.ContainerName = v
		}
	}
	if env.ConnectionString != "" {
		if v := os.Getenv(env.ConnectionString); v != "" {
			c.ConnectionString = v
		}
	}
	if env.AccountURL != "" {
		if v := os.Getenv(env.AccountURL); v != "" {
			c.AccountURL = v
		}
	}
	if env.MaxRetries != "" {
		if v := os.Getenv(env.MaxRetries); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				c.MaxRetries = int32(n)
			}
		}
	}
	if env.URLTTL != "" {
		if v := os.Getenv(env.URLTTL); v != "" {
			c.URLTTL = v
		}
	}
}

func (c *Config) validate() error {
	if c.ContainerName == "" {
		return fmt.Errorf("container_name required")
	}
	if c.ConnectionString == "" && c.AccountURL == "" {
		return fmt.Errorf("connection_string or account_url required")
	}
	if d, err := time.ParseDuration(c.URLTTL); err != nil || d <= 0 {
		return fmt.Errorf("invalid url_ttl: %q", c.URLTTL)
	}
	return nil
}
