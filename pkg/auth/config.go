package auth

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds bearer token verification settings for an OpenID Connect
// issuer such as a Keycloak realm.
type Config struct {
	Enabled   bool   `toml:"enabled"`
	IssuerURL string `toml:"issuer_url"`
	JWKSURL   string `toml:"jwks_url"`
	Audience  string `toml:"audience"`
	AdminRole string `toml:"admin_role"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Enabled   string
	IssuerURL string
	JWKSURL   string
	Audience  string
	AdminRole string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if env != nil {
		c.loadEnv(env)
	}
	c.loadDefaults()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Enabled always applies.
func (c *Config) Merge(overlay *Config) {
	c.Enabled = overlay.Enabled

	if overlay.IssuerURL != "" {
		c.IssuerURL = overlay.IssuerURL
	}
	if overlay.JWKSURL != "" {
		c.JWKSURL = overlay.JWKSURL
	}
	if overlay.Audience != "" {
		c.Audience = overlay.Audience
	}
	if overlay.AdminRole != "" {
		c.AdminRole = overlay.AdminRole
	}
}

// loadDefaults runs after loadEnv so the JWKS URL follows an overridden issuer.
func (c *Config) loadDefaults() {
	if c.AdminRole == "" {
		c.AdminRole = "ROLE_ADMIN"
	}
	if c.JWKSURL == "" && c.IssuerURL != "" {
		c.JWKSURL = strings.TrimSuffix(c.IssuerURL, "/") + "/protocol/openid-connect/certs"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.Enabled = b
			}
		}
	}
	if env.IssuerURL != "" {
		if v := os.Getenv(env.IssuerURL); v != "" {
			c.IssuerURL = v
		}
	}
	if env.JWKSURL != "" {
		if v := os.Getenv(env.JWKSURL); v != "" {
			c.JWKSURL = v
		}
	}
	if env.Audience != "" {
		if v := os.Getenv(env.Audience); v != "" {
			c.Audience = v
		}
	}
	if env.AdminRole != "" {
		if v := os.Getenv(env.AdminRole); v != "" {
			c.AdminRole = v
		}
	}
}

func (c *Config) validate() error {
	if c.Enabled && c.IssuerURL == "" {
		return fmt.Errorf("issuer_url required when auth is enabled")
	}
	return nil
}
