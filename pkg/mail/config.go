package mail

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// TLS policies accepted by Config.TLS.
const (
	TLSNone          = "none"
	TLSOpportunistic = "opportunistic"
	TLSMandatory     = "mandatory"
)

// Config holds SMTP delivery settings. When Enabled is false messages are
// logged instead of sent.
type Config struct {
	Enabled     bool   `toml:"enabled"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
	From        string `toml:"from"`
	TLS         string `toml:"tls"`
	Timeout     string `toml:"timeout"`
	Concurrency int    `toml:"concurrency"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Enabled     string
	Host        string
	Port        string
	Username    string
	Password    string
	From        string
	TLS         string
	Timeout     string
	Concurrency string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
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

// Merge overwrites non-zero fields from overlay. Enabled always applies.
func (c *Config) Merge(overlay *Config) {
	c.Enabled = overlay.Enabled

	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	if overlay.Username != "" {
		c.Username = overlay.Username
	}
	if overlay.Password != "" {
		c.Password = overlay.Password
	}
	if overlay.From != "" {
		c.From = overlay.From
	}
	if overlay.TLS != "" {
		c.TLS = overlay.TLS
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.Concurrency != 0 {
		c.Concurrency = overlay.Concurrency
	}
}

func (c *Config) loadDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 25
	}
	if c.From == "" {
		c.From = "kycdesk@localhost"
	}
	if c.TLS == "" {
		c.TLS = TLSOpportunistic
	}
	if c.Timeout == "" {
		c.Timeout = "15s"
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
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
	if env.Host != "" {
		if v := os.Getenv(env.Host); v != "" {
			c.Host = v
		}
	}
	if env.Port != "" {
		if v := os.Getenv(env.Port); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Port = n
			}
		}
	}
	if env.Username != "" {
		if v := os.Getenv(env.Username); v != "" {
			c.Username = v
		}
	}
	if env.Password != "" {
		if v := os.Getenv(env.Password); v != "" {
			c.Password = v
		}
	}
	if env.From != "" {
		if v := os.Getenv(env.From); v != "" {
			c.From = v
		}
	}
	if env.TLS != "" {
		if v := os.Getenv(env.TLS); v != "" {
			c.TLS = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.Concurrency != "" {
		if v := os.Getenv(env.Concurrency); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Concurrency = n
			}
		}
	}
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	switch c.TLS {
	case TLSNone, TLSOpportunistic, TLSMandatory:
	default:
		return fmt.Errorf("invalid tls policy: %s", c.TLS)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be positive")
	}
	return nil
}
