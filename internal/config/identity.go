package config

import (
	"fmt"
	"time"
)

const (
	EnvIdentityEnabled      = "KYCDESK_IDENTITY_ENABLED"
	EnvIdentityBaseURL      = "KYCDESK_IDENTITY_BASE_URL"
	EnvIdentityRealm        = "KYCDESK_IDENTITY_REALM"
	EnvIdentityClientID     = "KYCDESK_IDENTITY_CLIENT_ID"
	EnvIdentityClientSecret = "KYCDESK_IDENTITY_CLIENT_SECRET"
	EnvIdentityTimeout      = "KYCDESK_IDENTITY_TIMEOUT"
)

// IdentityConfig holds the Keycloak admin API client. The client must be a
// confidential client whose service account may manage realm users.
type IdentityConfig struct {
	Enabled      bool   `toml:"enabled"`
	BaseURL      string `toml:"base_url"`
	Realm        string `toml:"realm"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	Timeout      string `toml:"timeout"`
}

func (c *IdentityConfig) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout)
}

func (c *IdentityConfig) Finalize() error {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:9080"
	}
	if c.Realm == "" {
		c.Realm = "kycdesk"
	}
	if c.ClientID == "" {
		c.ClientID = "kycdesk-admin"
	}
	if c.Timeout == "" {
		c.Timeout = "10s"
	}

	envBool(EnvIdentityEnabled, &c.Enabled)
	envString(EnvIdentityBaseURL, &c.BaseURL)
	envString(EnvIdentityRealm, &c.Realm)
	envString(EnvIdentityClientID, &c.ClientID)
	envString(EnvIdentityClientSecret, &c.ClientSecret)
	envString(EnvIdentityTimeout, &c.Timeout)

	if c.Enabled && c.ClientSecret == "" {
		return fmt.Errorf("client_secret required when enabled")
	}
	return validateDuration("timeout", c.Timeout)
}

func (c *IdentityConfig) Merge(overlay *IdentityConfig) {
	c.Enabled = c.Enabled || overlay.Enabled
	mergeString(&c.BaseURL, overlay.BaseURL)
	mergeString(&c.Realm, overlay.Realm)
	mergeString(&c.ClientID, overlay.ClientID)
	mergeString(&c.ClientSecret, overlay.ClientSecret)
	mergeString(&c.Timeout, overlay.Timeout)
}
