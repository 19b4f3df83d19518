// Package auth verifies OpenID Connect bearer tokens and exposes the
// authenticated principal to downstream handlers.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/reactit/kycdesk/pkg/handlers"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
	ErrForbidden    = errors.New("insufficient role")
)

// Principal is the authenticated caller.
type Principal struct {
	Subject  string   `json:"sub"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// HasRole reports whether the principal holds role.
func (p *Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by Authenticate, if any.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok
}

// System authenticates requests. When disabled, requests pass through
// without a principal and role checks are skipped.
type System interface {
	Enabled() bool
	AdminRole() string
	Authenticate() func(http.Handler) http.Handler
	RequireRole(role string) func(http.Handler) http.Handler
}

type keycloak struct {
	cfg      *Config
	verifier *oidc.IDTokenVerifier
	logger   *slog.Logger
}

// New creates a System verifying tokens against the issuer's JWKS endpoint.
// Keys are fetched lazily on first verification.
func New(cfg *Config, logger *slog.Logger) System {
	var keySet oidc.KeySet
	if cfg.Enabled {
		keySet = oidc.NewRemoteKeySet(context.Background(), cfg.JWKSURL)
	}
	return NewWithKeySet(cfg, keySet, logger)
}

// NewWithKeySet creates a System verifying signatures with keySet.
func NewWithKeySet(cfg *Config, keySet oidc.KeySet, logger *slog.Logger) System {
	k := &keycloak{
		cfg:    cfg,
		logger: logger.With("system", "auth"),
	}

	if cfg.Enabled {
		k.verifier = oidc.NewVerifier(cfg.IssuerURL, keySet, &oidc.Config{
			ClientID:          cfg.Audience,
			SkipClientIDCheck: cfg.Audience == "",
		})
	}

	return k
}

func (k *keycloak) Enabled() bool {
	return k.cfg.Enabled
}

func (k *keycloak) AdminRole() string {
	return k.cfg.AdminRole
}

func (k *keycloak) Authenticate() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !k.cfg.Enabled {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				handlers.RespondError(w, k.logger, http.StatusUnauthorized, ErrMissingToken)
				return
			}

			token, err := k.verifier.Verify(r.Context(), raw)
			if err != nil {
				k.logger.Debug("token verification failed", "error", err)
				handlers.RespondError(w, k.logger, http.StatusUnauthorized, ErrInvalidToken)
				return
			}

			var c claims
			if err := token.Claims(&c); err != nil {
				handlers.RespondError(w, k.logger, http.StatusUnauthorized, ErrInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), c.principal(token.Subject))))
		})
	}
}

func (k *keycloak) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !k.cfg.Enabled {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := FromContext(r.Context())
			if !ok {
				handlers.RespondError(w, k.logger, http.StatusUnauthorized, ErrMissingToken)
				return
			}
			if !p.HasRole(role) {
				handlers.RespondError(w, k.logger, http.StatusForbidden, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type claims struct {
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	RealmAccess       struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
	Roles []string `json:"roles"`
}

func (c claims) principal(subject string) *Principal {
	roles := append([]string{}, c.RealmAccess.Roles...)
	for _, r := range c.Roles {
		if !slices.Contains(roles, r) {
			roles = append(roles, r)
		}
	}

	return &Principal{
		Subject:  subject,
		Username: c.PreferredUsername,
		Email:    c.Email,
		Roles:    roles,
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
