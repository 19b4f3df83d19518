package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Nerzal/gocloak/v13"

	"github.com/reactit/kycdesk/internal/config"
	"github.com/reactit/kycdesk/pkg/pagination"
)

// tokens are refreshed this long before Keycloak expires them.
const tokenLeeway = 30 * time.Second

type repo struct {
	client     *gocloak.GoCloak
	cfg        *config.IdentityConfig
	logger     *slog.Logger
	pagination pagination.Config

	mu      sync.Mutex
	token   string
	expires time.Time
}

// New creates a user System backed by the Keycloak admin API. When identity
// is disabled every operation fails with ErrDisabled.
func New(cfg *config.IdentityConfig, logger *slog.Logger, pagination pagination.Config) System {
	r := &repo{
		cfg:        cfg,
		logger:     logger.With("system", "users"),
		pagination: pagination,
	}

	if cfg.Enabled {
		r.client = gocloak.NewClient(cfg.BaseURL)
		r.client.RestyClient().SetTimeout(cfg.TimeoutDuration())
	}

	return r
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*User, error) {
	token, err := r.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	id, err := r.client.CreateUser(ctx, token, r.cfg.Realm, cmd.representation())
	if err != nil {
		return nil, mapError(err)
	}

	r.logger.Info("user created", "id", id, "username", cmd.Username)
	return r.Find(ctx, id)
}

func (r *repo) Find(ctx context.Context, id string) (*User, error) {
	token, err := r.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	u, err := r.client.GetUserByID(ctx, token, r.cfg.Realm, id)
	if err != nil {
		return nil, mapError(err)
	}

	user := fromRepresentation(u)
	return &user, nil
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[User], error) {
	page.Normalize(r.pagination)

	token, err := r.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	params := gocloak.GetUsersParams{Search: page.Search}

	total, err := r.client.GetUserCount(ctx, token, r.cfg.Realm, params)
	if err != nil {
		return nil, mapError(err)
	}

	params.First = gocloak.IntP(page.Offset())
	params.Max = gocloak.IntP(page.PageSize)

	found, err := r.client.GetUsers(ctx, token, r.cfg.Realm, params)
	if err != nil {
		return nil, mapError(err)
	}

	items := make([]User, 0, len(found))
	for _, u := range found {
		items = append(items, fromRepresentation(u))
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Delete(ctx context.Context, id string) error {
	token, err := r.accessToken(ctx)
	if err != nil {
		return err
	}

	if err := r.client.DeleteUser(ctx, token, r.cfg.Realm, id); err != nil {
		return mapError(err)
	}

	r.logger.Info("user deleted", "id", id)
	return nil
}

func (r *repo) Count(ctx context.Context) (int, error) {
	token, err := r.accessToken(ctx)
	if err != nil {
		return 0, err
	}

	n, err := r.client.GetUserCount(ctx, token, r.cfg.Realm, gocloak.GetUsersParams{})
	if err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

// accessToken returns a cached service account token, logging in with the
// client credentials grant when the cached one is missing or near expiry.
func (r *repo) accessToken(ctx context.Context) (string, error) {
	if !r.cfg.Enabled {
		return "", ErrDisabled
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.token != "" && time.Now().Before(r.expires) {
		return r.token, nil
	}

	jwt, err := r.client.LoginClient(ctx, r.cfg.ClientID, r.cfg.ClientSecret, r.cfg.Realm)
	if err != nil {
		r.logger.Warn("identity login failed", "error", err)
		return "", fmt.Errorf("%w: login: %v", ErrUnavailable, err)
	}

	r.token = jwt.AccessToken
	r.expires = time.Now().Add(time.Duration(jwt.ExpiresIn)*time.Second - tokenLeeway)
	return r.token, nil
}

func mapError(err error) error {
	var apiErr *gocloak.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusConflict:
			return ErrDuplicate
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
