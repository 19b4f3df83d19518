package users_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/reactit/kycdesk/internal/config"
	"github.com/reactit/kycdesk/internal/users"
	"github.com/reactit/kycdesk/pkg/pagination"
)

// fakeKeycloak serves the token and admin user endpoints of one realm.
type fakeKeycloak struct {
	mu     sync.Mutex
	users  map[string]map[string]any
	logins atomic.Int32
}

func newFakeKeycloak(t *testing.T) (*fakeKeycloak, *httptest.Server) {
	t.Helper()

	fk := &fakeKeycloak{users: map[string]map[string]any{
		"u-1": {"id": "u-1", "username": "alice", "email": "alice@example.com", "enabled": true, "createdTimestamp": 1700000000000},
	}}

	mux := http.NewServeMux()
	var srv *httptest.Server

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}

	authorized := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return false
		}
		return true
	}

	mux.HandleFunc("POST /realms/kycdesk/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		fk.logins.Add(1)
		r.ParseForm()
		if r.PostForm.Get("client_secret") != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "test-token",
			"expires_in":   300,
			"token_type":   "Bearer",
		})
	})

	mux.HandleFunc("GET /admin/realms/kycdesk/users/count", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		fk.mu.Lock()
		defer fk.mu.Unlock()
		writeJSON(w, http.StatusOK, len(fk.users))
	})

	mux.HandleFunc("GET /admin/realms/kycdesk/users", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		fk.mu.Lock()
		defer fk.mu.Unlock()
		list := make([]map[string]any, 0, len(fk.users))
		for _, u := range fk.users {
			list = append(list, u)
		}
		writeJSON(w, http.StatusOK, list)
	})

	mux.HandleFunc("POST /admin/realms/kycdesk/users", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)

		fk.mu.Lock()
		defer fk.mu.Unlock()
		for _, u := range fk.users {
			if u["username"] == body["username"] {
				writeJSON(w, http.StatusConflict, map[string]string{"errorMessage": "User exists with same username"})
				return
			}
		}

		body["id"] = "u-new"
		delete(body, "credentials")
		fk.users["u-new"] = body

		w.Header().Set("Location", srv.URL+"/admin/realms/kycdesk/users/u-new")
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("GET /admin/realms/kycdesk/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		fk.mu.Lock()
		defer fk.mu.Unlock()
		u, ok := fk.users[r.PathValue("id")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
			return
		}
		writeJSON(w, http.StatusOK, u)
	})

	mux.HandleFunc("DELETE /admin/realms/kycdesk/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		fk.mu.Lock()
		defer fk.mu.Unlock()
		if _, ok := fk.users[r.PathValue("id")]; !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
			return
		}
		delete(fk.users, r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fk, srv
}

func newSystem(baseURL, secret string) users.System {
	cfg := &config.IdentityConfig{
		Enabled:      true,
		BaseURL:      baseURL,
		Realm:        "kycdesk",
		ClientID:     "kycdesk-admin",
		ClientSecret: secret,
		Timeout:      "5s",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return users.New(cfg, logger, pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})
}

func TestKeycloakFind(t *testing.T) {
	_, srv := newFakeKeycloak(t)
	sys := newSystem(srv.URL, "secret")

	u, err := sys.Find(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if u.Username != "alice" {
		t.Errorf("username: got %q, want %q", u.Username, "alice")
	}
	if u.CreatedAt == nil || u.CreatedAt.Year() != 2023 {
		t.Errorf("createdAt: got %v, want a 2023 timestamp", u.CreatedAt)
	}

	if _, err := sys.Find(context.Background(), "missing"); !errors.Is(err, users.ErrNotFound) {
		t.Errorf("missing: got %v, want %v", err, users.ErrNotFound)
	}
}

func TestKeycloakCreate(t *testing.T) {
	fk, srv := newFakeKeycloak(t)
	sys := newSystem(srv.URL, "secret")

	cmd := users.CreateCommand{
		Username:  "bob",
		Email:     "bob@example.com",
		FirstName: "Bob",
		LastName:  "Smith",
		Password:  "s3cret-pass",
	}

	u, err := sys.Create(context.Background(), cmd)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID != "u-new" {
		t.Errorf("id: got %q, want %q", u.ID, "u-new")
	}
	if !u.Enabled || !u.EmailVerified {
		t.Errorf("flags: got enabled=%v verified=%v, want both true", u.Enabled, u.EmailVerified)
	}

	if _, err := sys.Create(context.Background(), cmd); !errors.Is(err, users.ErrDuplicate) {
		t.Errorf("duplicate: got %v, want %v", err, users.ErrDuplicate)
	}

	if got := fk.logins.Load(); got != 1 {
		t.Errorf("logins: got %d, want %d", got, 1)
	}
}

func TestKeycloakListCountDelete(t *testing.T) {
	_, srv := newFakeKeycloak(t)
	sys := newSystem(srv.URL, "secret")
	ctx := context.Background()

	result, err := sys.List(ctx, pagination.PageRequest{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.Total != 1 || len(result.Data) != 1 {
		t.Errorf("list: got total=%d len=%d, want 1 and 1", result.Total, len(result.Data))
	}

	if err := sys.Delete(ctx, "u-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	n, err := sys.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("count: got %d, want %d", n, 0)
	}

	if err := sys.Delete(ctx, "u-1"); !errors.Is(err, users.ErrNotFound) {
		t.Errorf("delete missing: got %v, want %v", err, users.ErrNotFound)
	}
}

func TestKeycloakLoginFailure(t *testing.T) {
	_, srv := newFakeKeycloak(t)
	sys := newSystem(srv.URL, "wrong")

	_, err := sys.Count(context.Background())
	if !errors.Is(err, users.ErrUnavailable) {
		t.Errorf("got %v, want %v", err, users.ErrUnavailable)
	}
}

func TestDisabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sys := users.New(&config.IdentityConfig{}, logger, pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})

	if _, err := sys.Count(context.Background()); !errors.Is(err, users.ErrDisabled) {
		t.Errorf("count: got %v, want %v", err, users.ErrDisabled)
	}
	if _, err := sys.Find(context.Background(), "u-1"); !errors.Is(err, users.ErrDisabled) {
		t.Errorf("find: got %v, want %v", err, users.ErrDisabled)
	}
}
