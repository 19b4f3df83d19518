package users_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/reactit/kycdesk/internal/users"
	"github.com/reactit/kycdesk/pkg/auth"
	"github.com/reactit/kycdesk/pkg/pagination"
	"github.com/reactit/kycdesk/pkg/routes"
)

type mockSystem struct {
	createFn func(ctx context.Context, cmd users.CreateCommand) (*users.User, error)
	findFn   func(ctx context.Context, id string) (*users.User, error)
	listFn   func(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[users.User], error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockSystem) Handler() *users.Handler { return nil }

func (m *mockSystem) Create(ctx context.Context, cmd users.CreateCommand) (*users.User, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockSystem) Find(ctx context.Context, id string) (*users.User, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[users.User], error) {
	return m.listFn(ctx, page)
}

func (m *mockSystem) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockSystem) Count(context.Context) (int, error) { return 0, nil }

func serve(sys users.System, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	routes.Register(mux, users.NewHandler(sys, logger, pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}).Routes())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestCurrent(t *testing.T) {
	sys := &mockSystem{
		findFn: func(_ context.Context, id string) (*users.User, error) {
			if id != "sub-1" {
				return nil, users.ErrNotFound
			}
			return &users.User{ID: id, Username: "alice"}, nil
		},
	}

	t.Run("principal", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		req = req.WithContext(auth.WithPrincipal(req.Context(), &auth.Principal{Subject: "sub-1"}))

		rec := serve(sys, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
		}

		var got users.User
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Username != "alice" {
			t.Errorf("username: got %q, want %q", got.Username, "alice")
		}
	})

	t.Run("unknown subject", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		req = req.WithContext(auth.WithPrincipal(req.Context(), &auth.Principal{Subject: "sub-2"}))

		if rec := serve(sys, req); rec.Code != http.StatusNotFound {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("no principal", func(t *testing.T) {
		rec := serve(sys, httptest.NewRequest(http.MethodGet, "/admin/users", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})
}

func TestList(t *testing.T) {
	var got pagination.PageRequest
	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.PageRequest) (*pagination.PageResult[users.User], error) {
			got = page
			result := pagination.NewPageResult([]users.User{{ID: "u-1"}, {ID: "u-2"}}, 2, page.Page, page.PageSize)
			return &result, nil
		},
	}

	rec := serve(sys, httptest.NewRequest(http.MethodGet, "/admin/users/all?page=1&page_size=10&search=ali", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if got.PageSize != 10 {
		t.Errorf("page size: got %d, want %d", got.PageSize, 10)
	}
	if got.Search == nil || *got.Search != "ali" {
		t.Errorf("search: got %v, want %q", got.Search, "ali")
	}
	if total := rec.Header().Get("X-Total-Count"); total != "2" {
		t.Errorf("total header: got %q, want %q", total, "2")
	}
}

func TestCreate(t *testing.T) {
	sys := &mockSystem{
		createFn: func(_ context.Context, cmd users.CreateCommand) (*users.User, error) {
			if cmd.Username == "taken" {
				return nil, users.ErrDuplicate
			}
			return &users.User{ID: "u-1", Username: cmd.Username, Email: cmd.Email, Enabled: true}, nil
		},
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{
			name: "valid",
			body: `{"username":"alice","email":"alice@example.com","firstName":"Alice","lastName":"Doe","password":"s3cret-pass"}`,
			want: http.StatusCreated,
		},
		{
			name: "invalid email",
			body: `{"username":"alice","email":"nope","firstName":"Alice","lastName":"Doe","password":"s3cret-pass"}`,
			want: http.StatusBadRequest,
		},
		{
			name: "short password",
			body: `{"username":"alice","email":"alice@example.com","firstName":"Alice","lastName":"Doe","password":"short"}`,
			want: http.StatusBadRequest,
		},
		{
			name: "duplicate",
			body: `{"username":"taken","email":"taken@example.com","firstName":"T","lastName":"K","password":"s3cret-pass"}`,
			want: http.StatusConflict,
		},
		{
			name: "malformed",
			body: `{`,
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin/users", strings.NewReader(tt.body))
			if rec := serve(sys, req); rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	var deleted string
	sys := &mockSystem{
		deleteFn: func(_ context.Context, id string) error {
			if id == "missing" {
				return users.ErrNotFound
			}
			deleted = id
			return nil
		},
	}

	rec := serve(sys, httptest.NewRequest(http.MethodDelete, "/admin/users/u-1", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusNoContent)
	}
	if deleted != "u-1" {
		t.Errorf("deleted: got %q, want %q", deleted, "u-1")
	}

	rec = serve(sys, httptest.NewRequest(http.MethodDelete, "/admin/users/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{users.ErrNotFound, http.StatusNotFound},
		{users.ErrDuplicate, http.StatusConflict},
		{users.ErrDisabled, http.StatusServiceUnavailable},
		{users.ErrUnavailable, http.StatusBadGateway},
		{auth.ErrMissingToken, http.StatusUnauthorized},
		{io.EOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := users.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v): got %d, want %d", tt.err, got, tt.want)
		}
	}
}
