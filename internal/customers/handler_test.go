package customers_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/reactit/kycdesk/internal/customers"
	"github.com/reactit/kycdesk/internal/kyc"
	"github.com/reactit/kycdesk/internal/verification"
	"github.com/reactit/kycdesk/pkg/pagination"
	"github.com/reactit/kycdesk/pkg/routes"
)

type mockSystem struct {
	listFn   func(ctx context.Context, page pagination.PageRequest, filters customers.Filters) (*pagination.PageResult[customers.Customer], error)
	findFn   func(ctx context.Context, id uuid.UUID) (*customers.Customer, error)
	createFn func(ctx context.Context, cmd customers.CreateCommand) (*customers.Customer, error)
	updateFn func(ctx context.Context, id uuid.UUID, cmd customers.UpdateCommand) (*customers.Customer, error)
	patchFn  func(ctx context.Context, id uuid.UUID, cmd customers.PatchCommand) (*customers.Customer, error)
	deleteFn func(ctx context.Context, id uuid.UUID) error
	verifyFn func(ctx context.Context, id uuid.UUID, cmd customers.VerifyCommand) (*customers.VerifyResult, error)
}

func (m *mockSystem) Handler() *customers.Handler { return nil }

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters customers.Filters) (*pagination.PageResult[customers.Customer], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*customers.Customer, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Create(ctx context.Context, cmd customers.CreateCommand) (*customers.Customer, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockSystem) Update(ctx context.Context, id uuid.UUID, cmd customers.UpdateCommand) (*customers.Customer, error) {
	return m.updateFn(ctx, id, cmd)
}

func (m *mockSystem) Patch(ctx context.Context, id uuid.UUID, cmd customers.PatchCommand) (*customers.Customer, error) {
	return m.patchFn(ctx, id, cmd)
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockSystem) Verify(ctx context.Context, id uuid.UUID, cmd customers.VerifyCommand) (*customers.VerifyResult, error) {
	return m.verifyFn(ctx, id, cmd)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var pageConfig = pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

const maxVerify = 4 << 10

func newMux(sys customers.System) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, customers.NewHandler(sys, discard(), pageConfig, maxVerify).Routes())
	return mux
}

func serve(t *testing.T, sys customers.System, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	newMux(sys).ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v: %s", err, rec.Body.String())
	}
	return body
}

func TestList(t *testing.T) {
	var gotPage pagination.PageRequest
	var gotFilters customers.Filters

	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.PageRequest, filters customers.Filters) (*pagination.PageResult[customers.Customer], error) {
			gotPage, gotFilters = page, filters
			data := []customers.Customer{{ID: uuid.New(), FullName: "John Doe", KYCStatus: kyc.StatusPending}}
			result := pagination.NewPageResult(data, 41, page.Page, page.PageSize)
			return &result, nil
		},
	}

	rec := serve(t, sys, http.MethodGet, "/customers?page=2&page_size=10&kycStatus=verified&search=doe", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("X-Total-Count"); got != "41" {
		t.Errorf("X-Total-Count: got %q, want 41", got)
	}
	if gotPage.Page != 2 || gotPage.PageSize != 10 {
		t.Errorf("page: got %d/%d, want 2/10", gotPage.Page, gotPage.PageSize)
	}
	if gotPage.Search == nil || *gotPage.Search != "doe" {
		t.Errorf("search: got %v, want doe", gotPage.Search)
	}
	if gotFilters.KYCStatus == nil || *gotFilters.KYCStatus != kyc.StatusVerified {
		t.Errorf("kycStatus filter: got %v, want VERIFIED", gotFilters.KYCStatus)
	}

	body := decodeBody(t, rec)
	if body["totalPages"] != float64(5) {
		t.Errorf("totalPages: got %v, want 5", body["totalPages"])
	}
}

func TestFind(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name     string
		target   string
		err      error
		wantCode int
		wantKey  string
	}{
		{"found", "/customers/" + id.String(), nil, http.StatusOK, ""},
		{"missing", "/customers/" + id.String(), customers.ErrNotFound, http.StatusNotFound, "idnotfound"},
		{"bad id", "/customers/not-a-uuid", nil, http.StatusBadRequest, "idinvalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				findFn: func(_ context.Context, got uuid.UUID) (*customers.Customer, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &customers.Customer{ID: got, FullName: "John Doe", KYCStatus: kyc.StatusPending}, nil
				},
			}

			rec := serve(t, sys, http.MethodGet, tt.target, "")

			if rec.Code != tt.wantCode {
				t.Fatalf("status: got %d, want %d", rec.Code, tt.wantCode)
			}
			body := decodeBody(t, rec)
			if tt.wantKey != "" && body["errorKey"] != tt.wantKey {
				t.Errorf("errorKey: got %v, want %s", body["errorKey"], tt.wantKey)
			}
			if tt.wantKey == "" && body["id"] != id.String() {
				t.Errorf("id: got %v, want %s", body["id"], id)
			}
		})
	}
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		sysErr   error
		wantCode int
		wantKey  string
		called   bool
	}{
		{
			name:     "created",
			body:     `{"fullName":"John Doe","email":"john@example.com","dateOfBirth":"1990-01-01","idNumber":"ID12345"}`,
			wantCode: http.StatusCreated,
			called:   true,
		},
		{
			name:     "id present",
			body:     `{"id":"` + uuid.NewString() + `","fullName":"John Doe"}`,
			wantCode: http.StatusBadRequest,
			wantKey:  "idexists",
		},
		{
			name:     "missing name",
			body:     `{"email":"john@example.com"}`,
			wantCode: http.StatusBadRequest,
			wantKey:  "validation",
		},
		{
			name:     "bad email",
			body:     `{"fullName":"John Doe","email":"not-an-email"}`,
			wantCode: http.StatusBadRequest,
			wantKey:  "validation",
		},
		{
			name:     "bad date",
			body:     `{"fullName":"John Doe","dateOfBirth":"01/01/1990"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "status set on create",
			body:     `{"fullName":"John Doe","kycStatus":"VERIFIED"}`,
			sysErr:   customers.ErrStatusImmutable,
			wantCode: http.StatusBadRequest,
			wantKey:  "statusimmutable",
			called:   true,
		},
		{
			name:     "unknown partner",
			body:     `{"fullName":"John Doe","partnerId":"` + uuid.NewString() + `"}`,
			sysErr:   customers.ErrInvalidPartner,
			wantCode: http.StatusBadRequest,
			wantKey:  "partnernotfound",
			called:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			sys := &mockSystem{
				createFn: func(_ context.Context, cmd customers.CreateCommand) (*customers.Customer, error) {
					called = true
					if tt.sysErr != nil {
						return nil, tt.sysErr
					}
					return &customers.Customer{
						ID:          uuid.New(),
						FullName:    cmd.FullName,
						Email:       cmd.Email,
						DateOfBirth: cmd.DateOfBirth,
						KYCStatus:   kyc.StatusPending,
						Version:     0,
					}, nil
				},
			}

			rec := serve(t, sys, http.MethodPost, "/customers", tt.body)

			if rec.Code != tt.wantCode {
				t.Fatalf("status: got %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if called != tt.called {
				t.Errorf("system called: got %v, want %v", called, tt.called)
			}

			body := decodeBody(t, rec)
			if tt.wantKey != "" && body["errorKey"] != tt.wantKey {
				t.Errorf("errorKey: got %v, want %s", body["errorKey"], tt.wantKey)
			}
			if rec.Code == http.StatusCreated {
				if body["kycStatus"] != "PENDING" {
					t.Errorf("kycStatus: got %v, want PENDING", body["kycStatus"])
				}
				if body["dateOfBirth"] != "1990-01-01" {
					t.Errorf("dateOfBirth: got %v, want 1990-01-01", body["dateOfBirth"])
				}
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name     string
		body     string
		sysErr   error
		wantCode int
		wantKey  string
	}{
		{"updated", `{"id":"` + id.String() + `","fullName":"John Q Doe","version":3}`, nil, http.StatusOK, ""},
		{"missing body id", `{"fullName":"John Doe"}`, nil, http.StatusBadRequest, "idnull"},
		{"other body id", `{"id":"` + uuid.NewString() + `","fullName":"John Doe"}`, nil, http.StatusBadRequest, "idinvalid"},
		{"absent row", `{"id":"` + id.String() + `","fullName":"John Doe"}`, customers.ErrNotFound, http.StatusNotFound, "idnotfound"},
		{"status changed", `{"id":"` + id.String() + `","fullName":"John Doe","kycStatus":"VERIFIED"}`, customers.ErrStatusImmutable, http.StatusBadRequest, "statusimmutable"},
		{"stale version", `{"id":"` + id.String() + `","fullName":"John Doe","version":1}`, customers.ErrVersionConflict, http.StatusConflict, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				updateFn: func(_ context.Context, got uuid.UUID, cmd customers.UpdateCommand) (*customers.Customer, error) {
					if got != id {
						t.Errorf("id: got %s, want %s", got, id)
					}
					if tt.sysErr != nil {
						return nil, tt.sysErr
					}
					return &customers.Customer{ID: got, FullName: cmd.FullName, KYCStatus: kyc.StatusPending, Version: *cmd.Version + 1}, nil
				},
			}

			rec := serve(t, sys, http.MethodPut, "/customers/"+id.String(), tt.body)

			if rec.Code != tt.wantCode {
				t.Fatalf("status: got %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			body := decodeBody(t, rec)
			if tt.wantKey != "" && body["errorKey"] != tt.wantKey {
				t.Errorf("errorKey: got %v, want %s", body["errorKey"], tt.wantKey)
			}
			if rec.Code == http.StatusOK && body["version"] != float64(4) {
				t.Errorf("version: got %v, want 4", body["version"])
			}
		})
	}
}

func TestPatch(t *testing.T) {
	id := uuid.New()
	var got customers.PatchCommand

	sys := &mockSystem{
		patchFn: func(_ context.Context, _ uuid.UUID, cmd customers.PatchCommand) (*customers.Customer, error) {
			got = cmd
			return &customers.Customer{ID: id, FullName: "John Doe", Phone: cmd.Phone, KYCStatus: kyc.StatusPending}, nil
		},
	}

	rec := serve(t, sys, http.MethodPatch, "/customers/"+id.String(), `{"id":"`+id.String()+`","phone":"555-0100"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if got.Phone == nil || *got.Phone != "555-0100" {
		t.Errorf("phone: got %v, want 555-0100", got.Phone)
	}
	if got.FullName != nil || got.Email != nil || got.DateOfBirth != nil {
		t.Errorf("absent fields should stay nil: %+v", got)
	}

	t.Run("empty name rejected", func(t *testing.T) {
		rec := serve(t, sys, http.MethodPatch, "/customers/"+id.String(), `{"id":"`+id.String()+`","fullName":""}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestDelete(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"deleted", nil, http.StatusNoContent},
		{"missing", customers.ErrNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				deleteFn: func(context.Context, uuid.UUID) error { return tt.err },
			}

			rec := serve(t, sys, http.MethodDelete, "/customers/"+id.String(), "")
			if rec.Code != tt.wantCode {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestVerify(t *testing.T) {
	id := uuid.New()
	docID := uuid.New()

	tests := []struct {
		name     string
		body     string
		result   *customers.VerifyResult
		err      error
		wantCode int
	}{
		{
			name: "verified from document",
			body: `{"documentId":"` + docID.String() + `","version":2}`,
			result: &customers.VerifyResult{
				Customer:     &customers.Customer{ID: id, FullName: "John Doe", KYCStatus: kyc.StatusVerified, Version: 3},
				Verification: &verification.Result{Status: kyc.StatusVerified},
			},
			wantCode: http.StatusOK,
		},
		{"no source", `{}`, nil, customers.ErrInvalidVerify, http.StatusBadRequest},
		{"concurrent write", `{"imageBase64":"aW1n"}`, nil, customers.ErrVersionConflict, http.StatusConflict},
		{"ocr down", `{"imageBase64":"aW1n"}`, nil, &verification.InfraError{Stage: "ocr", Err: errors.New("exit status 1")}, http.StatusBadGateway},
		{"customer missing", `{"imageBase64":"aW1n"}`, nil, customers.ErrNotFound, http.StatusNotFound},
		{"body too large", `{"imageBase64":"` + strings.Repeat("A", maxVerify) + `"}`, nil, nil, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				verifyFn: func(_ context.Context, got uuid.UUID, cmd customers.VerifyCommand) (*customers.VerifyResult, error) {
					if got != id {
						t.Errorf("id: got %s, want %s", got, id)
					}
					return tt.result, tt.err
				},
			}

			rec := serve(t, sys, http.MethodPost, "/customers/"+id.String()+"/verify", tt.body)

			if rec.Code != tt.wantCode {
				t.Fatalf("status: got %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}

			body := decodeBody(t, rec)
			customer, _ := body["customer"].(map[string]any)
			if customer["kycStatus"] != "VERIFIED" {
				t.Errorf("customer.kycStatus: got %v, want VERIFIED", customer["kycStatus"])
			}
			decision, _ := body["verification"].(map[string]any)
			if decision["status"] != "VERIFIED" {
				t.Errorf("verification.status: got %v, want VERIFIED", decision["status"])
			}
		})
	}
}
