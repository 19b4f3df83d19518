package documents_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/reactit/kycdesk/internal/analysis"
	"github.com/reactit/kycdesk/internal/documents"
	"github.com/reactit/kycdesk/pkg/pagination"
	"github.com/reactit/kycdesk/pkg/routes"
)

type mockSystem struct {
	listFn    func(ctx context.Context, page pagination.PageRequest, filters documents.Filters) (*pagination.PageResult[documents.Document], error)
	findFn    func(ctx context.Context, id uuid.UUID) (*documents.Document, error)
	createFn  func(ctx context.Context, cmd documents.CreateCommand) (*documents.Document, error)
	updateFn  func(ctx context.Context, id uuid.UUID, cmd documents.UpdateCommand) (*documents.Document, error)
	patchFn   func(ctx context.Context, id uuid.UUID, cmd documents.PatchCommand) (*documents.Document, error)
	deleteFn  func(ctx context.Context, id uuid.UUID) error
	uploadFn  func(ctx context.Context, cmd documents.UploadCommand) (*documents.Document, error)
	analyzeFn func(ctx context.Context, id uuid.UUID) (*documents.Document, error)
}

func (m *mockSystem) Handler(int64) *documents.Handler { return nil }

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters documents.Filters) (*pagination.PageResult[documents.Document], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*documents.Document, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Create(ctx context.Context, cmd documents.CreateCommand) (*documents.Document, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockSystem) Update(ctx context.Context, id uuid.UUID, cmd documents.UpdateCommand) (*documents.Document, error) {
	return m.updateFn(ctx, id, cmd)
}

func (m *mockSystem) Patch(ctx context.Context, id uuid.UUID, cmd documents.PatchCommand) (*documents.Document, error) {
	return m.patchFn(ctx, id, cmd)
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockSystem) Upload(ctx context.Context, cmd documents.UploadCommand) (*documents.Document, error) {
	return m.uploadFn(ctx, cmd)
}

func (m *mockSystem) Analyze(ctx context.Context, id uuid.UUID) (*documents.Document, error) {
	return m.analyzeFn(ctx, id)
}

func (m *mockSystem) Image(context.Context, uuid.UUID, uuid.UUID) ([]byte, error) {
	return nil, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const maxUpload = 1 << 20

func serveRequest(sys documents.System, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h := documents.NewHandler(sys, discard(), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}, maxUpload)
	routes.Register(mux, h.Routes())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func serve(sys documents.System, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	return serveRequest(sys, httptest.NewRequest(method, target, reader))
}

func multipartRequest(t *testing.T, fields map[string]string, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		if contentType != "" {
			hdr.Set("Content-Type", contentType)
		}
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(data)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/documents/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
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
	customer := uuid.New()
	var got documents.Filters

	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.PageRequest, filters documents.Filters) (*pagination.PageResult[documents.Document], error) {
			got = filters
			result := pagination.NewPageResult([]documents.Document{{ID: uuid.New(), CustomerID: customer}}, 1, page.Page, page.PageSize)
			return &result, nil
		},
	}

	rec := serve(sys, http.MethodGet, "/documents?customerId="+customer.String(), "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Header().Get("X-Total-Count") != "1" {
		t.Errorf("X-Total-Count: got %q, want 1", rec.Header().Get("X-Total-Count"))
	}
	if got.CustomerID == nil || *got.CustomerID != customer {
		t.Errorf("customerId filter: got %v, want %s", got.CustomerID, customer)
	}
}

func TestFind(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		sys := &mockSystem{
			findFn: func(context.Context, uuid.UUID) (*documents.Document, error) {
				return nil, documents.ErrNotFound
			},
		}
		rec := serve(sys, http.MethodGet, "/documents/"+uuid.NewString(), "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("bad id", func(t *testing.T) {
		rec := serve(&mockSystem{}, http.MethodGet, "/documents/nope", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestCreate(t *testing.T) {
	customer := uuid.New()

	tests := []struct {
		name     string
		body     string
		sysErr   error
		wantCode int
		wantKey  string
	}{
		{"created", `{"customerId":"` + customer.String() + `","fileUrl":"https://files.example.com/id.png"}`, nil, http.StatusCreated, ""},
		{"missing url", `{"customerId":"` + customer.String() + `"}`, nil, http.StatusBadRequest, "validation"},
		{"missing customer", `{"fileUrl":"https://files.example.com/id.png"}`, nil, http.StatusBadRequest, "validation"},
		{"negative score", `{"customerId":"` + customer.String() + `","fileUrl":"x","qualityScore":-1}`, nil, http.StatusBadRequest, "validation"},
		{"unknown customer", `{"customerId":"` + customer.String() + `","fileUrl":"x"}`, documents.ErrInvalidOwner, http.StatusBadRequest, "customernotfound"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				createFn: func(_ context.Context, cmd documents.CreateCommand) (*documents.Document, error) {
					if tt.sysErr != nil {
						return nil, tt.sysErr
					}
					return &documents.Document{ID: uuid.New(), CustomerID: *cmd.CustomerID, FileURL: cmd.FileURL}, nil
				},
			}

			rec := serve(sys, http.MethodPost, "/documents", tt.body)

			if rec.Code != tt.wantCode {
				t.Fatalf("status: got %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			body := decodeBody(t, rec)
			if tt.wantKey != "" && body["errorKey"] != tt.wantKey {
				t.Errorf("errorKey: got %v, want %s", body["errorKey"], tt.wantKey)
			}
		})
	}
}

func TestUpdateAndPatch(t *testing.T) {
	id := uuid.New()
	customer := uuid.New()

	sys := &mockSystem{
		updateFn: func(_ context.Context, got uuid.UUID, cmd documents.UpdateCommand) (*documents.Document, error) {
			return &documents.Document{ID: got, CustomerID: *cmd.CustomerID, FileURL: cmd.FileURL}, nil
		},
		patchFn: func(_ context.Context, got uuid.UUID, cmd documents.PatchCommand) (*documents.Document, error) {
			if cmd.FileURL != nil {
				t.Errorf("fileUrl: got %v, want nil", *cmd.FileURL)
			}
			return &documents.Document{ID: got, CustomerID: customer, Issues: cmd.Issues}, nil
		},
	}

	rec := serve(sys, http.MethodPut, "/documents/"+id.String(),
		`{"id":"`+id.String()+`","customerId":"`+customer.String()+`","fileUrl":"/files/a.png"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("put status: got %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	rec = serve(sys, http.MethodPut, "/documents/"+id.String(),
		`{"id":"`+uuid.NewString()+`","customerId":"`+customer.String()+`","fileUrl":"/files/a.png"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("mismatched id status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = serve(sys, http.MethodPatch, "/documents/"+id.String(), `{"id":"`+id.String()+`","issues":"Glare detected"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status: got %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["issues"] != "Glare detected" {
		t.Errorf("issues: got %v, want Glare detected", body["issues"])
	}
}

func TestDelete(t *testing.T) {
	sys := &mockSystem{
		deleteFn: func(context.Context, uuid.UUID) error { return nil },
	}
	rec := serve(sys, http.MethodDelete, "/documents/"+uuid.NewString(), "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestUpload(t *testing.T) {
	customer := uuid.New()
	pngHeader := []byte("\x89PNG\r\n\x1a\n0000000000000000")

	t.Run("stores file", func(t *testing.T) {
		var got documents.UploadCommand
		sys := &mockSystem{
			uploadFn: func(_ context.Context, cmd documents.UploadCommand) (*documents.Document, error) {
				got = cmd
				key := "documents/x/" + cmd.Filename
				return &documents.Document{ID: uuid.New(), CustomerID: cmd.CustomerID, StorageKey: &key}, nil
			},
		}

		req := multipartRequest(t, map[string]string{"customerId": customer.String()}, "passport.png", "", pngHeader)
		rec := serveRequest(sys, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status: got %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		if got.CustomerID != customer {
			t.Errorf("customer: got %s, want %s", got.CustomerID, customer)
		}
		if got.ContentType != "image/png" {
			t.Errorf("content type: got %q, want image/png", got.ContentType)
		}
		if got.Filename != "passport.png" {
			t.Errorf("filename: got %q, want passport.png", got.Filename)
		}
		if got.PageCount != nil {
			t.Errorf("page count: got %v, want nil", *got.PageCount)
		}
	})

	tests := []struct {
		name     string
		fields   map[string]string
		filename string
		data     []byte
		wantCode int
	}{
		{"missing customer", map[string]string{}, "a.png", pngHeader, http.StatusBadRequest},
		{"bad customer", map[string]string{"customerId": "abc"}, "a.png", pngHeader, http.StatusBadRequest},
		{"missing file", map[string]string{"customerId": customer.String()}, "", nil, http.StatusBadRequest},
		{"empty file", map[string]string{"customerId": customer.String()}, "a.png", []byte{}, http.StatusBadRequest},
		{"too large", map[string]string{"customerId": customer.String()}, "a.png", make([]byte, maxUpload+1), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				uploadFn: func(context.Context, documents.UploadCommand) (*documents.Document, error) {
					t.Error("upload should not be called")
					return nil, nil
				},
			}
			rec := serveRequest(sys, multipartRequest(t, tt.fields, tt.filename, "image/png", tt.data))
			if rec.Code != tt.wantCode {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestAnalyze(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"scored", nil, http.StatusOK},
		{"no stored file", documents.ErrNoStoredFile, http.StatusBadRequest},
		{"analyzer failed", &analysis.FailedError{Stderr: "boom", Err: errors.New("exit status 1")}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				analyzeFn: func(_ context.Context, got uuid.UUID) (*documents.Document, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					score, issues := 80.0, "Image may be rotated"
					return &documents.Document{ID: got, QualityScore: &score, Issues: &issues}, nil
				},
			}

			rec := serve(sys, http.MethodPost, "/documents/"+id.String()+"/analyze", "")
			if rec.Code != tt.wantCode {
				t.Fatalf("status: got %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.err == nil {
				if body := decodeBody(t, rec); body["qualityScore"] != float64(80) {
					t.Errorf("qualityScore: got %v, want 80", body["qualityScore"])
				}
			}
		})
	}
}
