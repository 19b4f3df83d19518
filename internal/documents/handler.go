package documents

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/reactit/kycdesk/pkg/handlers"
	"github.com/reactit/kycdesk/pkg/pagination"
	"github.com/reactit/kycdesk/pkg/routes"
	"github.com/reactit/kycdesk/pkg/validation"
)

// Handler provides HTTP endpoints for document operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// NewHandler creates a Handler. Multipart uploads larger than maxUploadSize
// are rejected.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "documents"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for document endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/documents",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "POST", Pattern: "/upload", Handler: h.Upload},
			{Method: "PUT", Pattern: "/{id}", Handler: h.Update},
			{Method: "PATCH", Pattern: "/{id}", Handler: h.Patch},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
			{Method: "POST", Pattern: "/{id}/analyze", Handler: h.Analyze},
		},
	}
}

// List returns a page of documents and sets X-Total-Count.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.sys.List(r.Context(), pagination.PageRequestFromQuery(q, h.pagination), FiltersFromQuery(q))
	handlers.RespondPage(w, h.logger, result, err)
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathUUID(w, r, h.logger, "id", ErrInvalidID)
	if !ok {
		return
	}

	doc, err := h.sys.Find(r.Context(), id)
	handlers.Respond(w, h.logger, http.StatusOK, doc, err, MapHTTPStatus)
}

// Create registers a document by URL without uploading a file.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	cmd, ok := handlers.Bind(w, r, h.logger, func(c CreateCommand) error {
		return validation.Create(entity, c.ID, c)
	})
	if !ok {
		return
	}

	doc, err := h.sys.Create(r.Context(), cmd)
	handlers.Respond(w, h.logger, http.StatusCreated, doc, err, MapHTTPStatus)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathUUID(w, r, h.logger, "id", ErrInvalidID)
	if !ok {
		return
	}
	cmd, ok := handlers.Bind(w, r, h.logger, func(c UpdateCommand) error {
		return validation.Update(entity, id, c.ID, c)
	})
	if !ok {
		return
	}

	doc, err := h.sys.Update(r.Context(), id, cmd)
	handlers.Respond(w, h.logger, http.StatusOK, doc, err, MapHTTPStatus)
}

func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathUUID(w, r, h.logger, "id", ErrInvalidID)
	if !ok {
		return
	}
	cmd, ok := handlers.Bind(w, r, h.logger, func(c PatchCommand) error {
		return validation.Update(entity, id, c.ID, c)
	})
	if !ok {
		return
	}

	doc, err := h.sys.Patch(r.Context(), id, cmd)
	handlers.Respond(w, h.logger, http.StatusOK, doc, err, MapHTTPStatus)
}

// Delete removes the record and then its stored file, if any.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathUUID(w, r, h.logger, "id", ErrInvalidID)
	if !ok {
		return
	}

	handlers.Respond(w, h.logger, http.StatusNoContent, nil, h.sys.Delete(r.Context(), id), MapHTTPStatus)
}

// Upload accepts a multipart form with customerId and file fields.
// PDF page counts are read with pdfcpu.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidUpload)
		return
	}

	customerID, err := uuid.Parse(r.FormValue("customerId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidUpload)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidUpload)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidUpload)
		return
	}

	contentType := detectContentType(header.Header.Get("Content-Type"), data)

	cmd := UploadCommand{
		CustomerID:  customerID,
		Data:        data,
		Filename:    header.Filename,
		ContentType: contentType,
		PageCount:   pdfPageCount(h.logger, data, contentType),
	}

	doc, err := h.sys.Upload(r.Context(), cmd)
	handlers.Respond(w, h.logger, http.StatusCreated, doc, err, MapHTTPStatus)
}

// Analyze re-runs quality analysis on the stored file.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathUUID(w, r, h.logger, "id", ErrInvalidID)
	if !ok {
		return
	}

	doc, err := h.sys.Analyze(r.Context(), id)
	handlers.Respond(w, h.logger, http.StatusOK, doc, err, MapHTTPStatus)
}

func detectContentType(header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header != "" && header != "application/octet-stream" {
		if mt, _, ok := strings.Cut(header, ";"); ok {
			return strings.TrimSpace(mt)
		}
		return header
	}
	mt, _, _ := strings.Cut(http.DetectContentType(data), ";")
	return mt
}

func pdfPageCount(logger *slog.Logger, data []byte, contentType string) *int {
	if contentType != "application/pdf" {
		return nil
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		logger.Warn("failed to read PDF page count", "error", err, "size", len(data))
		return nil
	}

	return &count
}
