package facematches

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/reactit/kycdesk/internal/faceverify"
	"github.com/reactit/kycdesk/pkg/handlers"
	"github.com/reactit/kycdesk/pkg/pagination"
	"github.com/reactit/kycdesk/pkg/routes"
	"github.com/reactit/kycdesk/pkg/validation"
)

var errVerifyCustomer = validation.New(entity, validation.KeyInvalid, "customerId is required")

type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "facematches"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/face-matches",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "POST", Pattern: "/verify", Handler: h.Verify},
			{Method: "PUT", Pattern: "/{id}", Handler: h.Update},
			{Method: "PATCH", Pattern: "/{id}", Handler: h.Patch},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
		},
	}
}

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

	m, err := h.sys.Find(r.Context(), id)
	handlers.Respond(w, h.logger, http.StatusOK, m, err, MapHTTPStatus)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	cmd, ok := handlers.Bind(w, r, h.logger, func(c CreateCommand) error {
		return validation.Create(entity, c.ID, c)
	})
	if !ok {
		return
	}

	m, err := h.sys.Create(r.Context(), cmd)
	handlers.Respond(w, h.logger, http.StatusCreated, m, err, MapHTTPStatus)
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

	m, err := h.sys.Update(r.Context(), id, cmd)
	handlers.Respond(w, h.logger, http.StatusOK, m, err, MapHTTPStatus)
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

	m, err := h.sys.Patch(r.Context(), id, cmd)
	handlers.Respond(w, h.logger, http.StatusOK, m, err, MapHTTPStatus)
}

// Delete removes the record and both stored images.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathUUID(w, r, h.logger, "id", ErrInvalidID)
	if !ok {
		return
	}

	handlers.Respond(w, h.logger, http.StatusNoContent, nil, h.sys.Delete(r.Context(), id), MapHTTPStatus)
}

// Verify compares the multipart "selfie" and "idPhoto" images for the
// customer in "customerId" and stores the result.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, faceverify.ErrFileTooLarge)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	customerID, err := uuid.Parse(r.FormValue("customerId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errVerifyCustomer)
		return
	}

	selfie, err := faceverify.FormImage(r, "selfie")
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	idPhoto, err := faceverify.FormImage(r, "idPhoto")
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	result, err := h.sys.Verify(r.Context(), VerifyCommand{
		CustomerID: customerID,
		Selfie:     selfie,
		IDPhoto:    idPhoto,
	})
	handlers.Respond(w, h.logger, http.StatusCreated, result, err, MapHTTPStatus)
}
