package partners

import (
	"log/slog"
	"net/http"

	"github.com/reactit/kycdesk/pkg/handlers"
	"github.com/reactit/kycdesk/pkg/pagination"
	"github.com/reactit/kycdesk/pkg/routes"
	"github.com/reactit/kycdesk/pkg/validation"
)

type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "partners"),
		pagination: pagination,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/partners",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "", Handler: h.Create},
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

	p, err := h.sys.Find(r.Context(), id)
	handlers.Respond(w, h.logger, http.StatusOK, p, err, MapHTTPStatus)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	cmd, ok := handlers.Bind(w, r, h.logger, func(c CreateCommand) error {
		return validation.Create(entity, c.ID, c)
	})
	if !ok {
		return
	}

	p, err := h.sys.Create(r.Context(), cmd)
	handlers.Respond(w, h.logger, http.StatusCreated, p, err, MapHTTPStatus)
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

	p, err := h.sys.Update(r.Context(), id, cmd)
	handlers.Respond(w, h.logger, http.StatusOK, p, err, MapHTTPStatus)
}

// Patch changes only the fields present in the body.
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

	p, err := h.sys.Patch(r.Context(), id, cmd)
	handlers.Respond(w, h.logger, http.StatusOK, p, err, MapHTTPStatus)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathUUID(w, r, h.logger, "id", ErrInvalidID)
	if !ok {
		return
	}

	handlers.Respond(w, h.logger, http.StatusNoContent, nil, h.sys.Delete(r.Context(), id), MapHTTPStatus)
}
