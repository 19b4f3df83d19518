package customers

import (
	"log/slog"
	"net/http"

	"github.com/reactit/kycdesk/pkg/handlers"
	"github.com/reactit/kycdesk/pkg/pagination"
	"github.com/reactit/kycdesk/pkg/routes"
	"github.com/reactit/kycdesk/pkg/validation"
)

// Handler provides HTTP endpoints for customer operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
	maxVerify  int64
}

// NewHandler builds the customer handler. Verify bodies over maxVerify bytes
// are answered with 413.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config, maxVerify int64) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "customers"),
		pagination: pagination,
		maxVerify:  maxVerify,
	}
}

// Routes returns the route group definition for customer endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/customers",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "PUT", Pattern: "/{id}", Handler: h.Update},
			{Method: "PATCH", Pattern: "/{id}", Handler: h.Patch},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
			{Method: "POST", Pattern: "/{id}/verify", Handler: h.Verify},
		},
	}
}

// List returns a page of customers and sets X-Total-Count.
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

	c, err := h.sys.Find(r.Context(), id)
	handlers.Respond(w, h.logger, http.StatusOK, c, err, MapHTTPStatus)
}

// Create stores a new customer in PENDING.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	cmd, ok := handlers.Bind(w, r, h.logger, func(c CreateCommand) error {
		return validation.Create(entity, c.ID, c)
	})
	if !ok {
		return
	}

	c, err := h.sys.Create(r.Context(), cmd)
	handlers.Respond(w, h.logger, http.StatusCreated, c, err, MapHTTPStatus)
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

	c, err := h.sys.Update(r.Context(), id, cmd)
	handlers.Respond(w, h.logger, http.StatusOK, c, err, MapHTTPStatus)
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

	c, err := h.sys.Patch(r.Context(), id, cmd)
	handlers.Respond(w, h.logger, http.StatusOK, c, err, MapHTTPStatus)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathUUID(w, r, h.logger, "id", ErrInvalidID)
	if !ok {
		return
	}

	handlers.Respond(w, h.logger, http.StatusNoContent, nil, h.sys.Delete(r.Context(), id), MapHTTPStatus)
}

// Verify runs verification for the customer and returns the customer with
// its new status and the decision details.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathUUID(w, r, h.logger, "id", ErrInvalidID)
	if !ok {
		return
	}
	handlers.LimitBody(w, r, h.maxVerify)
	cmd, ok := handlers.Bind[VerifyCommand](w, r, h.logger, nil)
	if !ok {
		return
	}

	result, err := h.sys.Verify(r.Context(), id, cmd)
	handlers.Respond(w, h.logger, http.StatusOK, result, err, MapHTTPStatus)
}
