package users

import (
	"log/slog"
	"net/http"

	"github.com/reactit/kycdesk/pkg/auth"
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
		logger:     logger.With("handler", "users"),
		pagination: pagination,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/admin/users",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Current},
			{Method: "GET", Pattern: "/all", Handler: h.List},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "DELETE", Pattern: "/{userId}", Handler: h.Delete},
		},
	}
}

// Current returns the Keycloak user behind the bearer token.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.FromContext(r.Context())
	if !ok || p.Subject == "" {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, auth.ErrMissingToken)
		return
	}

	u, err := h.sys.Find(r.Context(), p.Subject)
	handlers.Respond(w, h.logger, http.StatusOK, u, err, MapHTTPStatus)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.List(r.Context(), page)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.SetTotalCount(w, result.Total)
	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	cmd, ok := handlers.Bind(w, r, h.logger, func(c CreateCommand) error {
		return validation.Struct(entity, c)
	})
	if !ok {
		return
	}

	u, err := h.sys.Create(r.Context(), cmd)
	handlers.Respond(w, h.logger, http.StatusCreated, u, err, MapHTTPStatus)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.sys.Delete(r.Context(), r.PathValue("userId"))
	handlers.Respond(w, h.logger, http.StatusNoContent, nil, err, MapHTTPStatus)
}
