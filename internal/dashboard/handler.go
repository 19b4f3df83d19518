package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/reactit/kycdesk/pkg/handlers"
	"github.com/reactit/kycdesk/pkg/routes"
)

type Handler struct {
	sys    System
	logger *slog.Logger
}

func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{sys: sys, logger: logger.With("handler", "dashboard")}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/admin/dashboard",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Get},
		},
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.sys.Build(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, d)
}
