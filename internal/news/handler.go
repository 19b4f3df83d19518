package news

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
	return &Handler{sys: sys, logger: logger.With("handler", "news")}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/news",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	articles, err := h.sys.Articles(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, articles)
}
