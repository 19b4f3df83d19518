package samples

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/reactit/kycdesk/pkg/handlers"
	"github.com/reactit/kycdesk/pkg/routes"
)

var ErrInvalidCount = errors.New("count must be a positive integer")

type Handler struct {
	sys    System
	logger *slog.Logger
}

func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{sys: sys, logger: logger.With("handler", "samples")}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/v1",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/test-data", Handler: h.TestData},
		},
	}
}

// TestData returns ?count fake users, DefaultCount when absent and at most
// MaxCount.
func (h *Handler) TestData(w http.ResponseWriter, r *http.Request) {
	count := DefaultCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidCount)
			return
		}
		count = min(n, MaxCount)
	}

	users, err := h.sys.Generate(count)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, users)
}
