package verification

import (
	"log/slog"
	"net/http"

	"github.com/reactit/kycdesk/internal/kyc"
	"github.com/reactit/kycdesk/pkg/handlers"
	"github.com/reactit/kycdesk/pkg/routes"
)

// requestSlack covers the JSON envelope around an encoded image.
const requestSlack = 64 << 10

// Handler verifies in-memory test users.
type Handler struct {
	sys     System
	logger  *slog.Logger
	maxBody int64
}

// NewHandler builds the handler. Request bodies over maxBody bytes are
// answered with 413.
func NewHandler(sys System, logger *slog.Logger, maxBody int64) *Handler {
	return &Handler{
		sys:     sys,
		logger:  logger.With("handler", "verification"),
		maxBody: maxBody,
	}
}

// MaxRequestBytes is the largest JSON body that can carry a base64 image
// of maxImage decoded bytes.
func MaxRequestBytes(maxImage int64) int64 {
	return base64Len(maxImage) + requestSlack
}

func base64Len(n int64) int64 {
	return (n + 2) / 3 * 4
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/v1",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/verify-user", Handler: h.VerifyUser},
		},
	}
}

// VerifyUser runs verification on the user's document image and returns the
// user with kycStatus set to VERIFIED or REJECTED.
func (h *Handler) VerifyUser(w http.ResponseWriter, r *http.Request) {
	handlers.LimitBody(w, r, h.maxBody)
	user, err := handlers.DecodeJSON[kyc.TestUser](r)
	if err != nil {
		status := handlers.DecodeStatus(err)
		if status == http.StatusBadRequest {
			err = ErrInvalidRequest
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}

	res, err := h.sys.VerifyBase64(r.Context(), user.Claim(), user.DocumentImageBase64)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	user.KYCStatus = res.Status
	h.logger.Info("test user verified", "id", user.ID, "status", res.Status, "reason", res.Reason)

	handlers.RespondJSON(w, http.StatusOK, user)
}
