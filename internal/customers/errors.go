package customers

import (
	"errors"
	"net/http"

	"github.com/reactit/kycdesk/internal/verification"
	"github.com/reactit/kycdesk/pkg/storage"
	"github.com/reactit/kycdesk/pkg/validation"
)

// KeyStatusImmutable rejects writes that try to set kycStatus directly.
const KeyStatusImmutable = "statusimmutable"

// Domain errors for customer operations.
var (
	ErrNotFound        = validation.New(entity, validation.KeyNotFound, "customer not found")
	ErrDuplicate       = errors.New("customer already exists")
	ErrVersionConflict = errors.New("customer was modified concurrently")
	ErrStatusImmutable = validation.New(entity, KeyStatusImmutable, "kycStatus can only change through verification")
	ErrInvalidID       = validation.New(entity, validation.KeyIDInvalid, "invalid id")
	ErrInvalidPartner  = validation.New(entity, "partnernotfound", "partner does not exist")
	ErrInvalidVerify   = validation.New(entity, "verifysource", "exactly one of documentId or imageBase64 is required")
)

// MapHTTPStatus maps customer domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	var verr *validation.Error
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrVersionConflict):
		return http.StatusConflict
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case verification.IsInfraError(err):
		return http.StatusBadGateway
	}
	return verification.MapHTTPStatus(err)
}
