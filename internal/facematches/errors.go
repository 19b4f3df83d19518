package facematches

import (
	"errors"
	"net/http"

	"github.com/reactit/kycdesk/internal/faceverify"
	"github.com/reactit/kycdesk/pkg/validation"
)

var (
	ErrNotFound     = validation.New(entity, validation.KeyNotFound, "face match not found")
	ErrDuplicate    = errors.New("face match already exists")
	ErrInvalidID    = validation.New(entity, validation.KeyIDInvalid, "invalid id")
	ErrInvalidOwner = validation.New(entity, "customernotfound", "customer does not exist")
)

// MapHTTPStatus maps face match errors to HTTP status codes. Comparator
// errors keep the faceverify mapping.
func MapHTTPStatus(err error) int {
	var verr *validation.Error
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.As(err, &verr):
		return http.StatusBadRequest
	}
	return faceverify.MapHTTPStatus(err)
}
