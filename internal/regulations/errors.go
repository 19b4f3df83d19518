package regulations

import (
	"errors"
	"net/http"

	"github.com/reactit/kycdesk/pkg/validation"
)

var (
	ErrNotFound  = validation.New(entity, validation.KeyNotFound, "regulation not found")
	ErrDuplicate = errors.New("regulation already exists")
	ErrInvalidID = validation.New(entity, validation.KeyIDInvalid, "invalid id")
)

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
	return http.StatusInternalServerError
}
