package users

import (
	"errors"
	"net/http"

	"github.com/reactit/kycdesk/pkg/auth"
	"github.com/reactit/kycdesk/pkg/validation"
)

var (
	ErrNotFound    = validation.New(entity, validation.KeyNotFound, "user not found")
	ErrDuplicate   = errors.New("user with this username or email already exists")
	ErrDisabled    = errors.New("identity provider is not configured")
	ErrUnavailable = errors.New("identity provider request failed")
)

func MapHTTPStatus(err error) int {
	var verr *validation.Error
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized
	case errors.As(err, &verr):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
