package verification

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/reactit/kycdesk/pkg/validation"
)

var ErrInvalidRequest = errors.New("invalid verification request")

// InfraError reports that a collaborator needed for the decision could not
// be reached or failed. The verified record is left unchanged.
type InfraError struct {
	Stage string
	Err   error
}

func (e *InfraError) Error() string {
	return fmt.Sprintf("verification %s failed: %v", e.Stage, e.Err)
}

func (e *InfraError) Unwrap() error {
	return e.Err
}

// IsInfraError reports whether err is or wraps an *InfraError.
func IsInfraError(err error) bool {
	var ie *InfraError
	return errors.As(err, &ie)
}

// MapHTTPStatus maps verification errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case IsInfraError(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
