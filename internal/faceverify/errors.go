package faceverify

import (
	"errors"
	"net/http"
)

var (
	ErrComparatorFailed = errors.New("face comparator failed")
	ErrMissingImage     = errors.New("missing image")
	ErrInvalidForm      = errors.New("request is not a valid multipart form")
	ErrFileTooLarge     = errors.New("file exceeds maximum upload size")
)

// MapHTTPStatus maps face verification errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrMissingImage), errors.Is(err, ErrInvalidForm):
		return http.StatusBadRequest
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrComparatorFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
