package storage

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound   = errors.New("blob not found")
	ErrEmptyKey   = errors.New("storage key must not be empty")
	ErrInvalidKey = errors.New("storage key contains invalid path segment")
	// ErrSigningUnavailable is returned by SignedURL when the client was
	// built from a token credential rather than a shared key.
	ErrSigningUnavailable = errors.New("storage credential cannot sign urls")
	ErrTooLarge           = errors.New("blob exceeds size limit")
)

// MapHTTPStatus picks the response status for a storage failure surfaced by
// the file endpoints.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyKey), errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrSigningUnavailable):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
