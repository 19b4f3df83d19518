package analysis

import (
	"errors"
	"net/http"
)

var (
	ErrAnalyzerFailed    = errors.New("image analyzer failed")
	ErrAnalyzerReported  = errors.New("image analyzer reported an error")
	ErrAnalyzerMalformed = errors.New("image analyzer output is malformed")
	ErrNoImage           = errors.New("no file uploaded")
	ErrFetchFailed       = errors.New("could not fetch image")
	ErrBlockedHost       = errors.New("image url resolves to a non-public address")
	ErrFileTooLarge      = errors.New("file exceeds maximum upload size")
)

// FailedError reports an analyzer process that could not run to completion.
// It matches ErrAnalyzerFailed.
type FailedError struct {
	Stderr string
	Err    error
}

func (e *FailedError) Error() string {
	return ErrAnalyzerFailed.Error() + ": " + e.Err.Error()
}

func (e *FailedError) Unwrap() []error {
	return []error{ErrAnalyzerFailed, e.Err}
}

// MapHTTPStatus maps analysis errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNoImage), errors.Is(err, ErrFetchFailed), errors.Is(err, ErrBlockedHost):
		return http.StatusBadRequest
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrAnalyzerReported):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrAnalyzerFailed), errors.Is(err, ErrAnalyzerMalformed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
