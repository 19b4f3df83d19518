package documents

import (
	"errors"
	"net/http"

	"github.com/reactit/kycdesk/internal/analysis"
	"github.com/reactit/kycdesk/pkg/storage"
	"github.com/reactit/kycdesk/pkg/validation"
)

// Domain errors for document operations.
var (
	ErrNotFound      = validation.New(entity, validation.KeyNotFound, "document not found")
	ErrDuplicate     = errors.New("document already exists")
	ErrInvalidID     = validation.New(entity, validation.KeyIDInvalid, "invalid id")
	ErrInvalidOwner  = validation.New(entity, "customernotfound", "customer does not exist")
	ErrNoStoredFile  = validation.New(entity, "nofile", "document has no uploaded file")
	ErrFileTooLarge  = errors.New("file exceeds maximum upload size")
	ErrInvalidUpload = errors.New("multipart form requires customerId and file")
)

// MapHTTPStatus maps document domain errors to HTTP status codes. Analyzer
// and storage errors keep their own mappings.
func MapHTTPStatus(err error) int {
	var verr *validation.Error
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrFileTooLarge), errors.Is(err, storage.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidUpload), errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case isAnalysisError(err):
		return analysis.MapHTTPStatus(err)
	}
	return http.StatusInternalServerError
}

func isAnalysisError(err error) bool {
	return errors.Is(err, analysis.ErrAnalyzerFailed) ||
		errors.Is(err, analysis.ErrAnalyzerReported) ||
		errors.Is(err, analysis.ErrAnalyzerMalformed)
}
