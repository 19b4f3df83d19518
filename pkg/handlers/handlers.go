// Package handlers holds the request and response plumbing shared by every
// domain handler.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/reactit/kycdesk/pkg/pagination"
)

// Detailer is implemented by errors that carry structured response fields
// (entity name, error key, per-field messages) in addition to their message.
type Detailer interface {
	Details() map[string]any
}

// RespondJSON writes data as a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError logs err and writes an {"error": message} JSON body.
// Server errors are logged at error level, client errors at warn.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request rejected", "status", status, "error", err)
	}

	body := map[string]any{"error": err.Error()}

	var d Detailer
	if errors.As(err, &d) {
		for k, v := range d.Details() {
			body[k] = v
		}
	}

	RespondJSON(w, status, body)
}

// SetTotalCount writes the X-Total-Count header used by paginated list endpoints.
func SetTotalCount(w http.ResponseWriter, total int) {
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
}

// DecodeJSON decodes the request body into T.
func DecodeJSON[T any](r *http.Request) (T, error) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		return v, err
	}
	return v, nil
}

// PathUUID parses the path value name. A malformed value is answered with
// 400 and invalid, and ok is false.
func PathUUID(w http.ResponseWriter, r *http.Request, logger *slog.Logger, name string, invalid error) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		RespondError(w, logger, http.StatusBadRequest, invalid)
		return uuid.Nil, false
	}
	return id, true
}

// DecodeStatus is 413 for a body cut off by http.MaxBytesReader and 400
// for any other decode failure.
func DecodeStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// Bind decodes the body into T and runs check on the result. A decode or
// check failure is answered with 400, or 413 when the body exceeds a limit
// set with LimitBody, and ok is false. check may be nil.
func Bind[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, check func(T) error) (T, bool) {
	v, err := DecodeJSON[T](r)
	if err != nil {
		RespondError(w, logger, DecodeStatus(err), err)
		return v, false
	}
	if check != nil {
		if err := check(v); err != nil {
			RespondError(w, logger, http.StatusBadRequest, err)
			return v, false
		}
	}
	return v, true
}

// LimitBody caps the request body at n bytes. A non-positive n leaves the
// body unbounded.
func LimitBody(w http.ResponseWriter, r *http.Request, n int64) {
	if n > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, n)
	}
}

// Respond answers with v and status, or with err at the status statusOf
// picks for it. A nil v sends the status alone.
func Respond(w http.ResponseWriter, logger *slog.Logger, status int, v any, err error, statusOf func(error) int) {
	switch {
	case err != nil:
		RespondError(w, logger, statusOf(err), err)
	case v == nil:
		w.WriteHeader(status)
	default:
		RespondJSON(w, status, v)
	}
}

// RespondPage answers a list query. The total goes in X-Total-Count as well
// as the body; a failed query is a 500.
func RespondPage[T any](w http.ResponseWriter, logger *slog.Logger, page *pagination.PageResult[T], err error) {
	if err != nil {
		RespondError(w, logger, http.StatusInternalServerError, err)
		return
	}
	SetTotalCount(w, page.Total)
	RespondJSON(w, http.StatusOK, page)
}
