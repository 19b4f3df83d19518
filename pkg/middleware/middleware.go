// Package middleware provides the HTTP middleware shared by every module:
// access logging, CORS, panic recovery and request metrics.
package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Stack is an ordered list of middleware. The first entry is outermost.
type Stack []func(http.Handler) http.Handler

// Use appends middleware to the stack.
func (s *Stack) Use(mw ...func(http.Handler) http.Handler) {
	*s = append(*s, mw...)
}

// Apply wraps handler with every middleware in the stack.
func (s Stack) Apply(handler http.Handler) http.Handler {
	for i := len(s) - 1; i >= 0; i-- {
		handler = s[i](handler)
	}
	return handler
}

// Recover turns a handler panic into a 500 JSON response and logs the stack.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("handler panic",
					"method", r.Method,
					"uri", r.URL.RequestURI(),
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"internal server error"}`))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
