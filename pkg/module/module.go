// Package module mounts prefixed sub-applications, each with its own
// middleware stack, under a single root handler.
package module

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/reactit/kycdesk/pkg/middleware"
)

// Module serves every request under a single-segment prefix such as "/api".
// The prefix is stripped before the inner router sees the request.
type Module struct {
	prefix     string
	router     http.Handler
	middleware middleware.Stack

	once    sync.Once
	handler http.Handler
}

// New creates a Module. It panics when prefix is not a single path segment.
func New(prefix string, router http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix: prefix,
		router: router,
	}
}

// Use adds middleware. Middleware added after the first request is ignored.
func (m *Module) Use(mw ...func(http.Handler) http.Handler) {
	m.middleware.Use(mw...)
}

// Prefix returns the mount prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Handler returns the router wrapped in the module middleware.
func (m *Module) Handler() http.Handler {
	m.once.Do(func() {
		m.handler = m.middleware.Apply(m.router)
	})
	return m.handler
}

// Serve strips the prefix and dispatches to the wrapped router.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimPrefix(req.URL.Path, m.prefix)
	if path == "" {
		path = "/"
	}

	inner := req.Clone(req.Context())
	inner.URL.Path = path
	inner.URL.RawPath = ""

	m.Handler().ServeHTTP(w, inner)
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case strings.Count(prefix, "/") != 1:
		return fmt.Errorf("module prefix must be a single path segment: %s", prefix)
	}
	return nil
}
