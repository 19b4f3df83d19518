// Package routes declares HTTP endpoints as nested groups and registers them
// on a ServeMux.
package routes

import "net/http"

// Middleware wraps a handler.
type Middleware = func(http.Handler) http.Handler

// Route is one endpoint. An empty Method matches every method.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

func (r Route) pattern(prefix string) string {
	if r.Method == "" {
		return prefix + r.Pattern
	}
	return r.Method + " " + prefix + r.Pattern
}

// Group shares a path prefix and middleware across its routes and children.
// Middleware runs outermost first, parents before children.
type Group struct {
	Prefix     string
	Routes     []Route
	Children   []Group
	Middleware []Middleware
}

// Register mounts every route of groups on mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, g := range groups {
		g.register(mux, "", nil)
	}
}

func (g Group) register(mux *http.ServeMux, parent string, inherited []Middleware) {
	prefix := parent + g.Prefix
	chain := make([]Middleware, 0, len(inherited)+len(g.Middleware))
	chain = append(append(chain, inherited...), g.Middleware...)

	for _, r := range g.Routes {
		var h http.Handler = r.Handler
		for i := len(chain) - 1; i >= 0; i-- {
			h = chain[i](h)
		}
		mux.Handle(r.pattern(prefix), h)
	}
	for _, child := range g.Children {
		child.register(mux, prefix, chain)
	}
}
