// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/reactit/kycdesk/internal/config"
	"github.com/reactit/kycdesk/internal/infrastructure"
	"github.com/reactit/kycdesk/pkg/middleware"
	"github.com/reactit/kycdesk/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	if err := domain.Start(runtime); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.Recover(runtime.Logger))
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}
