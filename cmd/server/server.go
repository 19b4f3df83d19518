package main

import (
	"context"
	"fmt"
	"time"

	"github.com/reactit/kycdesk/internal/config"
	"github.com/reactit/kycdesk/internal/infrastructure"
)

type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, fmt.Errorf("modules init failed: %w", err)
	}

	router := buildRouter(infra)
	modules.Mount(router)

	return &Server{
		infra:   infra,
		modules: modules,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

// Start launches the shared systems and the listener. Readiness flips once
// every startup hook returns; failing probes are logged but do not stop the
// server, since /readyz reports them.
func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return fmt.Errorf("http start failed: %w", err)
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()

		ctx, cancel := context.WithTimeout(s.infra.Lifecycle.Context(), probeTimeout)
		defer cancel()

		for name, err := range s.infra.Lifecycle.Check(ctx) {
			s.infra.Logger.Warn("dependency not ready", "probe", name, "error", err)
		}
		s.infra.Logger.Info("all subsystems started")
	}()

	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}
