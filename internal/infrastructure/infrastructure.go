// Package infrastructure assembles the shared systems every domain module
// depends on: logging, lifecycle, database, storage, cache, mail, token
// verification and the metrics registry.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/reactit/kycdesk/internal/config"
	"github.com/reactit/kycdesk/pkg/auth"
	"github.com/reactit/kycdesk/pkg/cache"
	"github.com/reactit/kycdesk/pkg/database"
	"github.com/reactit/kycdesk/pkg/lifecycle"
	"github.com/reactit/kycdesk/pkg/mail"
	"github.com/reactit/kycdesk/pkg/storage"
)

// Infrastructure holds the systems shared by all domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Cache     cache.System
	Mail      mail.System
	Auth      auth.System
	Metrics   *prometheus.Registry
}

// New creates every system without starting any of them.
func New(cfg *config.Config) (*Infrastructure, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	mailer, err := mail.New(&cfg.Mail, logger)
	if err != nil {
		return nil, fmt.Errorf("mail init failed: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Cache:     cache.New(&cfg.Cache, logger),
		Mail:      mailer,
		Auth:      auth.New(&cfg.Auth, logger),
		Metrics:   reg,
	}, nil
}

// Start registers startup, readiness and shutdown hooks for the database,
// storage and cache.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if err := i.Cache.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("cache start failed: %w", err)
	}
	return nil
}
