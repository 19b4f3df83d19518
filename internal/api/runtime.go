package api

import (
	"github.com/reactit/kycdesk/internal/config"
	"github.com/reactit/kycdesk/internal/infrastructure"
	"github.com/reactit/kycdesk/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Config     *config.Config
	Pagination pagination.Config
	// FilesPath is the public path of the files endpoint, e.g. /api/files.
	FilesPath string
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Config:         cfg,
		Pagination:     cfg.API.Pagination,
		FilesPath:      cfg.API.BasePath + "/files",
	}
}
