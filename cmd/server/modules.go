package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reactit/kycdesk/internal/api"
	"github.com/reactit/kycdesk/internal/config"
	"github.com/reactit/kycdesk/internal/infrastructure"
	"github.com/reactit/kycdesk/pkg/module"
)

const probeTimeout = 5 * time.Second

type Modules struct {
	API *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{API: apiModule}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]any{"status": "ok"})
	}))

	router.HandleNative("GET /readyz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			writeStatus(w, http.StatusServiceUnavailable, map[string]any{"status": "starting"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		failures := infra.Lifecycle.Check(ctx)
		if len(failures) > 0 {
			details := make(map[string]string, len(failures))
			for name, err := range failures {
				details[name] = err.Error()
			}
			writeStatus(w, http.StatusServiceUnavailable, map[string]any{
				"status": "not ready",
				"checks": details,
			})
			return
		}

		writeStatus(w, http.StatusOK, map[string]any{"status": "ready"})
	}))

	router.HandleNative("GET /metrics", promhttp.HandlerFor(infra.Metrics, promhttp.HandlerOpts{}))

	return router
}

func writeStatus(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
