package main

import (
	"net/http"

	"github.com/JaimeStill/tollgate/internal/api"
	"github.com/JaimeStill/tollgate/internal/config"
	"github.com/JaimeStill/tollgate/internal/infrastructure"
	"github.com/JaimeStill/tollgate/pkg/handlers"
	"github.com/JaimeStill/tollgate/pkg/middleware"
	"github.com/JaimeStill/tollgate/pkg/module"
	"github.com/JaimeStill/tollgate/web/scalar"
)

type Modules struct {
	API    *module.Module
	Scalar *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	scalarModule := scalar.NewModule("/scalar", cfg.API.BasePath+"/openapi.json")
	scalarModule.Use(middleware.Logger(infra.Logger))

	return &Modules{
		API:    apiModule,
		Scalar: scalarModule,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	router.Mount(m.Scalar)
}

// buildRouter wires the process-level probes. Metrics wrap every request,
// modules included.
func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()
	router.Use(infra.Metrics.Middleware())

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}

		failed := make(map[string]string)
		for name, err := range infra.Lifecycle.Probe(r.Context()) {
			if err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "checks": failed})
			return
		}
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	router.Handle("GET /metrics", infra.Metrics.Handler())

	return router
}
