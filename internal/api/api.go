// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/tollgate/internal/config"
	"github.com/JaimeStill/tollgate/internal/infrastructure"
	"github.com/JaimeStill/tollgate/pkg/middleware"
	"github.com/JaimeStill/tollgate/pkg/module"
	"github.com/JaimeStill/tollgate/pkg/openapi"
	"github.com/JaimeStill/tollgate/pkg/reqctx"
)

// NewModule creates the API module with all domain handlers, the OpenAPI
// document at /openapi.json, and the module middleware stack.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime, err := NewRuntime(cfg, infra)
	if err != nil {
		return nil, err
	}
	domain := NewDomain(runtime)

	group := domainGroups(domain, runtime, cfg.API.VersionPrefix())

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime.Logger, group)

	spec := buildSpec(&cfg.API.OpenAPI, cfg.Version, cfg.API.BasePath, group)
	specHandler, err := openapi.Handler(spec)
	if err != nil {
		return nil, fmt.Errorf("openapi document: %w", err)
	}
	mux.HandleFunc("GET /openapi.json", specHandler)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(reqctx.Middleware())
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Recover(runtime.Logger))

	return m, nil
}
