package api

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/tollgate/internal/auth"
	"github.com/JaimeStill/tollgate/internal/classifications"
	"github.com/JaimeStill/tollgate/internal/engines"
	"github.com/JaimeStill/tollgate/internal/transactions"
	"github.com/JaimeStill/tollgate/pkg/handlers"
	"github.com/JaimeStill/tollgate/pkg/openapi"
	"github.com/JaimeStill/tollgate/pkg/routes"
)

// domainGroups returns the versioned route tree of every domain handler.
func domainGroups(domain *Domain, runtime *Runtime, version string) routes.Group {
	logger := runtime.Logger

	return routes.Group{
		Prefix: version,
		Routes: []routes.Route{
			healthRoute(runtime),
		},
		Children: []routes.Group{
			auth.NewHandler(domain.Auth, logger).Routes(),
			engines.NewHandler(domain.Engines, logger).Routes(),
			transactions.NewHandler(domain.Ledger, logger).Routes(),
			classifications.NewHandler(
				domain.Classifications,
				logger,
				runtime.Pagination,
				runtime.MaxUploadSize,
			).Routes(),
		},
	}
}

func healthRoute(runtime *Runtime) routes.Route {
	return routes.Route{
		Method:  "GET",
		Pattern: "/health",
		Public:  true,
		Handler: func(w http.ResponseWriter, r *http.Request) {
			if err := runtime.Database.Ping(r.Context()); err != nil {
				runtime.Logger.WarnContext(r.Context(), "health check failed", "error", err)
				handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
			handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		},
		Doc: &openapi.Operation{
			Summary:   "Database health",
			Tags:      []string{"Health"},
			Responses: openapi.Responses(http.StatusOK, "Health"),
		},
	}
}

// registerRoutes guards every non-public route with bearer authentication.
func registerRoutes(mux *http.ServeMux, domain *Domain, logger *slog.Logger, group routes.Group) {
	routes.RegisterGuarded(mux, domain.Auth.Authenticate(logger), group)
}

// buildSpec documents group under basePath with every domain schema.
func buildSpec(cfg *openapi.Config, version, basePath string, group routes.Group) *openapi.Spec {
	spec := openapi.NewSpec(cfg, version)
	spec.Components.AddSchemas(map[string]*openapi.Schema{
		"Health": {
			Type:       "object",
			Properties: map[string]*openapi.Schema{"status": {Type: "string"}},
		},
	})
	spec.Components.AddSchemas(auth.Schemas())
	spec.Components.AddSchemas(engines.Schemas())
	spec.Components.AddSchemas(transactions.Schemas())
	spec.Components.AddSchemas(classifications.Schemas())

	routes.Document(spec, basePath, group)
	return spec
}
