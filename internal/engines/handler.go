package engines

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/tollgate/internal/provider"
	"github.com/JaimeStill/tollgate/pkg/handlers"
	"github.com/JaimeStill/tollgate/pkg/openapi"
	"github.com/JaimeStill/tollgate/pkg/routes"
	"github.com/JaimeStill/tollgate/pkg/service"
)

type Handler struct {
	list         service.Service[struct{}, []provider.Engine]
	preferred    service.Service[struct{}, []Engine]
	setPreferred service.Service[PreferredCommand, []Engine]
	logger       *slog.Logger
}

func NewHandler(sys *System, logger *slog.Logger) *Handler {
	logger = logger.With("handler", "engines")
	return &Handler{
		list:         service.Logged("engines.list", logger, service.Func[struct{}, []provider.Engine](sys.List)),
		preferred:    service.Func[struct{}, []Engine](sys.Preferred),
		setPreferred: service.Logged("engines.set_preferred", logger, service.Func[PreferredCommand, []Engine](sys.SetPreferred)),
		logger:       logger,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/engines",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, Doc: &openapi.Operation{
				Summary: "List provider engines", Tags: []string{"engines"},
				Responses: openapi.Responses(http.StatusOK, "ProviderEngines", "Unauthorized", "BadRequest"),
			}},
			{Method: "GET", Pattern: "/preferred", Handler: h.Preferred, Doc: &openapi.Operation{
				Summary: "List preferred engines", Tags: []string{"engines"},
				Responses: openapi.Responses(http.StatusOK, "Engines", "Unauthorized"),
			}},
			{Method: "PUT", Pattern: "/preferred", Handler: h.SetPreferred, Doc: &openapi.Operation{
				Summary: "Replace preferred engines", Tags: []string{"engines"},
				RequestBody: openapi.JSONBody("PreferredEngines"),
				Responses:   openapi.Responses(http.StatusOK, "Engines", "BadRequest", "Unauthorized", "NotFound"),
			}},
		},
	}
}

func Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"ProviderEngines": {
			Type: "array",
			Items: &openapi.Schema{
				Type: "object",
				Properties: map[string]*openapi.Schema{
					"name": {Type: "string"},
					"cost": {Type: "string"},
				},
			},
		},
		"Engines": {
			Type: "array",
			Items: &openapi.Schema{
				Type: "object",
				Properties: map[string]*openapi.Schema{
					"id":        {Type: "string", Format: "uuid"},
					"name":      {Type: "string"},
					"cost":      {Type: "number"},
					"createdAt": {Type: "string", Format: "date-time"},
					"updatedAt": {Type: "string", Format: "date-time"},
				},
			},
		},
		"PreferredEngines": {
			Type:     "object",
			Required: []string{"names"},
			Properties: map[string]*openapi.Schema{
				"names": {Type: "array", Items: &openapi.Schema{Type: "string"}},
			},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	handlers.Respond(w, r, h.logger, http.StatusOK, h.list.Execute(r.Context(), struct{}{}))
}

func (h *Handler) Preferred(w http.ResponseWriter, r *http.Request) {
	handlers.Respond(w, r, h.logger, http.StatusOK, h.preferred.Execute(r.Context(), struct{}{}))
}

func (h *Handler) SetPreferred(w http.ResponseWriter, r *http.Request) {
	var cmd PreferredCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, r, h.logger, err)
		return
	}
	handlers.Respond(w, r, h.logger, http.StatusOK, h.setPreferred.Execute(r.Context(), cmd))
}
