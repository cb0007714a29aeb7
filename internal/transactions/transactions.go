// Package transactions reports the organization's provider balance.
package transactions

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/tollgate/internal/provider"
	"github.com/JaimeStill/tollgate/pkg/handlers"
	"github.com/JaimeStill/tollgate/pkg/openapi"
	"github.com/JaimeStill/tollgate/pkg/result"
	"github.com/JaimeStill/tollgate/pkg/routes"
	"github.com/JaimeStill/tollgate/pkg/service"
)

// Ledger is the provider surface transactions depend on.
type Ledger interface {
	Balance(ctx context.Context) (provider.Balance, error)
}

type Handler struct {
	balance service.Service[struct{}, provider.Balance]
	logger  *slog.Logger
}

func NewHandler(ledger Ledger, logger *slog.Logger) *Handler {
	logger = logger.With("handler", "transactions")
	balance := func(ctx context.Context, _ struct{}) result.Result[provider.Balance] {
		b, err := ledger.Balance(ctx)
		return result.From(b, err)
	}
	return &Handler{
		balance: service.Logged("transactions.balance", logger, service.Func[struct{}, provider.Balance](balance)),
		logger:  logger,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/transactions",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/balance", Handler: h.Balance, Doc: &openapi.Operation{
				Summary: "Provider balance", Tags: []string{"transactions"},
				Responses: openapi.Responses(http.StatusOK, "Balance", "Unauthorized", "BadRequest"),
			}},
		},
	}
}

func Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"Balance": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"message": {Type: "string"},
				"data":    {Type: "object"},
			},
		},
	}
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	handlers.Respond(w, r, h.logger, http.StatusOK, h.balance.Execute(r.Context(), struct{}{}))
}
