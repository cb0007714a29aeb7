package engines

import (
	"context"
	"log/slog"

	"github.com/JaimeStill/tollgate/internal/provider"
	"github.com/JaimeStill/tollgate/pkg/repository"
	"github.com/JaimeStill/tollgate/pkg/reqctx"
	"github.com/JaimeStill/tollgate/pkg/result"
)

// Catalog is the provider surface engines depend on.
type Catalog interface {
	Engines(ctx context.Context) ([]provider.Engine, error)
}

type System struct {
	repo    *Repository
	catalog Catalog
	logger  *slog.Logger
}

func New(repo *Repository, catalog Catalog, logger *slog.Logger) *System {
	return &System{repo: repo, catalog: catalog, logger: logger.With("system", "engines")}
}

// List returns the provider's engines and records them locally. A failed
// local sync is logged and does not fail the listing.
func (s *System) List(ctx context.Context, _ struct{}) result.Result[[]provider.Engine] {
	list, err := s.catalog.Engines(ctx)
	if err != nil {
		return result.Fail[[]provider.Engine](err)
	}

	rows := make([]repository.Fields, 0, len(list))
	for _, e := range list {
		row := repository.Fields{"name": e.Name}
		if cost, ok := ParseCost(e); ok {
			row["cost"] = cost
		} else {
			s.logger.WarnContext(ctx, "engine cost not numeric", "engine", e.Name, "cost", e.Cost)
		}
		rows = append(rows, row)
	}

	if err := s.repo.Upsert(ctx, rows); err != nil {
		s.logger.WarnContext(ctx, "engine sync failed", "error", err)
	}

	return result.Success(list)
}

// Preferred returns the caller's preferred engines.
func (s *System) Preferred(ctx context.Context, _ struct{}) result.Result[[]Engine] {
	list, err := s.repo.Preferred(ctx, reqctx.AccountID(ctx))
	return result.From(list, err)
}

// SetPreferred replaces the caller's preferred engines.
func (s *System) SetPreferred(ctx context.Context, cmd PreferredCommand) result.Result[[]Engine] {
	found, err := s.repo.ReplacePreferred(ctx, reqctx.AccountID(ctx), cmd.Names)
	if err != nil {
		return result.Fail[[]Engine](err)
	}
	s.logger.InfoContext(ctx, "preferred engines replaced", "count", len(found))
	return result.Success(found)
}
