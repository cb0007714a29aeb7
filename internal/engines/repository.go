package engines

import (
	"context"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"

	"github.com/JaimeStill/tollgate/internal/schema"
	"github.com/JaimeStill/tollgate/pkg/repository"
)

var columns = []string{"id", "name", "cost", "created_at", "updated_at", "deleted_at"}

// Repository is the data access of engines and the account_engines junction.
type Repository struct {
	*repository.Repository[Engine, Engine]
}

func NewRepository(pool repository.Pool, relations *repository.Registry, observer repository.Observer) *Repository {
	return &Repository{
		Repository: repository.New(pool, repository.Config[Engine, Engine]{
			Table:     schema.Engines,
			Columns:   columns,
			Relations: relations,
			Observer:  observer,
		}),
	}
}

// Upsert inserts engines by name and refreshes the cost of existing ones.
func (r *Repository) Upsert(ctx context.Context, rows []repository.Fields) error {
	_, err := r.BulkCreate(ctx, rows, repository.BulkOptions{
		NoModelReturn:   true,
		OnConflict:      repository.ConflictDoUpdate,
		ConflictColumns: []string{"name"},
	})
	return err
}

// Preferred lists the live engines linked to the account.
func (r *Repository) Preferred(ctx context.Context, accountID string) ([]Engine, error) {
	qb := r.QueryBuilder("e").Where(
		fmt.Sprintf("e.id IN (SELECT engine_id FROM %s WHERE account_id = ?)", r.Qualify(schema.AccountEngines)),
		accountID,
	)
	return r.FindWith(ctx, qb)
}

// ReplacePreferred swaps the account's links for the named engines in one
// transaction. Unknown names fail the whole call.
func (r *Repository) ReplacePreferred(ctx context.Context, accountID string, names []string) ([]Engine, error) {
	found, err := repository.WithTx(ctx, r.Pool(), func(tx pgx.Tx) ([]Engine, error) {
		var found []Engine
		if len(names) > 0 {
			sql, args := r.QueryBuilder("t").WhereAny("name", names).Build()
			rows, err := tx.Query(ctx, sql, args...)
			if err != nil {
				return nil, err
			}
			if found, err = pgx.CollectRows(rows, pgx.RowToStructByNameLax[Engine]); err != nil {
				return nil, err
			}
		}

		var missing []string
		for _, n := range names {
			if !slices.ContainsFunc(found, func(e Engine) bool { return e.Name == n }) && !slices.Contains(missing, n) {
				missing = append(missing, n)
			}
		}
		if len(missing) > 0 {
			return nil, unknownEngines(missing)
		}

		junction := r.Qualify(schema.AccountEngines)
		if _, err := tx.Exec(ctx, "DELETE FROM "+junction+" WHERE account_id = $1", accountID); err != nil {
			return nil, err
		}

		if len(found) > 0 {
			ids := make([]string, len(found))
			for i, e := range found {
				ids[i] = e.ID
			}
			sql := "INSERT INTO " + junction + " (account_id, engine_id) SELECT $1, unnest($2::text[])"
			if _, err := tx.Exec(ctx, sql, accountID, ids); err != nil {
				return nil, err
			}
		}

		return found, nil
	})
	return found, repository.Classify(err)
}
