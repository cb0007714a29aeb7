package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SoftDelete marks the live row with the given id as deleted, first following
// every cascading relation. It returns the number of rows of this table that
// were deleted, which is zero when the row is missing or already deleted.
func (r *Repository[E, M]) SoftDelete(ctx context.Context, id string) (deleted int, err error) {
	return r.softDelete(ctx, "soft_delete", "id = $1", []any{id})
}

// SoftDeleteWhere soft-deletes every live row matching where, with cascades.
func (r *Repository[E, M]) SoftDeleteWhere(ctx context.Context, where Fields) (deleted int, err error) {
	sub, args, err := r.subquery(where, false)
	if err != nil {
		return 0, err
	}
	return r.softDelete(ctx, "soft_delete_where", "id IN ("+sub+")", args)
}

func (r *Repository[E, M]) softDelete(ctx context.Context, name, predicate string, args []any) (deleted int, err error) {
	t := r.start(name)
	defer r.finish(ctx, t, &err)

	return WithTx(ctx, r.pool, func(tx pgx.Tx) (int, error) {
		q := &trace{q: tx, op: t.op}

		sql := fmt.Sprintf("SELECT id FROM %s WHERE %s AND deleted_at IS NULL", r.Table(), predicate)
		ids, err := selectIDs(ctx, q, sql, args...)
		if err != nil || len(ids) == 0 {
			return 0, err
		}

		c := &cascade{schema: r.schema, registry: r.relations, q: q, visited: make(map[string]bool)}
		if err := c.softDelete(ctx, r.table, ids); err != nil {
			return 0, err
		}
		return len(ids), nil
	})
}

// cascade walks the relation registry depth first, deleting children before
// their parents within one transaction.
type cascade struct {
	schema   string
	registry *Registry
	q        Querier
	visited  map[string]bool
}

func (c *cascade) softDelete(ctx context.Context, table string, ids []string) error {
	ids = c.unvisited(table, ids)
	if len(ids) == 0 {
		return nil
	}

	for _, rel := range c.registry.Cascades(table) {
		if err := c.follow(ctx, table, rel, ids); err != nil {
			return fmt.Errorf("cascade %s.%s: %w", table, rel.RelationName(), err)
		}
	}

	sql := fmt.Sprintf(
		"UPDATE %s SET deleted_at = NOW(), updated_at = NOW() WHERE id = ANY($1) AND deleted_at IS NULL",
		c.name(table),
	)
	_, err := c.q.Exec(ctx, sql, ids)
	return err
}

func (c *cascade) follow(ctx context.Context, table string, rel Relation, ids []string) error {
	switch rel := rel.(type) {
	case OneToMany:
		sql := fmt.Sprintf(
			"SELECT id FROM %s WHERE %s = ANY($1) AND deleted_at IS NULL",
			c.name(rel.Target), rel.ForeignKey,
		)
		children, err := selectIDs(ctx, c.q, sql, ids)
		if err != nil {
			return err
		}
		return c.softDelete(ctx, rel.Target, children)

	case OneToOne:
		sql := fmt.Sprintf(
			"SELECT id FROM %s WHERE id IN (SELECT %s FROM %s WHERE id = ANY($1)) AND deleted_at IS NULL",
			c.name(rel.Target), rel.JoinColumn, c.name(table),
		)
		targets, err := selectIDs(ctx, c.q, sql, ids)
		if err != nil {
			return err
		}
		return c.softDelete(ctx, rel.Target, targets)

	case ManyToMany:
		sql := fmt.Sprintf("DELETE FROM %s WHERE %s = ANY($1)", c.name(rel.JunctionTable), rel.OwnerColumn)
		_, err := c.q.Exec(ctx, sql, ids)
		return err
	}

	return fmt.Errorf("unsupported relation %T", rel)
}

func (c *cascade) unvisited(table string, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		key := table + ":" + id
		if c.visited[key] {
			continue
		}
		c.visited[key] = true
		out = append(out, id)
	}
	return out
}

func (c *cascade) name(table string) string {
	return c.schema + "." + table
}

func selectIDs(ctx context.Context, q Querier, sql string, args ...any) ([]string, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
