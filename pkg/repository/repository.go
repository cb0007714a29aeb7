// Package repository provides a generic PostgreSQL repository with pagination,
// bulk writes, and cascading soft deletes driven by a relation registry.
package repository

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/tollgate/pkg/pagination"
	"github.com/JaimeStill/tollgate/pkg/query"
)

// Querier is implemented by *pgxpool.Pool, *pgxpool.Conn, and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is a Querier that can open transactions.
type Pool interface {
	Querier
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// Entity is a row-backed record identified by a string id.
type Entity interface {
	EntityID() string
}

// WithTx executes fn within a database transaction.
// It commits when fn succeeds and rolls back otherwise.
func WithTx[T any](ctx context.Context, pool Pool, fn func(tx pgx.Tx) (T, error)) (T, error) {
	var zero T

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return zero, err
	}

	result, err := fn(tx)
	if err != nil {
		_ = tx.Rollback(ctx)
		return zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return zero, err
	}

	return result, nil
}

// Loader populates a named relation on a model.
type Loader[M any] func(ctx context.Context, q Querier, m *M) error

// Config binds a Repository to one table.
type Config[E Entity, M any] struct {
	Schema  string
	Table   string
	Columns []string
	// ToModel maps a scanned entity to its public model. When nil the entity
	// must itself be of the model type.
	ToModel    func(E) (M, error)
	Relations  *Registry
	Loaders    map[string]Loader[M]
	Observer   Observer
	Pagination pagination.Config
}

// Repository is a table-bound data access object for entity E exposed as model M.
type Repository[E Entity, M any] struct {
	pool       Pool
	schema     string
	table      string
	projection *query.ProjectionMap
	toModel    func(E) (M, error)
	relations  *Registry
	loaders    map[string]Loader[M]
	observer   Observer
	pagination pagination.Config
}

var defaultSort = query.SortField{Field: "created_at"}

// New creates a Repository over pool.
func New[E Entity, M any](pool Pool, cfg Config[E, M]) *Repository[E, M] {
	schema := cfg.Schema
	if schema == "" {
		schema = "public"
	}

	toModel := cfg.ToModel
	if toModel == nil {
		toModel = func(e E) (M, error) {
			m, ok := any(e).(M)
			if !ok {
				var zero M
				return zero, fmt.Errorf("cannot map %T to %T", e, zero)
			}
			return m, nil
		}
	}

	pg := cfg.Pagination
	if pg.DefaultPageSize < 1 {
		pg.DefaultPageSize = 20
	}
	if pg.MaxPageSize < pg.DefaultPageSize {
		pg.MaxPageSize = max(100, pg.DefaultPageSize)
	}

	return &Repository[E, M]{
		pool:       pool,
		schema:     schema,
		table:      cfg.Table,
		projection: query.ColumnProjection(schema, cfg.Table, "t", cfg.Columns...),
		toModel:    toModel,
		relations:  cfg.Relations,
		loaders:    cfg.Loaders,
		observer:   cfg.Observer,
		pagination: pg,
	}
}

// Table returns the schema-qualified table name.
func (r *Repository[E, M]) Table() string {
	return r.projection.Name()
}

// Qualify prefixes a sibling table with the repository's schema.
func (r *Repository[E, M]) Qualify(table string) string {
	return r.schema + "." + table
}

// Pool returns the pool the repository executes against.
func (r *Repository[E, M]) Pool() Pool {
	return r.pool
}

// Create inserts one row and returns it as a model.
// An empty id is replaced by a generated UUID.
func (r *Repository[E, M]) Create(ctx context.Context, data Fields, id string) (model M, err error) {
	q := r.start("create")
	defer r.finish(ctx, q, &err)

	if err = r.checkFields(data.Keys()); err != nil {
		return model, err
	}

	if id == "" {
		id = uuid.NewString()
	}

	cols := []string{"id"}
	args := []any{id}
	for _, k := range data.Keys() {
		if k == "id" {
			continue
		}
		cols = append(cols, k)
		args = append(args, data[k])
	}

	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		r.Table(), join(cols), placeholders(1, len(cols)),
	)

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return model, err
	}

	entity, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[E])
	if err != nil {
		return model, err
	}

	return r.toModel(entity)
}

// Find returns one page of rows matching c.
func (r *Repository[E, M]) Find(ctx context.Context, c Criteria) (page pagination.PageResult[M], err error) {
	q := r.start("find")
	defer r.finish(ctx, q, &err)

	qb, err := r.builder(c)
	if err != nil {
		return page, err
	}

	req := pagination.PageRequest{Page: c.Page, PageSize: c.Offset}
	req.Normalize(r.pagination)

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err = q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return page, err
	}

	pageSQL, pageArgs := qb.BuildPage(req.Page, req.PageSize)
	models, err := r.collect(ctx, q, pageSQL, pageArgs, c.Relations)
	if err != nil {
		return page, err
	}

	return pagination.NewPageResult(models, total, req.Page, req.PageSize), nil
}

// FindAll returns every row matching c without pagination.
func (r *Repository[E, M]) FindAll(ctx context.Context, c Criteria) (models []M, err error) {
	q := r.start("find_all")
	defer r.finish(ctx, q, &err)

	qb, err := r.builder(c)
	if err != nil {
		return nil, err
	}

	sql, args := qb.Build()
	return r.collect(ctx, q, sql, args, c.Relations)
}

// FindOne returns the first row matching c.
func (r *Repository[E, M]) FindOne(ctx context.Context, c Criteria) (model M, found bool, err error) {
	q := r.start("find_one")
	defer r.finish(ctx, q, &err)

	qb, err := r.builder(c)
	if err != nil {
		return model, false, err
	}

	sql, args := qb.BuildSingleOrNull()
	return r.one(ctx, q, sql, args, c.Relations)
}

// FindByID returns the row with the given id. An empty id is reported as
// not found without querying.
func (r *Repository[E, M]) FindByID(ctx context.Context, id string, c Criteria) (model M, found bool, err error) {
	if id == "" {
		return model, false, nil
	}

	q := r.start("find_by_id")
	defer r.finish(ctx, q, &err)

	qb, err := r.builder(c)
	if err != nil {
		return model, false, err
	}

	sql, args := qb.BuildSingle("id", id)
	return r.one(ctx, q, sql, args, c.Relations)
}

// FindLast returns the most recently created row matching c.
func (r *Repository[E, M]) FindLast(ctx context.Context, c Criteria) (model M, found bool, err error) {
	c.Order = []query.SortField{{Field: "created_at", Descending: true}}
	return r.FindOne(ctx, c)
}

// Count returns the number of rows matching c.
func (r *Repository[E, M]) Count(ctx context.Context, c Criteria) (total int, err error) {
	q := r.start("count")
	defer r.finish(ctx, q, &err)

	qb, err := r.builder(c)
	if err != nil {
		return 0, err
	}

	sql, args := qb.BuildCount()
	err = q.QueryRow(ctx, sql, args...).Scan(&total)
	return total, err
}

// Update merges data into the live row with the given id and refreshes
// updated_at. Requested relations are loaded onto the returned model.
func (r *Repository[E, M]) Update(ctx context.Context, id string, data Fields, relations ...string) (model M, err error) {
	q := r.start("update")
	defer r.finish(ctx, q, &err)

	if err = r.checkFields(data.Keys()); err != nil {
		return model, err
	}
	if err = r.checkRelations(relations); err != nil {
		return model, err
	}

	sets, args := r.assignments(data)
	args = append(args, id)

	sql := fmt.Sprintf(
		"UPDATE %s SET %s WHERE id = $%d AND deleted_at IS NULL RETURNING *",
		r.Table(), sets, len(args),
	)

	model, found, err := r.one(ctx, q, sql, args, relations)
	if err != nil {
		return model, err
	}
	if !found {
		return model, ErrNotFound
	}
	return model, nil
}

// HardDelete physically removes the row with the given id.
func (r *Repository[E, M]) HardDelete(ctx context.Context, id string) (affected int64, err error) {
	q := r.start("hard_delete")
	defer r.finish(ctx, q, &err)

	tag, err := q.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.Table()), id)
	return tag.RowsAffected(), err
}

// HardDeleteWhere physically removes every row matching where, deleted or not.
func (r *Repository[E, M]) HardDeleteWhere(ctx context.Context, where Fields) (affected int64, err error) {
	q := r.start("hard_delete_where")
	defer r.finish(ctx, q, &err)

	sub, args, err := r.subquery(where, true)
	if err != nil {
		return 0, err
	}

	tag, err := q.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)", r.Table(), sub), args...)
	return tag.RowsAffected(), err
}

// Restore clears deleted_at on the row with the given id.
func (r *Repository[E, M]) Restore(ctx context.Context, id string) (err error) {
	q := r.start("restore")
	defer r.finish(ctx, q, &err)

	sql := fmt.Sprintf("UPDATE %s SET deleted_at = NULL, updated_at = NOW() WHERE id = $1", r.Table())
	tag, err := q.Exec(ctx, sql, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RestoreWhere clears deleted_at on every row matching where.
func (r *Repository[E, M]) RestoreWhere(ctx context.Context, where Fields) (affected int64, err error) {
	q := r.start("restore_where")
	defer r.finish(ctx, q, &err)

	sub, args, err := r.subquery(where, true)
	if err != nil {
		return 0, err
	}

	sql := fmt.Sprintf(
		"UPDATE %s SET deleted_at = NULL, updated_at = NOW() WHERE id IN (%s)",
		r.Table(), sub,
	)

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrNotFound
	}
	return tag.RowsAffected(), nil
}

// QueryBuilder returns a builder over the table's projection under alias,
// restricted to live rows.
func (r *Repository[E, M]) QueryBuilder(alias string) *query.Builder {
	return query.
		NewBuilder(r.projection.WithAlias(alias), defaultSort).
		WhereNull("deleted_at")
}

// FindWith executes a builder obtained from QueryBuilder.
func (r *Repository[E, M]) FindWith(ctx context.Context, qb *query.Builder) (models []M, err error) {
	q := r.start("find_with")
	defer r.finish(ctx, q, &err)

	sql, args := qb.Build()
	return r.collect(ctx, q, sql, args, nil)
}

func (r *Repository[E, M]) start(name string) *trace {
	return &trace{
		q:     r.pool,
		op:    &Operation{Table: r.table, Name: name},
		began: time.Now(),
	}
}

// finish classifies the returned error and reports the operation.
func (r *Repository[E, M]) finish(ctx context.Context, t *trace, err *error) {
	*err = Classify(*err)
	if r.observer == nil {
		return
	}
	t.op.Duration = time.Since(t.began)
	t.op.Err = *err
	r.observer.Observe(ctx, *t.op)
}

func (r *Repository[E, M]) builder(c Criteria) (*query.Builder, error) {
	if err := r.checkFields(c.Where.Keys()); err != nil {
		return nil, err
	}
	if err := r.checkFields(c.Select); err != nil {
		return nil, err
	}
	if err := r.checkRelations(c.Relations); err != nil {
		return nil, err
	}
	for _, s := range c.Order {
		if !r.projection.Has(s.Field) {
			return nil, fieldError(s.Field)
		}
	}

	qb := query.NewBuilder(r.projection, defaultSort).Select(c.Select...)
	applyWhere(qb, c.Where)

	if c.ExcludeID != "" {
		qb.WhereNotEquals("id", c.ExcludeID)
	}
	if !c.IncludeDeleted {
		qb.WhereNull("deleted_at")
	}
	if len(c.Order) > 0 {
		qb.OrderByFields(c.Order)
	}

	return qb, nil
}

// subquery selects the ids matching where. Deleted rows are included when
// includeDeleted is set.
func (r *Repository[E, M]) subquery(where Fields, includeDeleted bool) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, ErrUnscopedWrite
	}

	qb, err := r.builder(Criteria{Where: where, IncludeDeleted: includeDeleted, Select: []string{"id"}})
	if err != nil {
		return "", nil, err
	}

	sql, args := qb.Build()
	return sql, args, nil
}

func applyWhere(qb *query.Builder, where Fields) {
	for _, k := range where.Keys() {
		v := where[k]
		switch {
		case v == nil:
			qb.WhereNull(k)
		case isSlice(v):
			qb.WhereAny(k, v)
		default:
			qb.WhereEquals(k, v)
		}
	}
}

func isSlice(v any) bool {
	t := reflect.TypeOf(v)
	return t.Kind() == reflect.Slice && t.Elem().Kind() != reflect.Uint8
}

func (r *Repository[E, M]) assignments(data Fields) (string, []any) {
	sets := make([]string, 0, len(data)+1)
	args := make([]any, 0, len(data))
	for _, k := range data.Keys() {
		if k == "id" || k == "updated_at" {
			continue
		}
		args = append(args, data[k])
		sets = append(sets, fmt.Sprintf("%s = $%d", k, len(args)))
	}
	sets = append(sets, "updated_at = NOW()")
	return join(sets), args
}

func (r *Repository[E, M]) collect(ctx context.Context, q Querier, sql string, args []any, relations []string) ([]M, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	entities, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[E])
	if err != nil {
		return nil, err
	}

	models := make([]M, len(entities))
	for i, e := range entities {
		if models[i], err = r.toModel(e); err != nil {
			return nil, err
		}
		if err = r.load(ctx, q, &models[i], relations); err != nil {
			return nil, err
		}
	}
	return models, nil
}

func (r *Repository[E, M]) one(ctx context.Context, q Querier, sql string, args []any, relations []string) (M, bool, error) {
	var zero M
	models, err := r.collect(ctx, q, sql, args, relations)
	if err != nil || len(models) == 0 {
		return zero, false, err
	}
	return models[0], true, nil
}

func (r *Repository[E, M]) load(ctx context.Context, q Querier, m *M, relations []string) error {
	for _, name := range relations {
		if err := r.loaders[name](ctx, q, m); err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

func (r *Repository[E, M]) checkFields(fields []string) error {
	for _, f := range fields {
		if !r.projection.Has(f) {
			return fieldError(f)
		}
	}
	return nil
}

func (r *Repository[E, M]) checkRelations(relations []string) error {
	for _, name := range relations {
		if _, ok := r.loaders[name]; !ok {
			return ErrInvalidRelation.WithDetails(map[string]string{"relation": name})
		}
	}
	return nil
}

func fieldError(field string) error {
	e := *ErrInvalidField
	e.Message = "Invalid field: " + field
	return &e
}

func reorder[E Entity](entities []E, ids []string) []E {
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, ok := index[id]; !ok {
			index[id] = i
		}
	}

	slices.SortStableFunc(entities, func(a, b E) int {
		ia, oka := index[a.EntityID()]
		ib, okb := index[b.EntityID()]
		switch {
		case oka && okb:
			return ia - ib
		case oka:
			return -1
		case okb:
			return 1
		}
		return 0
	})
	return entities
}
