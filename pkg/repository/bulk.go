package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	createChunk         = 1000
	createChunkNoReturn = 5000
	updateChunk         = 1000
	updateChunkNoReturn = 2000
	deleteChunk         = 1000
	// PostgreSQL accepts at most 65535 bind parameters per statement.
	maxParams = 65535
)

var timestamps = []string{"created_at", "updated_at", "deleted_at"}

// BulkCreate inserts rows in chunks with one multi-row INSERT per chunk.
// Columns absent from a row take their default. Rows without an id receive a
// generated UUID. Returned models follow the input order; rows skipped by
// ConflictDoNothing are absent.
func (r *Repository[E, M]) BulkCreate(ctx context.Context, rows []Fields, opts BulkOptions) (models []M, err error) {
	t := r.start("bulk_create")
	defer r.finish(ctx, t, &err)

	if len(rows) == 0 {
		return []M{}, nil
	}

	cols, err := r.columnsOf(rows)
	if err != nil {
		return nil, err
	}
	cols = append([]string{"id"}, slices.DeleteFunc(cols, func(c string) bool { return c == "id" })...)

	for _, c := range opts.ConflictColumns {
		if !r.projection.Has(c) {
			return nil, fieldError(c)
		}
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		id, _ := row["id"].(string)
		if id == "" {
			id = uuid.NewString()
		}
		ids[i] = id
	}

	size := chunkSize(opts.ChunkSize, opts.NoModelReturn, createChunk, createChunkNoReturn)
	size = min(size, maxParams/len(cols))

	err = r.inTx(ctx, t, opts.SkipTransaction, func(q Querier) error {
		for start := 0; start < len(rows); start += size {
			end := min(start+size, len(rows))
			sql, args := r.insertSQL(cols, rows[start:end], ids[start:end], opts)

			if opts.NoModelReturn {
				if _, err := q.Exec(ctx, sql, args...); err != nil {
					return err
				}
				continue
			}

			chunk, err := r.scan(ctx, q, sql, args, ids[start:end])
			if err != nil {
				return err
			}
			models = append(models, chunk...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if opts.NoModelReturn {
		return []M{}, nil
	}
	return models, nil
}

func (r *Repository[E, M]) insertSQL(cols []string, rows []Fields, ids []string, opts BulkOptions) (string, []any) {
	args := make([]any, 0, len(rows)*len(cols))
	values := make([]string, len(rows))

	for i, row := range rows {
		cells := make([]string, len(cols))
		for j, col := range cols {
			var v any
			ok := true
			if col == "id" {
				v = ids[i]
			} else {
				v, ok = row[col]
			}
			if !ok {
				cells[j] = "DEFAULT"
				continue
			}
			args = append(args, v)
			cells[j] = fmt.Sprintf("$%d", len(args))
		}
		values[i] = "(" + join(cells) + ")"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES %s", r.Table(), join(cols), strings.Join(values, ", "))
	b.WriteString(conflictClause(cols, opts))
	if !opts.NoModelReturn {
		b.WriteString(" RETURNING *")
	}

	return b.String(), args
}

func conflictClause(cols []string, opts BulkOptions) string {
	if opts.OnConflict == ConflictError {
		return ""
	}

	target := opts.ConflictColumns
	if len(target) == 0 {
		target = []string{"id"}
	}

	if opts.OnConflict == ConflictDoNothing {
		return fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", join(target))
	}

	sets := make([]string, 0, len(cols))
	for _, c := range cols {
		if c == "id" || slices.Contains(target, c) || slices.Contains(timestamps, c) {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}
	sets = append(sets, "updated_at = NOW()")

	return fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", join(target), join(sets))
}

// BulkUpdate applies patches to live rows in chunks. Unless NoModelReturn is
// set, every id is verified first and missing ids fail the call with
// ErrNotFound naming them. Repeated ids merge into one patch in first-seen
// position with later fields winning, and patches with nothing to assign are
// skipped. Returned models follow that order.
func (r *Repository[E, M]) BulkUpdate(ctx context.Context, patches []Patch, opts BulkOptions) (models []M, err error) {
	t := r.start("bulk_update")
	defer r.finish(ctx, t, &err)

	if len(patches) == 0 {
		return []M{}, nil
	}

	rows := make([]Fields, len(patches))
	ids := make([]string, len(patches))
	for i, p := range patches {
		rows[i] = p.Fields
		ids[i] = p.ID
	}
	if _, err = r.columnsOf(rows); err != nil {
		return nil, err
	}

	patches = collapse(patches)
	if len(patches) == 0 {
		return []M{}, nil
	}

	size := chunkSize(opts.ChunkSize, opts.NoModelReturn, updateChunk, updateChunkNoReturn)

	err = r.inTx(ctx, t, opts.SkipTransaction, func(q Querier) error {
		for start := 0; start < len(patches); start += size {
			chunk := patches[start:min(start+size, len(patches))]

			if !opts.NoModelReturn {
				if err := r.verify(ctx, q, chunk); err != nil {
					return err
				}
			}

			sql, args := r.updateSQL(chunk, opts)

			if opts.NoModelReturn {
				if _, err := q.Exec(ctx, sql, args...); err != nil {
					return err
				}
				continue
			}

			updated, err := r.scan(ctx, q, sql, args, patchIDs(chunk))
			if err != nil {
				return err
			}
			models = append(models, updated...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if opts.NoModelReturn {
		return []M{}, nil
	}
	return models, nil
}

func (r *Repository[E, M]) verify(ctx context.Context, q Querier, chunk []Patch) error {
	ids := patchIDs(chunk)
	sql := fmt.Sprintf("SELECT id FROM %s WHERE id = ANY($1) AND deleted_at IS NULL", r.Table())

	found, err := selectIDs(ctx, q, sql, ids)
	if err != nil {
		return err
	}

	var missing []string
	for _, id := range ids {
		if !slices.Contains(found, id) && !slices.Contains(missing, id) {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		e := *ErrNotFound
		e.Message = "Records not found: " + strings.Join(missing, ", ")
		e.Details = map[string][]string{"ids": missing}
		return &e
	}
	return nil
}

// collapse merges patches sharing an id and drops those that only touch id or
// updated_at.
func collapse(patches []Patch) []Patch {
	merged := make([]Patch, 0, len(patches))
	at := make(map[string]int, len(patches))
	for _, p := range patches {
		i, seen := at[p.ID]
		if !seen {
			i = len(merged)
			at[p.ID] = i
			merged = append(merged, Patch{ID: p.ID, Fields: Fields{}})
		}
		for k, v := range p.Fields {
			if k == "id" || k == "updated_at" {
				continue
			}
			merged[i].Fields[k] = v
		}
	}
	return slices.DeleteFunc(merged, func(p Patch) bool { return len(p.Fields) == 0 })
}

// updateSQL builds one statement for the chunk. Multi-row chunks bind the id
// array as $1, each id once, then the values referenced by CASE branches.
func (r *Repository[E, M]) updateSQL(chunk []Patch, opts BulkOptions) (string, []any) {
	returning := " RETURNING *"
	if opts.NoModelReturn {
		returning = ""
	}

	if len(chunk) == 1 {
		sets, args := r.assignments(chunk[0].Fields)
		args = append(args, chunk[0].ID)
		return fmt.Sprintf(
			"UPDATE %s SET %s WHERE id = $%d AND deleted_at IS NULL%s",
			r.Table(), sets, len(args), returning,
		), args
	}

	rows := make([]Fields, len(chunk))
	for i, p := range chunk {
		rows[i] = p.Fields
	}
	cols, _ := r.columnsOf(rows)
	cols = slices.DeleteFunc(cols, func(c string) bool { return c == "id" || c == "updated_at" })

	ids := patchIDs(chunk)
	args := []any{ids}
	idParam := make(map[string]int, len(ids))
	for _, id := range ids {
		args = append(args, id)
		idParam[id] = len(args)
	}

	sets := make([]string, 0, len(cols)+1)
	for _, col := range cols {
		var b strings.Builder
		fmt.Fprintf(&b, "%s = CASE", col)
		for _, p := range chunk {
			v, ok := p.Fields[col]
			if !ok {
				continue
			}
			args = append(args, v)
			fmt.Fprintf(&b, " WHEN id = $%d THEN $%d", idParam[p.ID], len(args))
		}
		fmt.Fprintf(&b, " ELSE %s END", col)
		sets = append(sets, b.String())
	}
	sets = append(sets, "updated_at = NOW()")

	return fmt.Sprintf(
		"UPDATE %s SET %s WHERE id = ANY($1) AND deleted_at IS NULL%s",
		r.Table(), join(sets), returning,
	), args
}

// BulkDelete removes rows by id in chunks, soft by default. Soft deletes skip
// rows already deleted and do not follow cascades.
func (r *Repository[E, M]) BulkDelete(ctx context.Context, ids []string, opts BulkDeleteOptions) (affected int64, err error) {
	t := r.start("bulk_delete")
	defer r.finish(ctx, t, &err)

	if len(ids) == 0 {
		return 0, nil
	}

	sql := fmt.Sprintf(
		"UPDATE %s SET deleted_at = NOW(), updated_at = NOW() WHERE id = ANY($1) AND deleted_at IS NULL",
		r.Table(),
	)
	if opts.Hard {
		sql = fmt.Sprintf("DELETE FROM %s WHERE id = ANY($1)", r.Table())
	}

	size := chunkSize(opts.ChunkSize, false, deleteChunk, deleteChunk)

	err = r.inTx(ctx, t, opts.SkipTransaction, func(q Querier) error {
		for start := 0; start < len(ids); start += size {
			tag, err := q.Exec(ctx, sql, ids[start:min(start+size, len(ids))])
			if err != nil {
				return err
			}
			affected += tag.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// inTx runs fn inside one transaction, or directly on the pool when skip is set.
func (r *Repository[E, M]) inTx(ctx context.Context, t *trace, skip bool, fn func(q Querier) error) error {
	if skip {
		return fn(t)
	}
	_, err := WithTx(ctx, r.pool, func(tx pgx.Tx) (struct{}, error) {
		return struct{}{}, fn(&trace{q: tx, op: t.op})
	})
	return err
}

// scan collects returned rows in the order of the chunk's ids.
func (r *Repository[E, M]) scan(ctx context.Context, q Querier, sql string, args []any, ids []string) ([]M, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	entities, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[E])
	if err != nil {
		return nil, err
	}

	entities = reorder(entities, ids)

	models := make([]M, len(entities))
	for i, e := range entities {
		if models[i], err = r.toModel(e); err != nil {
			return nil, err
		}
	}
	return models, nil
}

// columnsOf returns the sorted union of row keys, rejecting unknown columns.
func (r *Repository[E, M]) columnsOf(rows []Fields) ([]string, error) {
	seen := make(map[string]bool)
	var cols []string
	for _, row := range rows {
		for _, k := range row.Keys() {
			if seen[k] {
				continue
			}
			if !r.projection.Has(k) {
				return nil, fieldError(k)
			}
			seen[k] = true
			cols = append(cols, k)
		}
	}
	slices.Sort(cols)
	return cols, nil
}

func chunkSize(requested int, noReturn bool, def, defNoReturn int) int {
	if requested > 0 {
		return requested
	}
	if noReturn {
		return defNoReturn
	}
	return def
}

func patchIDs(chunk []Patch) []string {
	ids := make([]string, len(chunk))
	for i, p := range chunk {
		ids[i] = p.ID
	}
	return ids
}
