package repository_test

import (
	"context"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/tollgate/pkg/pagination"
	"github.com/JaimeStill/tollgate/pkg/repository"
)

type account struct {
	ID        string     `db:"id"`
	Email     string     `db:"email"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

func (a account) EntityID() string { return a.ID }

type engine struct {
	ID   string  `db:"id"`
	Name string  `db:"name"`
	Cost float64 `db:"cost"`
}

func (e engine) EntityID() string { return e.ID }

var (
	accountColumns = []string{"id", "email", "created_at", "updated_at", "deleted_at"}
	engineColumns  = []string{"id", "name", "cost", "created_at", "updated_at", "deleted_at"}
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func accounts(mock pgxmock.PgxPoolIface, relations *repository.Registry) *repository.Repository[account, account] {
	return repository.New(mock, repository.Config[account, account]{
		Table:      "accounts",
		Columns:    accountColumns,
		Relations:  relations,
		Pagination: pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	})
}

func engines(mock pgxmock.PgxPoolIface) *repository.Repository[engine, engine] {
	return repository.New(mock, repository.Config[engine, engine]{
		Table:   "engines",
		Columns: engineColumns,
	})
}

func sql(s string) string {
	return regexp.QuoteMeta(s)
}

func TestFindPaginates(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		hasNext  bool
		offset   int
		returned int
	}{
		{"first page", 1, true, 0, 10},
		{"last page", 3, false, 20, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			repo := accounts(mock, nil)

			mock.ExpectQuery(sql("SELECT COUNT(*) FROM public.accounts t WHERE t.email = $1 AND t.deleted_at IS NULL")).
				WithArgs("a@example.com").
				WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(25))

			rows := pgxmock.NewRows([]string{"id", "email"})
			for range tt.returned {
				rows.AddRow("acc", "a@example.com")
			}
			mock.ExpectQuery(sql(
				"SELECT t.id, t.email, t.created_at, t.updated_at, t.deleted_at FROM public.accounts t " +
					"WHERE t.email = $1 AND t.deleted_at IS NULL ORDER BY t.created_at ASC LIMIT 10 OFFSET " +
					strconv.Itoa(tt.offset),
			)).
				WithArgs("a@example.com").
				WillReturnRows(rows)

			page, err := repo.Find(context.Background(), repository.Criteria{
				Where:  repository.Fields{"email": "a@example.com"},
				Page:   tt.page,
				Offset: 10,
			})
			require.NoError(t, err)

			assert.Equal(t, 25, page.Total)
			assert.Equal(t, 3, page.TotalPages)
			assert.Equal(t, tt.hasNext, page.HasNextPage)
			assert.Len(t, page.Data, tt.returned)
		})
	}
}

func TestFindAllIncludeDeleted(t *testing.T) {
	mock := newMock(t)
	repo := accounts(mock, nil)

	mock.ExpectQuery(sql("SELECT t.id, t.email FROM public.accounts t WHERE t.deleted_at IS NULL AND t.id != $1 ORDER BY t.created_at ASC")).
		WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email"}).AddRow("acc-2", "b@example.com"))

	got, err := repo.FindAll(context.Background(), repository.Criteria{
		Where:          repository.Fields{"deleted_at": nil},
		ExcludeID:      "acc-1",
		IncludeDeleted: true,
		Select:         []string{"id", "email"},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "acc-2", got[0].ID)
}

func TestFindAllSliceMatchesAny(t *testing.T) {
	mock := newMock(t)
	repo := accounts(mock, nil)

	ids := []string{"acc-1", "acc-2"}
	mock.ExpectQuery(sql("FROM public.accounts t WHERE t.id = ANY($1) AND t.deleted_at IS NULL")).
		WithArgs(ids).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("acc-1").AddRow("acc-2"))

	got, err := repo.FindAll(context.Background(), repository.Criteria{Where: repository.Fields{"id": ids}})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFindRejectsUnknownField(t *testing.T) {
	mock := newMock(t)
	repo := accounts(mock, nil)

	_, err := repo.Find(context.Background(), repository.Criteria{Where: repository.Fields{"password_hash": "x"}})
	require.ErrorIs(t, err, repository.ErrInvalidField)
	assert.Contains(t, err.Error(), "password_hash")
}

func TestFindByIDEmptySkipsQuery(t *testing.T) {
	mock := newMock(t)
	repo := accounts(mock, nil)

	_, found, err := repo.FindByID(context.Background(), "", repository.Criteria{})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFindByID(t *testing.T) {
	mock := newMock(t)
	repo := accounts(mock, nil)

	mock.ExpectQuery(sql("WHERE t.deleted_at IS NULL AND t.id = $1 ORDER BY t.created_at ASC LIMIT 1")).
		WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email"}).AddRow("acc-1", "a@example.com"))

	got, found, err := repo.FindByID(context.Background(), "acc-1", repository.Criteria{})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "a@example.com", got.Email)
}

func TestFindLastOrdersByCreatedAtDescending(t *testing.T) {
	mock := newMock(t)
	repo := accounts(mock, nil)

	mock.ExpectQuery(sql("WHERE t.deleted_at IS NULL ORDER BY t.created_at DESC LIMIT 1")).
		WithArgs().
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, found, err := repo.FindLast(context.Background(), repository.Criteria{})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCreate(t *testing.T) {
	mock := newMock(t)
	repo := accounts(mock, nil)

	mock.ExpectQuery(sql("INSERT INTO public.accounts (id, email) VALUES ($1, $2) RETURNING *")).
		WithArgs("acc-1", "a@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email"}).AddRow("acc-1", "a@example.com"))

	got, err := repo.Create(context.Background(), repository.Fields{"email": "a@example.com"}, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", got.ID)
}

func TestCreateGeneratesID(t *testing.T) {
	mock := newMock(t)
	repo := accounts(mock, nil)

	mock.ExpectQuery(sql("INSERT INTO public.accounts (id, email) VALUES ($1, $2) RETURNING *")).
		WithArgs(pgxmock.AnyArg(), "a@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email"}).AddRow("generated", "a@example.com"))

	_, err := repo.Create(context.Background(), repository.Fields{"email": "a@example.com"}, "")
	require.NoError(t, err)
}

func TestUpdate(t *testing.T) {
	mock := newMock(t)
	repo := accounts(mock, nil)

	mock.ExpectQuery(sql("UPDATE public.accounts SET email = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL RETURNING *")).
		WithArgs("new@example.com", "acc-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email"}).AddRow("acc-1", "new@example.com"))

	got, err := repo.Update(context.Background(), "acc-1", repository.Fields{"email": "new@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", got.Email)
}

func TestUpdateMissingRow(t *testing.T) {
	mock := newMock(t)
	repo := accounts(mock, nil)

	mock.ExpectQuery(sql("UPDATE public.accounts SET")).
		WithArgs("new@example.com", "missing").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email"}))

	_, err := repo.Update(context.Background(), "missing", repository.Fields{"email": "new@example.com"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateLoadsRelations(t *testing.T) {
	mock := newMock(t)
	var loaded []string

	repo := repository.New(mock, repository.Config[account, account]{
		Table:   "accounts",
		Columns: accountColumns,
		Loaders: map[string]repository.Loader[account]{
			"engines": func(_ context.Context, _ repository.Querier, a *account) error {
				loaded = append(loaded, a.ID)
				return nil
			},
		},
	})

	mock.ExpectQuery(sql("UPDATE public.accounts SET updated_at = NOW() WHERE id = $1")).
		WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("acc-1"))

	_, err := repo.Update(context.Background(), "acc-1", nil, "engines")
	require.NoError(t, err)
	assert.Equal(t, []string{"acc-1"}, loaded)

	_, err = repo.Update(context.Background(), "acc-1", nil, "unknown")
	assert.ErrorIs(t, err, repository.ErrInvalidRelation)
}

func TestHardDeleteWhereRequiresPredicate(t *testing.T) {
	mock := newMock(t)
	repo := accounts(mock, nil)

	_, err := repo.HardDeleteWhere(context.Background(), nil)
	assert.ErrorIs(t, err, repository.ErrUnscopedWrite)
}

func TestHardDeleteWhere(t *testing.T) {
	mock := newMock(t)
	repo := accounts(mock, nil)

	mock.ExpectExec(sql("DELETE FROM public.accounts WHERE id IN (SELECT t.id FROM public.accounts t WHERE t.email = $1 ORDER BY t.created_at ASC)")).
		WithArgs("a@example.com").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	n, err := repo.HardDeleteWhere(context.Background(), repository.Fields{"email": "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestRestore(t *testing.T) {
	mock := newMock(t)
	repo := accounts(mock, nil)

	restore := sql("UPDATE public.accounts SET deleted_at = NULL, updated_at = NOW() WHERE id = $1")
	mock.ExpectExec(restore).WithArgs("acc-1").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(restore).WithArgs("missing").WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.Restore(context.Background(), "acc-1"))
	assert.ErrorIs(t, repo.Restore(context.Background(), "missing"), repository.ErrNotFound)
}

func TestQualifyUsesConfiguredSchema(t *testing.T) {
	mock := newMock(t)
	repo := repository.New(mock, repository.Config[engine, engine]{
		Schema:  "billing",
		Table:   "engines",
		Columns: engineColumns,
	})

	assert.Equal(t, "billing.engines", repo.Table())
	assert.Equal(t, "billing.account_engines", repo.Qualify("account_engines"))
	assert.Equal(t, "public.account_engines", engines(mock).Qualify("account_engines"))
}

func TestHardDelete(t *testing.T) {
	mock := newMock(t)
	repo := accounts(mock, nil)

	del := sql("DELETE FROM public.accounts WHERE id = $1")
	mock.ExpectExec(del).WithArgs("acc-1").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(del).WithArgs("missing").WillReturnResult(pgxmock.NewResult("DELETE", 0))

	n, err := repo.HardDelete(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.HardDelete(context.Background(), "missing")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRestoreWhere(t *testing.T) {
	mock := newMock(t)
	repo := accounts(mock, nil)

	restore := sql("UPDATE public.accounts SET deleted_at = NULL, updated_at = NOW() WHERE id IN (SELECT t.id FROM public.accounts t WHERE t.email = $1 ORDER BY t.created_at ASC)")
	mock.ExpectExec(restore).WithArgs("a@example.com").WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectExec(restore).WithArgs("none@example.com").WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	n, err := repo.RestoreWhere(context.Background(), repository.Fields{"email": "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = repo.RestoreWhere(context.Background(), repository.Fields{"email": "none@example.com"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.RestoreWhere(context.Background(), nil)
	assert.ErrorIs(t, err, repository.ErrUnscopedWrite)
}

func TestCount(t *testing.T) {
	mock := newMock(t)
	var ops []repository.Operation

	repo := repository.New(mock, repository.Config[account, account]{
		Table:   "accounts",
		Columns: accountColumns,
		Observer: repository.ObserverFunc(func(_ context.Context, op repository.Operation) {
			ops = append(ops, op)
		}),
	})

	mock.ExpectQuery(sql("SELECT COUNT(*) FROM public.accounts t WHERE t.deleted_at IS NULL")).
		WithArgs().
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(7))

	n, err := repo.Count(context.Background(), repository.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	require.Len(t, ops, 1)
	assert.Equal(t, "accounts", ops[0].Table)
	assert.Equal(t, "count", ops[0].Name)
	assert.Equal(t, 1, ops[0].Statements)
	assert.NoError(t, ops[0].Err)
}

func TestQueryBuilderExcludesDeleted(t *testing.T) {
	mock := newMock(t)
	repo := engines(mock)

	qb := repo.QueryBuilder("e").WhereEquals("name", "alpha")

	mock.ExpectQuery(sql("FROM public.engines e WHERE e.deleted_at IS NULL AND e.name = $1")).
		WithArgs("alpha").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).AddRow("e1", "alpha"))

	got, err := repo.FindWith(context.Background(), qb)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alpha", got[0].Name)
}
