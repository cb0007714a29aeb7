package engines_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/tollgate/internal/engines"
	"github.com/JaimeStill/tollgate/internal/provider"
	"github.com/JaimeStill/tollgate/pkg/reqctx"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func sql(s string) string {
	return regexp.QuoteMeta(s)
}

type catalog struct {
	engines []provider.Engine
	err     error
}

func (c catalog) Engines(context.Context) ([]provider.Engine, error) {
	return c.engines, c.err
}

func newSystem(t *testing.T, c catalog) (pgxmock.PgxPoolIface, *engines.System) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock, engines.New(engines.NewRepository(mock, nil, nil), c, discard)
}

func asAccount(id string) context.Context {
	return reqctx.With(context.Background(), &reqctx.Context{Account: &reqctx.Account{ID: id}})
}

func TestListUpsertsByName(t *testing.T) {
	mock, sys := newSystem(t, catalog{engines: []provider.Engine{
		{Name: "fast", Cost: "0.25"},
		{Name: "odd", Cost: "n/a"},
	}})

	mock.ExpectBegin()
	mock.ExpectExec(sql(
		"INSERT INTO public.engines (id, cost, name) VALUES ($1, $2, $3), ($4, DEFAULT, $5) "+
			"ON CONFLICT (name) DO UPDATE SET cost = EXCLUDED.cost, updated_at = NOW()",
	)).
		WithArgs(pgxmock.AnyArg(), 0.25, "fast", pgxmock.AnyArg(), "odd").
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	got, err := sys.List(context.Background(), struct{}{}).Unwrap()
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestListSurvivesSyncFailure(t *testing.T) {
	mock, sys := newSystem(t, catalog{engines: []provider.Engine{{Name: "fast", Cost: "1"}}})

	mock.ExpectBegin()
	mock.ExpectExec(sql("INSERT INTO public.engines")).
		WithArgs(pgxmock.AnyArg(), 1.0, "fast").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	got, err := sys.List(context.Background(), struct{}{}).Unwrap()
	require.NoError(t, err)
	assert.Equal(t, "fast", got[0].Name)
}

func TestListProviderFailure(t *testing.T) {
	_, sys := newSystem(t, catalog{err: provider.ErrProvider})

	err := sys.List(context.Background(), struct{}{}).Err()
	assert.ErrorIs(t, err, provider.ErrProvider)
}

func TestPreferred(t *testing.T) {
	mock, sys := newSystem(t, catalog{})

	mock.ExpectQuery(sql(
		"SELECT e.id, e.name, e.cost, e.created_at, e.updated_at, e.deleted_at FROM public.engines e " +
			"WHERE e.deleted_at IS NULL AND e.id IN (SELECT engine_id FROM public.account_engines WHERE account_id = $1) " +
			"ORDER BY e.created_at ASC",
	)).
		WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).AddRow("e1", "fast"))

	got, err := sys.Preferred(asAccount("acc-1"), struct{}{}).Unwrap()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fast", got[0].Name)
}

func TestSetPreferredReplacesLinks(t *testing.T) {
	mock, sys := newSystem(t, catalog{})
	names := []string{"fast", "slow"}

	mock.ExpectBegin()
	mock.ExpectQuery(sql("FROM public.engines t WHERE t.deleted_at IS NULL AND t.name = ANY($1)")).
		WithArgs(names).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).AddRow("e1", "fast").AddRow("e2", "slow"))
	mock.ExpectExec(sql("DELETE FROM public.account_engines WHERE account_id = $1")).
		WithArgs("acc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(sql("INSERT INTO public.account_engines (account_id, engine_id) SELECT $1, unnest($2::text[])")).
		WithArgs("acc-1", []string{"e1", "e2"}).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	got, err := sys.SetPreferred(asAccount("acc-1"), engines.PreferredCommand{Names: names}).Unwrap()
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSetPreferredUnknownEngine(t *testing.T) {
	mock, sys := newSystem(t, catalog{})

	mock.ExpectBegin()
	mock.ExpectQuery(sql("t.name = ANY($1)")).
		WithArgs([]string{"fast", "ghost"}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).AddRow("e1", "fast"))
	mock.ExpectRollback()

	err := sys.SetPreferred(asAccount("acc-1"), engines.PreferredCommand{Names: []string{"fast", "ghost"}}).Err()
	assert.ErrorIs(t, err, engines.ErrNotFound)
}

func TestSetPreferredHandlerRejectsUnknownFields(t *testing.T) {
	_, sys := newSystem(t, catalog{})
	h := engines.NewHandler(sys, discard)

	req := httptest.NewRequest(http.MethodPut, "/engines/preferred", strings.NewReader(`{"engines":["fast"]}`))
	rec := httptest.NewRecorder()
	h.SetPreferred(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "InvalidRequestBody", body["name"])
}
