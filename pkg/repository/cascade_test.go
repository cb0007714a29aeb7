package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/tollgate/pkg/repository"
)

func registry() *repository.Registry {
	return repository.NewRegistry().
		Register("accounts",
			repository.OneToMany{Name: "jobs", Target: "bulk_jobs", ForeignKey: "account_id", Cascade: true},
			repository.ManyToMany{
				Name:          "engines",
				Target:        "engines",
				JunctionTable: "account_engines",
				OwnerColumn:   "account_id",
				TargetColumn:  "engine_id",
				Owner:         true,
				Cascade:       true,
			},
		).
		Register("bulk_jobs",
			repository.OneToOne{Name: "archive", Target: "archives", JoinColumn: "archive_id", Owner: true, Cascade: true},
		)
}

func idRows(ids ...string) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{"id"})
	for _, id := range ids {
		rows.AddRow(id)
	}
	return rows
}

func TestSoftDeleteCascades(t *testing.T) {
	mock := newMock(t)
	repo := accounts(mock, registry())

	mock.ExpectBegin()
	mock.ExpectQuery(sql("SELECT id FROM public.accounts WHERE id = $1 AND deleted_at IS NULL")).
		WithArgs("acc-1").
		WillReturnRows(idRows("acc-1"))
	mock.ExpectQuery(sql("SELECT id FROM public.bulk_jobs WHERE account_id = ANY($1) AND deleted_at IS NULL")).
		WithArgs([]string{"acc-1"}).
		WillReturnRows(idRows("job-1", "job-2"))
	mock.ExpectQuery(sql("SELECT id FROM public.archives WHERE id IN (SELECT archive_id FROM public.bulk_jobs WHERE id = ANY($1)) AND deleted_at IS NULL")).
		WithArgs([]string{"job-1", "job-2"}).
		WillReturnRows(idRows("arc-1"))
	mock.ExpectExec(sql("UPDATE public.archives SET deleted_at = NOW(), updated_at = NOW() WHERE id = ANY($1) AND deleted_at IS NULL")).
		WithArgs([]string{"arc-1"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(sql("UPDATE public.bulk_jobs SET deleted_at = NOW(), updated_at = NOW() WHERE id = ANY($1) AND deleted_at IS NULL")).
		WithArgs([]string{"job-1", "job-2"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectExec(sql("DELETE FROM public.account_engines WHERE account_id = ANY($1)")).
		WithArgs([]string{"acc-1"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(sql("UPDATE public.accounts SET deleted_at = NOW(), updated_at = NOW() WHERE id = ANY($1) AND deleted_at IS NULL")).
		WithArgs([]string{"acc-1"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	n, err := repo.SoftDelete(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSoftDeleteIsIdempotent(t *testing.T) {
	mock := newMock(t)
	repo := accounts(mock, registry())

	mock.ExpectBegin()
	mock.ExpectQuery(sql("SELECT id FROM public.accounts WHERE id = $1 AND deleted_at IS NULL")).
		WithArgs("acc-1").
		WillReturnRows(idRows())
	mock.ExpectCommit()

	n, err := repo.SoftDelete(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSoftDeleteRollsBackOnFailure(t *testing.T) {
	mock := newMock(t)
	repo := accounts(mock, registry())
	boom := errors.New("connection reset")

	mock.ExpectBegin()
	mock.ExpectQuery(sql("SELECT id FROM public.accounts")).
		WithArgs("acc-1").
		WillReturnRows(idRows("acc-1"))
	mock.ExpectQuery(sql("SELECT id FROM public.bulk_jobs")).
		WithArgs([]string{"acc-1"}).
		WillReturnError(boom)
	mock.ExpectRollback()

	_, err := repo.SoftDelete(context.Background(), "acc-1")
	assert.ErrorIs(t, err, boom)
}

func TestSoftDeleteWhere(t *testing.T) {
	mock := newMock(t)
	repo := accounts(mock, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(sql("SELECT id FROM public.accounts WHERE id IN (SELECT t.id FROM public.accounts t WHERE t.email = $1 AND t.deleted_at IS NULL ORDER BY t.created_at ASC) AND deleted_at IS NULL")).
		WithArgs("a@example.com").
		WillReturnRows(idRows("acc-1", "acc-2"))
	mock.ExpectExec(sql("UPDATE public.accounts SET deleted_at = NOW()")).
		WithArgs([]string{"acc-1", "acc-2"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectCommit()

	n, err := repo.SoftDeleteWhere(context.Background(), repository.Fields{"email": "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCascadesSelectsOwningCascadeRelations(t *testing.T) {
	reg := repository.NewRegistry().Register("archives",
		repository.OneToOne{Name: "job", Target: "bulk_jobs", JoinColumn: "archive_id", Cascade: true},
		repository.OneToMany{Name: "notes", Target: "notes", ForeignKey: "archive_id"},
		repository.ManyToMany{Name: "tags", Target: "tags", JunctionTable: "archive_tags", OwnerColumn: "archive_id", Cascade: true},
	)

	assert.Empty(t, reg.Cascades("archives"))
	assert.Len(t, reg.Relations("archives"), 3)
	assert.Len(t, registry().Cascades("accounts"), 2)
}
