package accounts

import (
	"context"

	"github.com/JaimeStill/tollgate/internal/schema"
	"github.com/JaimeStill/tollgate/pkg/repository"
)

var columns = []string{
	"id", "email", "password", "access_token", "refresh_token",
	"created_at", "updated_at", "deleted_at",
}

// Repository is the data access of the accounts table.
type Repository struct {
	*repository.Repository[Account, Account]
}

// NewRepository binds the accounts table on pool.
func NewRepository(pool repository.Pool, relations *repository.Registry, observer repository.Observer) *Repository {
	return &Repository{
		Repository: repository.New(pool, repository.Config[Account, Account]{
			Table:     schema.Accounts,
			Columns:   columns,
			Relations: relations,
			Observer:  observer,
		}),
	}
}

// ByID returns the live account with id or NotFoundByID.
func (r *Repository) ByID(ctx context.Context, id string) (Account, error) {
	a, found, err := r.FindByID(ctx, id, repository.Criteria{})
	if err != nil {
		return a, err
	}
	if !found {
		return a, NotFoundByID(id)
	}
	return a, nil
}

// ByEmail returns the live account with the normalized email, if any.
func (r *Repository) ByEmail(ctx context.Context, email string) (Account, bool, error) {
	return r.FindOne(ctx, repository.Criteria{
		Where: repository.Fields{"email": NormalizeEmail(email)},
	})
}

// SetTokens stores the issued token pair on the account.
func (r *Repository) SetTokens(ctx context.Context, id, access, refresh string) error {
	_, err := r.Update(ctx, id, repository.Fields{
		"access_token":  access,
		"refresh_token": refresh,
	})
	return repository.MapError(err, NotFoundByID(id), err)
}
