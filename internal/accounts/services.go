package accounts

import (
	"context"
	"log/slog"

	"github.com/JaimeStill/tollgate/pkg/repository"
	"github.com/JaimeStill/tollgate/pkg/result"
	"github.com/JaimeStill/tollgate/pkg/service"
	"github.com/JaimeStill/tollgate/pkg/validation"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// CredentialRules validates an email and password pair.
func CredentialRules(v *validation.Validator, c CreateCommand) {
	v.Required("email", c.Email).
		Email("email", NormalizeEmail(c.Email)).
		Required("password", c.Password).
		MinLength("password", c.Password, MinPasswordLength)
}

// Create registers a new account with a hashed password.
type Create struct {
	repo   *Repository
	hasher Hasher
	logger *slog.Logger
}

func NewCreate(repo *Repository, hasher Hasher, logger *slog.Logger) service.Service[CreateCommand, Account] {
	return &Create{repo: repo, hasher: hasher, logger: logger.With("service", "accounts.create")}
}

func (s *Create) Execute(ctx context.Context, cmd CreateCommand) result.Result[Account] {
	valid := validation.Validate(cmd, CredentialRules)
	if !valid.IsSuccess() {
		return result.Fail[Account](valid.Err())
	}

	email := NormalizeEmail(cmd.Email)

	_, exists, err := s.repo.ByEmail(ctx, email)
	if err != nil {
		return result.Fail[Account](err)
	}
	if exists {
		return result.Fail[Account](ErrAlreadyExists)
	}

	hash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return result.Fail[Account](err)
	}

	account, err := s.repo.Create(ctx, repository.Fields{
		"email":    email,
		"password": hash,
	}, "")
	if err != nil {
		return result.Fail[Account](repository.MapError(err, ErrNotFound, ErrAlreadyExists))
	}

	s.logger.InfoContext(ctx, "account created", "account", account.ID)
	return result.Success(account)
}

// Deleted reports the rows removed by a cascading delete.
type Deleted struct {
	Deleted int `json:"deleted"`
}

// Delete soft deletes the caller's account together with its jobs, their
// archives, and its preferred engine links.
type Delete struct {
	repo   *Repository
	logger *slog.Logger
}

func NewDelete(repo *Repository, logger *slog.Logger) service.Service[string, Deleted] {
	return &Delete{repo: repo, logger: logger.With("service", "accounts.delete")}
}

func (s *Delete) Execute(ctx context.Context, id string) result.Result[Deleted] {
	n, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return result.Fail[Deleted](err)
	}
	if n == 0 {
		return result.Fail[Deleted](NotFoundByID(id))
	}

	s.logger.InfoContext(ctx, "account deleted", "account", id, "rows", n)
	return result.Success(Deleted{Deleted: n})
}
