// Package auth issues account tokens and authenticates requests.
package auth

import (
	"context"
	"crypto/subtle"
	"log/slog"

	"github.com/JaimeStill/tollgate/internal/accounts"
	"github.com/JaimeStill/tollgate/pkg/result"
	"github.com/JaimeStill/tollgate/pkg/service"
	"github.com/JaimeStill/tollgate/pkg/validation"
)

// Tokens is the pair returned by login, sign-up, and refresh.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

type LoginCommand = accounts.CreateCommand

type RefreshCommand struct {
	RefreshToken string `json:"refreshToken"`
}

// System owns the account services and the token signer.
type System struct {
	accounts *accounts.Repository
	signer   *Signer
	hasher   accounts.Hasher
	create   service.Service[accounts.CreateCommand, accounts.Account]
	remove   service.Service[string, accounts.Deleted]
	logger   *slog.Logger
}

func New(repo *accounts.Repository, signer *Signer, hasher accounts.Hasher, logger *slog.Logger) *System {
	logger = logger.With("system", "auth")
	return &System{
		accounts: repo,
		signer:   signer,
		hasher:   hasher,
		create:   accounts.NewCreate(repo, hasher, logger),
		remove:   accounts.NewDelete(repo, logger),
		logger:   logger,
	}
}

// Login exchanges credentials for a token pair. A missing account and a
// wrong password fail identically.
func (s *System) Login(ctx context.Context, cmd LoginCommand) result.Result[Tokens] {
	valid := validation.Validate(cmd, accounts.CredentialRules)
	if !valid.IsSuccess() {
		return result.Fail[Tokens](valid.Err())
	}

	email := accounts.NormalizeEmail(cmd.Email)
	account, found, err := s.accounts.ByEmail(ctx, email)
	if err != nil {
		return result.Fail[Tokens](err)
	}
	if !found || !s.hasher.Compare(account.Password, cmd.Password) {
		return result.Fail[Tokens](accounts.NotFoundByEmail(email))
	}

	return s.GenerateTokens(ctx, account.ID)
}

// SignUp creates an account and logs it in.
func (s *System) SignUp(ctx context.Context, cmd accounts.CreateCommand) result.Result[Tokens] {
	account, err := s.create.Execute(ctx, cmd).Unwrap()
	if err != nil {
		return result.Fail[Tokens](err)
	}
	return s.GenerateTokens(ctx, account.ID)
}

// GenerateTokens signs a fresh pair for the account and stores it.
func (s *System) GenerateTokens(ctx context.Context, accountID string) result.Result[Tokens] {
	if _, err := s.accounts.ByID(ctx, accountID); err != nil {
		return result.Fail[Tokens](err)
	}

	access, err := s.signer.Sign(accountID, AccessToken)
	if err != nil {
		return result.Fail[Tokens](err)
	}
	refresh, err := s.signer.Sign(accountID, RefreshToken)
	if err != nil {
		return result.Fail[Tokens](err)
	}

	if err := s.accounts.SetTokens(ctx, accountID, access, refresh); err != nil {
		return result.Fail[Tokens](err)
	}

	return result.Success(Tokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.signer.TTL(AccessToken).Seconds()),
	})
}

// Refresh rotates the pair when the presented refresh token is the one
// last issued to the account.
func (s *System) Refresh(ctx context.Context, cmd RefreshCommand) result.Result[Tokens] {
	if cmd.RefreshToken == "" {
		return result.Fail[Tokens](validation.New().Required("refreshToken", "").Err())
	}

	sub, err := s.signer.Verify(cmd.RefreshToken, RefreshToken)
	if err != nil {
		return result.Fail[Tokens](err)
	}

	account, err := s.accounts.ByID(ctx, sub)
	if err != nil {
		return result.Fail[Tokens](ErrInvalidToken.Wrap(err))
	}
	if account.RefreshToken == nil ||
		subtle.ConstantTimeCompare([]byte(*account.RefreshToken), []byte(cmd.RefreshToken)) != 1 {
		return result.Fail[Tokens](ErrInvalidToken)
	}

	return s.GenerateTokens(ctx, account.ID)
}

// CurrentAccount returns the profile of the account with id.
func (s *System) CurrentAccount(ctx context.Context, id string) result.Result[accounts.Profile] {
	account, err := s.accounts.ByID(ctx, id)
	return result.Map(result.From(account, err), accounts.Account.Profile)
}

// DeleteAccount soft deletes the account with id and everything it owns.
func (s *System) DeleteAccount(ctx context.Context, id string) result.Result[accounts.Deleted] {
	return s.remove.Execute(ctx, id)
}
