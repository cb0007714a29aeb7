package api

import (
	"github.com/JaimeStill/tollgate/internal/accounts"
	"github.com/JaimeStill/tollgate/internal/auth"
	"github.com/JaimeStill/tollgate/internal/classifications"
	"github.com/JaimeStill/tollgate/internal/engines"
	"github.com/JaimeStill/tollgate/internal/transactions"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Auth            *auth.System
	Engines         *engines.System
	Classifications classifications.System
	Ledger          transactions.Ledger
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	pool := runtime.Database.Pool()
	relations := runtime.Relations
	observer := runtime.Observer

	accountRepo := accounts.NewRepository(pool, relations, observer)
	authSystem := auth.New(accountRepo, runtime.Signer, accounts.Bcrypt{}, runtime.Logger)

	enginesSystem := engines.New(
		engines.NewRepository(pool, relations, observer),
		runtime.Provider,
		runtime.Logger,
	)

	classificationsSystem := classifications.New(
		runtime.Provider,
		classifications.NewJobs(pool, relations, observer, runtime.Pagination),
		classifications.NewArchives(pool, relations, observer),
		runtime.Storage,
		runtime.Logger,
	)

	return &Domain{
		Auth:            authSystem,
		Engines:         enginesSystem,
		Classifications: classificationsSystem,
		Ledger:          runtime.Provider,
	}
}
