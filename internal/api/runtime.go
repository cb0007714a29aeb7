package api

import (
	"fmt"

	"github.com/JaimeStill/tollgate/internal/auth"
	"github.com/JaimeStill/tollgate/internal/config"
	"github.com/JaimeStill/tollgate/internal/infrastructure"
	"github.com/JaimeStill/tollgate/internal/provider"
	"github.com/JaimeStill/tollgate/pkg/pagination"
)

// Runtime extends Infrastructure with the API-scoped provider client, token
// signer, and request limits.
type Runtime struct {
	*infrastructure.Infrastructure
	Provider      provider.Provider
	Signer        *auth.Signer
	Pagination    pagination.Config
	MaxUploadSize int64
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) (*Runtime, error) {
	logger := infra.Logger.With("module", "api")

	client, err := provider.New(&cfg.Provider, infra.Metrics, logger)
	if err != nil {
		return nil, fmt.Errorf("provider init failed: %w", err)
	}

	signer, err := auth.NewSigner(&cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("token signer init failed: %w", err)
	}

	scoped := *infra
	scoped.Logger = logger

	return &Runtime{
		Infrastructure: &scoped,
		Provider:       client,
		Signer:         signer,
		Pagination:     cfg.API.Pagination,
		MaxUploadSize:  cfg.API.MaxUploadSizeBytes(),
	}, nil
}
