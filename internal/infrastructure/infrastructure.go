// Package infrastructure provides core service initialization for application startup.
// It assembles the shared systems (logging, database, storage, metrics) that domain systems require.
package infrastructure

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JaimeStill/tollgate/internal/config"
	"github.com/JaimeStill/tollgate/internal/schema"
	"github.com/JaimeStill/tollgate/pkg/database"
	"github.com/JaimeStill/tollgate/pkg/lifecycle"
	"github.com/JaimeStill/tollgate/pkg/logging"
	"github.com/JaimeStill/tollgate/pkg/metrics"
	"github.com/JaimeStill/tollgate/pkg/repository"
	"github.com/JaimeStill/tollgate/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// Storage is nil when no storage account is configured.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Webhook   *logging.Webhook
	Database  database.System
	Storage   storage.System
	Metrics   *metrics.Metrics
	Observer  repository.Observer
	Relations *repository.Registry
}

// New creates an Infrastructure from the application configuration, logging to w.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config, w io.Writer) (*Infrastructure, error) {
	logger, hook := logging.New(&cfg.Logging, w)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	var store storage.System
	if cfg.Storage.Enabled() {
		store, err = storage.New(&cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
	} else {
		logger.Warn("storage not configured, bulk uploads will not be archived")
	}

	m, err := metrics.New(prometheus.NewRegistry(), db.Pool)
	if err != nil {
		return nil, fmt.Errorf("metrics init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Webhook:   hook,
		Database:  db,
		Storage:   store,
		Metrics:   m,
		Observer: repository.Observers(
			repository.NewLogObserver(logger.With("system", "repository"), cfg.Development()),
			m,
		),
		Relations: schema.Relations(),
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}
	if i.Webhook != nil {
		lc := i.Lifecycle
		lc.OnShutdown(func() {
			<-lc.Context().Done()
			i.Webhook.Close()
		})
	}
	return nil
}
