// Package infrastructure provides core service initialization for application startup.
// It assembles the shared dependencies (logging, database, storage, identity,
// caching, and metrics) that domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/factotum/internal/config"
	"github.com/JaimeStill/factotum/pkg/auth"
	"github.com/JaimeStill/factotum/pkg/cache"
	"github.com/JaimeStill/factotum/pkg/database"
	"github.com/JaimeStill/factotum/pkg/lifecycle"
	"github.com/JaimeStill/factotum/pkg/metrics"
	"github.com/JaimeStill/factotum/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// Metrics is always non-nil; cfg.Metrics.Enabled only controls whether the
// registry is exposed over HTTP.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Auth      auth.System
	Cache     cache.System
	Metrics   *metrics.Metrics
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Auth:      auth.New(&cfg.Auth, logger),
		Cache:     cache.New(&cfg.Cache, logger),
		Metrics:   metrics.New(cfg.Metrics.Namespace),
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if err := i.Auth.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("auth start failed: %w", err)
	}
	if err := i.Cache.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("cache start failed: %w", err)
	}
	return nil
}
