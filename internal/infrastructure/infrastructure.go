// Package infrastructure assembles the shared runtime systems the domain
// modules depend on: lifecycle coordination, logging, Postgres, and the
// attachment blob store.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lodestarfreight/mailroom/internal/config"
	"github.com/lodestarfreight/mailroom/pkg/database"
	"github.com/lodestarfreight/mailroom/pkg/lifecycle"
	"github.com/lodestarfreight/mailroom/pkg/storage"
)

// Infrastructure is the set of systems every module receives.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
}

// New builds the infrastructure from finalized configuration. Nothing is
// started; call Start once the modules have registered their hooks.
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
	}, nil
}

// Start registers the database and storage lifecycle hooks.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}
