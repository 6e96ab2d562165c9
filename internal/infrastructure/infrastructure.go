// Package infrastructure assembles the library facade and the systems it
// depends on (logging, lifecycle, database, storage, example registry,
// audit sink) from the application configuration.
package infrastructure

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/efinel/node-red/internal/audit"
	"github.com/efinel/node-red/internal/config"
	"github.com/efinel/node-red/internal/examples"
	"github.com/efinel/node-red/internal/library"
	"github.com/efinel/node-red/internal/store"
	"github.com/efinel/node-red/pkg/database"
	"github.com/efinel/node-red/pkg/lifecycle"
	"github.com/efinel/node-red/pkg/logging"
)

// Infrastructure holds the assembled systems.
// Database is nil unless the postgres storage backend is configured.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Store     store.System
	Examples  *examples.Registry
	Library   library.System
}

// New creates an Infrastructure from the application configuration, with
// logs written to logOut. It initializes all systems but does not start
// them; call Start separately.
func New(cfg *config.Config, logOut io.Writer) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := logging.New(&cfg.Logging, logOut)

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
	}

	switch cfg.Storage.Backend {
	case store.BackendPostgres:
		db, err := database.New(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		infra.Database = db
		infra.Store = store.NewPostgres(db.Connection(), &cfg.Storage, logger)
	default:
		fs, err := store.NewFilesystem(&cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
		infra.Store = fs
	}

	infra.Examples = examples.New(cfg.Examples.Paths, logger)

	lib, err := library.New(library.Runtime{
		Store:    infra.Store,
		Flows:    infra.Store,
		Examples: infra.Examples,
		Audit:    audit.New(logger),
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("library init failed: %w", err)
	}
	infra.Library = lib

	return infra, nil
}

// Start initializes all systems and registers them with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if err := i.Store.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if err := i.Examples.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("examples start failed: %w", err)
	}
	return nil
}
