package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-bootstrap/internal/config"
	"github.com/phrazzld/scry-bootstrap/internal/platform/memory"
	"github.com/phrazzld/scry-bootstrap/internal/platform/migrations"
	"github.com/phrazzld/scry-bootstrap/internal/platform/postgres"
	"github.com/phrazzld/scry-bootstrap/internal/platform/sqlite"
	"github.com/phrazzld/scry-bootstrap/internal/store"
)

// openDatabase opens the SQL database behind the configured driver and
// returns it with its goose dialect. The memory driver has no database.
func openDatabase(ctx context.Context, cfg config.StoreConfig) (*sql.DB, string, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := postgres.Open(ctx, cfg.DSN)
		return db, migrations.DialectPostgres, err
	case "sqlite":
		db, err := sqlite.Open(cfg.DSN)
		return db, migrations.DialectSQLite, err
	case "memory":
		return nil, "", nil
	default:
		return nil, "", fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// openStore opens the configured state store, applying pending migrations
// for SQL drivers. The returned database is nil for the memory driver and
// must be closed by the caller otherwise.
func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (store.StateStore, *sql.DB, error) {
	db, dialect, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if db == nil {
		logger.Info("using in-memory state store; state is lost on exit")
		return memory.NewStateStore(), nil, nil
	}

	if err := migrations.Up(ctx, db, dialect, logger); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	logger.Info("database connection established", "driver", cfg.Driver)
	if cfg.Driver == "postgres" {
		return postgres.NewPostgresStateStore(db, logger), db, nil
	}
	return sqlite.NewStateStore(db, logger), db, nil
}
