// Package migrations embeds the SQL schema for the persisted state store and
// applies it with goose. The same migrations serve PostgreSQL and SQLite.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
)

// TableName is the goose version table used by this service.
const TableName = "bootstrap_schema_migrations"

// Dialect names accepted by Up and Status.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

//go:embed sql/*.sql
var embedded embed.FS

// slogGooseLogger adapts the goose logger interface to use slog
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf implements the goose.Logger Printf method by forwarding messages to slog.Info
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

// Fatalf implements the goose.Logger Fatalf method by forwarding error messages to slog.Error.
// It deliberately does not exit; the error is returned to the caller.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

func configure(dialect string, logger *slog.Logger) error {
	goose.SetBaseFS(embedded)
	goose.SetTableName(TableName)
	goose.SetLogger(&slogGooseLogger{logger: logger.With("component", "migrations")})
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set dialect %s: %w", dialect, err)
	}
	return nil
}

// Up applies all pending migrations.
func Up(ctx context.Context, db *sql.DB, dialect string, logger *slog.Logger) error {
	if err := configure(dialect, logger); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "sql"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Status logs the applied/pending state of every migration.
func Status(ctx context.Context, db *sql.DB, dialect string, logger *slog.Logger) error {
	if err := configure(dialect, logger); err != nil {
		return err
	}
	if err := goose.StatusContext(ctx, db, "sql"); err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}
	return nil
}
