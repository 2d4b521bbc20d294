// Package sqlite provides a single-file SQLite implementation of
// store.StateStore for deployments without a PostgreSQL server.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/phrazzld/scry-bootstrap/internal/store"
	_ "modernc.org/sqlite"
)

const (
	getStateQuery = `SELECT state_value FROM bootstrap_state WHERE state_key = ?`

	setStateQuery = `
INSERT INTO bootstrap_state (state_key, state_value, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (state_key) DO UPDATE
SET state_value = excluded.state_value, updated_at = excluded.updated_at`

	removeStateQuery = `DELETE FROM bootstrap_state WHERE state_key = ?`
)

// Open opens the SQLite file at path. The schema is applied separately
// through the migrations package.
func Open(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	return db, nil
}

// StateStore implements store.StateStore over SQLite.
type StateStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.StateStore = (*StateStore)(nil)

// NewStateStore wraps an open database handle.
func NewStateStore(db store.DBTX, logger *slog.Logger) *StateStore {
	return &StateStore{
		db:     db,
		logger: logger.With("component", "sqlite_state_store"),
	}
}

// Get implements store.StateStore.Get
func (s *StateStore) Get(ctx context.Context, key string) (string, error) {
	if err := store.ValidateKey(key); err != nil {
		return "", err
	}

	var value string
	err := s.db.QueryRowContext(ctx, getStateQuery, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrStateNotFound
	}
	if err != nil {
		s.logger.Error("failed to read state", "key", key, "error", err)
		return "", store.NewStoreError(key, "get", "query failed", err)
	}
	return value, nil
}

// Set implements store.StateStore.Set
func (s *StateStore) Set(ctx context.Context, key, value string) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, setStateQuery, key, value); err != nil {
		s.logger.Error("failed to write state", "key", key, "error", err)
		return store.NewStoreError(key, "set", "upsert failed", fmt.Errorf("%w: %v", store.ErrUpdateFailed, err))
	}
	return nil
}

// Remove implements store.StateStore.Remove
func (s *StateStore) Remove(ctx context.Context, key string) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, removeStateQuery, key); err != nil {
		s.logger.Error("failed to remove state", "key", key, "error", err)
		return store.NewStoreError(key, "remove", "delete failed", err)
	}
	return nil
}
