package postgres

import (
	"context"
	"log/slog"

	"github.com/phrazzld/scry-bootstrap/internal/store"
)

const (
	getStateQuery = `SELECT state_value FROM bootstrap_state WHERE state_key = $1`

	setStateQuery = `
INSERT INTO bootstrap_state (state_key, state_value, updated_at)
VALUES ($1, $2, CURRENT_TIMESTAMP)
ON CONFLICT (state_key) DO UPDATE
SET state_value = EXCLUDED.state_value, updated_at = EXCLUDED.updated_at`

	removeStateQuery = `DELETE FROM bootstrap_state WHERE state_key = $1`
)

// PostgresStateStore implements the store.StateStore interface
// using a PostgreSQL table as the storage backend.
type PostgresStateStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// Ensure PostgresStateStore implements store.StateStore interface
var _ store.StateStore = (*PostgresStateStore)(nil)

// NewPostgresStateStore creates a new PostgreSQL implementation of the StateStore interface.
// It accepts a database connection (or transaction) managed by the caller.
func NewPostgresStateStore(db store.DBTX, logger *slog.Logger) *PostgresStateStore {
	return &PostgresStateStore{
		db:     db,
		logger: logger.With("component", "postgres_state_store"),
	}
}

// Get implements store.StateStore.Get
func (s *PostgresStateStore) Get(ctx context.Context, key string) (string, error) {
	if err := store.ValidateKey(key); err != nil {
		return "", err
	}

	var value string
	err := s.db.QueryRowContext(ctx, getStateQuery, key).Scan(&value)
	if err != nil {
		mapped := MapError(err)
		if !store.IsNotFoundError(mapped) {
			s.logFailure("failed to read state", key, err)
		}
		return "", mapped
	}
	return value, nil
}

// Set implements store.StateStore.Set
func (s *PostgresStateStore) Set(ctx context.Context, key, value string) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, setStateQuery, key, value); err != nil {
		s.logFailure("failed to write state", key, err)
		return store.NewStoreError(key, "set", "upsert failed", MapError(err))
	}
	return nil
}

// Remove implements store.StateStore.Remove
func (s *PostgresStateStore) Remove(ctx context.Context, key string) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, removeStateQuery, key); err != nil {
		s.logFailure("failed to remove state", key, err)
		return store.NewStoreError(key, "remove", "delete failed", MapError(err))
	}
	return nil
}

// logFailure logs a query failure, pointing at migrations when the table is missing.
func (s *PostgresStateStore) logFailure(msg, key string, err error) {
	if IsUndefinedTable(err) {
		s.logger.Error(msg, "key", key, "error", err, "hint", "run bootstrapd migrate")
		return
	}
	s.logger.Error(msg, "key", key, "error", err)
}
