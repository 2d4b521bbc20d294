package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/scry-bootstrap/internal/store"
)

// PostgreSQL error codes
const (
	// notNullViolationCode is the PostgreSQL error code for not null violations
	notNullViolationCode = "23502"

	// undefinedTableCode is returned when the schema has not been migrated
	undefinedTableCode = "42P01"

	// queryCanceledCode is returned when statement_timeout or a cancel request fires
	queryCanceledCode = "57014"
)

// MapError maps a database error to an appropriate store error.
// It wraps the original error to preserve context and provide better debugging information.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrStateNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case notNullViolationCode:
			return fmt.Errorf("%w: not null violation (%s): %v", store.ErrUpdateFailed, pgErr.ColumnName, err)
		case undefinedTableCode:
			return fmt.Errorf("%w: schema not migrated: %v", store.ErrUpdateFailed, err)
		case queryCanceledCode:
			return fmt.Errorf("%w: query canceled: %v", store.ErrUpdateFailed, err)
		}
	}

	// Return the original error for errors that don't have specific mappings
	return err
}

// IsUndefinedTable reports whether err is a PostgreSQL "relation does not exist" error.
func IsUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTableCode
}
