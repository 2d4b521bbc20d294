package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/scry-bootstrap/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		expectedError error
	}{
		{
			name:          "nil_error",
			err:           nil,
			expectedError: nil,
		},
		{
			name:          "sql_no_rows",
			err:           sql.ErrNoRows,
			expectedError: store.ErrStateNotFound,
		},
		{
			name:          "wrapped_no_rows",
			err:           fmt.Errorf("scan: %w", sql.ErrNoRows),
			expectedError: store.ErrNotFound,
		},
		{
			name:          "not_null_violation",
			err:           &pgconn.PgError{Code: notNullViolationCode, ColumnName: "state_value"},
			expectedError: store.ErrUpdateFailed,
		},
		{
			name:          "undefined_table",
			err:           &pgconn.PgError{Code: undefinedTableCode},
			expectedError: store.ErrUpdateFailed,
		},
		{
			name:          "query_canceled",
			err:           &pgconn.PgError{Code: queryCanceledCode},
			expectedError: store.ErrUpdateFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := MapError(tt.err)
			if tt.expectedError == nil {
				assert.NoError(t, mapped)
				return
			}
			assert.ErrorIs(t, mapped, tt.expectedError)
		})
	}

	t.Run("unmapped_error_passes_through", func(t *testing.T) {
		original := errors.New("connection reset")
		assert.Same(t, original, MapError(original))
	})
}

func TestIsUndefinedTable(t *testing.T) {
	assert.True(t, IsUndefinedTable(fmt.Errorf("query: %w", &pgconn.PgError{Code: undefinedTableCode})))
	assert.False(t, IsUndefinedTable(&pgconn.PgError{Code: notNullViolationCode}))
	assert.False(t, IsUndefinedTable(errors.New("other")))
}
