package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "generic error", err: errors.New("some error"), expected: false},
		{name: "ErrNotFound", err: ErrNotFound, expected: true},
		{name: "ErrStateNotFound", err: ErrStateNotFound, expected: true},
		{
			name:     "wrapped ErrStateNotFound",
			err:      fmt.Errorf("failed to load state: %w", ErrStateNotFound),
			expected: true,
		},
		{
			name:     "StoreError wrapping ErrNotFound",
			err:      NewStoreError("k", "get", "missing", ErrNotFound),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsNotFoundError(tt.err))
		})
	}
}

func TestStoreError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewStoreError("bootstrap.user_state", "set", "write failed", cause)

	assert.Equal(t, `set operation on key "bootstrap.user_state" failed: write failed: connection refused`, err.Error())
	assert.ErrorIs(t, err, cause)

	bare := NewStoreError("k", "remove", "not allowed", nil)
	assert.Equal(t, `remove operation on key "k" failed: not allowed`, bare.Error())
}

func TestValidateKey(t *testing.T) {
	assert.ErrorIs(t, ValidateKey(""), ErrInvalidKey)
	assert.NoError(t, ValidateKey("bootstrap.profile"))
}
