package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/scry-bootstrap/internal/task"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	var critical *task.CriticalTaskError
	switch {
	case errors.Is(err, task.ErrAlreadyRunning):
		return http.StatusConflict
	case errors.As(err, &critical):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err.
func GetSafeErrorMessage(err error) string {
	var critical *task.CriticalTaskError
	switch {
	case err == nil:
		return "An unexpected error occurred"
	case errors.Is(err, task.ErrAlreadyRunning):
		return "Bootstrap already running"
	case errors.As(err, &critical):
		return "Bootstrap aborted: " + critical.Label + " failed"
	default:
		return "An unexpected error occurred"
	}
}
