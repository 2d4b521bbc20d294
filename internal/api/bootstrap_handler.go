package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-bootstrap/internal/api/shared"
	"github.com/phrazzld/scry-bootstrap/internal/bootstrap"
	"github.com/phrazzld/scry-bootstrap/internal/events"
	"github.com/phrazzld/scry-bootstrap/internal/platform/logger"
	"github.com/phrazzld/scry-bootstrap/internal/registry"
	"github.com/phrazzld/scry-bootstrap/internal/task"
)

// Bootstrapper is the orchestrator surface the API drives.
type Bootstrapper interface {
	Start(ctx context.Context) (bootstrap.Result, error)
	Phase() bootstrap.Phase
	LastResult() (bootstrap.Result, bool)
	Modules() []bootstrap.ModuleSpec
}

// SymbolLister exposes the module registry.
type SymbolLister interface {
	Symbols() []registry.Symbol
}

// EventLister exposes recent lifecycle events.
type EventLister interface {
	Events() []*events.Event
}

// BootstrapHandler handles bootstrap-related HTTP requests
type BootstrapHandler struct {
	bootstrapper Bootstrapper
	symbols      SymbolLister
	events       EventLister
	logger       *slog.Logger
}

// NewBootstrapHandler creates a new BootstrapHandler. events may be nil.
func NewBootstrapHandler(
	bootstrapper Bootstrapper,
	symbols SymbolLister,
	events EventLister,
	logger *slog.Logger,
) *BootstrapHandler {
	return &BootstrapHandler{
		bootstrapper: bootstrapper,
		symbols:      symbols,
		events:       events,
		logger:       logger.With("component", "bootstrap_handler"),
	}
}

// Status handles GET /api/bootstrap/status requests
func (h *BootstrapHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Phase: h.bootstrapper.Phase()}
	if last, ok := h.bootstrapper.LastResult(); ok {
		run := NewRunResponse(last)
		resp.LastRun = &run
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// Run handles POST /api/bootstrap/run requests. The run is detached from the
// request context so a disconnecting client cannot cut it short.
func (h *BootstrapHandler) Run(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	if subject, ok := shared.GetSubject(r.Context()); ok {
		log = log.With("subject", subject)
	}
	log.Info("bootstrap run requested")

	result, err := h.bootstrapper.Start(context.WithoutCancel(r.Context()))
	if err != nil {
		if errors.Is(err, task.ErrAlreadyRunning) {
			shared.RespondWithErrorAndLog(w, r, http.StatusConflict, GetSafeErrorMessage(err), err)
			return
		}

		var critical *task.CriticalTaskError
		if !errors.As(err, &critical) {
			shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
			return
		}

		// an aborted run still reports what it got done
		h.logger.Warn("bootstrap run aborted", "run_id", result.RunID, "label", critical.Label)
		resp := NewRunResponse(result)
		resp.Error = GetSafeErrorMessage(err)
		shared.RespondWithJSON(w, r, MapErrorToStatusCode(err), resp)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewRunResponse(result))
}

// Modules handles GET /api/bootstrap/modules requests
func (h *BootstrapHandler) Modules(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK,
		newModulesResponse(h.bootstrapper.Modules(), h.symbols.Symbols()))
}

// Events handles GET /api/bootstrap/events requests
func (h *BootstrapHandler) Events(w http.ResponseWriter, r *http.Request) {
	resp := EventsResponse{Events: []*events.Event{}}
	if h.events != nil {
		resp.Events = append(resp.Events, h.events.Events()...)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// Health handles GET /health requests
func Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
