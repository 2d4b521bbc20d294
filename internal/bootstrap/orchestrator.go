package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-bootstrap/internal/events"
	"github.com/phrazzld/scry-bootstrap/internal/recovery"
	"github.com/phrazzld/scry-bootstrap/internal/redact"
	"github.com/phrazzld/scry-bootstrap/internal/registry"
	"github.com/phrazzld/scry-bootstrap/internal/task"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/phrazzld/scry-bootstrap/internal/bootstrap"

	// RecoverTaskLabel labels the critical session recovery task.
	RecoverTaskLabel = "recover-session"
	loadTaskPrefix   = "load:"
)

// ModuleSpec declares a module to load during bootstrap.
type ModuleSpec struct {
	Symbol string `json:"symbol"`
	URL    string `json:"url"`
}

// Loader loads a module idempotently. *registry.Guard satisfies it.
type Loader interface {
	Load(ctx context.Context, symbol, url string) (registry.LoadResult, error)
}

// Resolver recovers the user's identity. *recovery.Chain satisfies it.
type Resolver interface {
	Resolve(ctx context.Context) (*recovery.Identity, error)
	State() recovery.UserState
}

// Result is the outcome of one bootstrap run.
type Result struct {
	RunID      uuid.UUID          `json:"run_id"`
	Phase      Phase              `json:"phase"`
	Status     task.Status        `json:"status"`
	UserState  recovery.UserState `json:"user_state"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
}

// Config configures an Orchestrator.
type Config struct {
	Sequencer task.SequencerConfig
}

// Orchestrator runs the bootstrap sequence.
type Orchestrator struct {
	loader   Loader
	resolver Resolver
	modules  []ModuleSpec
	emitter  events.EventEmitter
	config   Config
	logger   *slog.Logger
	tracer   trace.Tracer

	mu    sync.Mutex
	phase Phase
	last  *Result
}

// New creates an Orchestrator. emitter may be nil.
func New(
	loader Loader,
	resolver Resolver,
	modules []ModuleSpec,
	emitter events.EventEmitter,
	config Config,
	logger *slog.Logger,
) *Orchestrator {
	mods := make([]ModuleSpec, len(modules))
	copy(mods, modules)

	return &Orchestrator{
		loader:   loader,
		resolver: resolver,
		modules:  mods,
		emitter:  emitter,
		config:   config,
		logger:   logger.With("component", "bootstrap_orchestrator"),
		tracer:   otel.Tracer(tracerName),
		phase:    PhaseNotStarted,
	}
}

// Modules returns the declared modules in load order.
func (o *Orchestrator) Modules() []ModuleSpec {
	out := make([]ModuleSpec, len(o.modules))
	copy(out, o.modules)
	return out
}

// Phase returns the current phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// LastResult returns the result of the most recent finished run.
func (o *Orchestrator) LastResult() (Result, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last == nil {
		return Result{}, false
	}
	return *o.last, true
}

// Start runs the full bootstrap sequence and blocks until it finishes.
//
// Every module is loaded first, in declaration order; a failed load is
// recorded and the run continues. Session recovery runs last. Finding no
// identity completes the run with an empty UserState; any other recovery
// failure aborts it and is returned together with the partial result.
// Returns task.ErrAlreadyRunning while another run is in progress.
func (o *Orchestrator) Start(ctx context.Context) (Result, error) {
	o.mu.Lock()
	if o.phase == PhaseRunning {
		o.mu.Unlock()
		return Result{}, task.ErrAlreadyRunning
	}
	o.phase = PhaseRunning
	o.mu.Unlock()

	result := Result{
		RunID:     uuid.New(),
		Phase:     PhaseRunning,
		UserState: recovery.EmptyUserState(),
		StartedAt: time.Now().UTC(),
	}
	log := o.logger.With("run_id", result.RunID)

	ctx, span := o.tracer.Start(ctx, "bootstrap.run", trace.WithAttributes(
		attribute.String("bootstrap.run_id", result.RunID.String()),
		attribute.Int("bootstrap.modules", len(o.modules)),
	))
	defer span.End()

	log.Info("bootstrap started", "modules", len(o.modules))
	o.emit(ctx, events.TypeBootstrapStarted, result.RunID, map[string]int{"modules": len(o.modules)})

	seq := task.NewSequencer(o.config.Sequencer, log)
	for _, m := range o.modules {
		if err := seq.Add(o.loadTask(result.RunID, m, log)); err != nil {
			return o.finish(ctx, span, result, seq.Status(), err, log)
		}
	}
	if err := seq.Add(o.recoverTask(result.RunID, &result.UserState, log)); err != nil {
		return o.finish(ctx, span, result, seq.Status(), err, log)
	}

	runErr := seq.Run(ctx)
	return o.finish(ctx, span, result, seq.Status(), runErr, log)
}

func (o *Orchestrator) loadTask(runID uuid.UUID, m ModuleSpec, log *slog.Logger) task.Task {
	return task.NewFunc(loadTaskPrefix+m.Symbol, false, func(ctx context.Context) error {
		res, err := o.loader.Load(ctx, m.Symbol, m.URL)
		if err != nil {
			log.Warn("module unavailable, continuing without it",
				"symbol", m.Symbol,
				"error", redact.Error(err))
			o.emit(ctx, events.TypeModuleFailed, runID, map[string]string{
				"symbol": m.Symbol,
				"error":  redact.Error(err),
			})
			return err
		}
		if res.Skipped {
			log.Debug("module already present", "symbol", m.Symbol)
		}
		return nil
	})
}

func (o *Orchestrator) recoverTask(runID uuid.UUID, out *recovery.UserState, log *slog.Logger) task.Task {
	return task.NewFunc(RecoverTaskLabel, true, func(ctx context.Context) error {
		_, err := o.resolver.Resolve(ctx)
		switch {
		case errors.Is(err, recovery.ErrNoIdentityFound):
			log.Info("no identity recovered, continuing signed out")
			*out = recovery.EmptyUserState()
			return nil
		case err != nil:
			return err
		}

		*out = o.resolver.State()
		o.emit(ctx, events.TypeSessionRecovered, runID, map[string]string{"source": out.SourceName})
		return nil
	})
}

func (o *Orchestrator) finish(
	ctx context.Context,
	span trace.Span,
	result Result,
	status task.Status,
	runErr error,
	log *slog.Logger,
) (Result, error) {
	result.Status = status
	result.FinishedAt = time.Now().UTC()

	if runErr != nil {
		result.Phase = PhaseAborted
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
		log.Error("bootstrap aborted", "error", redact.Error(runErr), "error_count", status.ErrorCount)
		o.emit(ctx, events.TypeBootstrapAborted, result.RunID, map[string]any{
			"error":       redact.Error(runErr),
			"error_count": status.ErrorCount,
		})
	} else {
		result.Phase = PhaseCompleted
		span.SetAttributes(attribute.Int("bootstrap.error_count", status.ErrorCount))
		log.Info("bootstrap completed",
			"error_count", status.ErrorCount,
			"signed_in", !result.UserState.Empty(),
			"source", result.UserState.SourceName)
		o.emit(ctx, events.TypeBootstrapCompleted, result.RunID, map[string]any{
			"error_count": status.ErrorCount,
			"signed_in":   !result.UserState.Empty(),
		})
	}

	o.mu.Lock()
	o.phase = result.Phase
	last := result
	o.last = &last
	o.mu.Unlock()

	return result, runErr
}

// emit publishes a lifecycle event. Handler failures are logged and never
// affect the run.
func (o *Orchestrator) emit(ctx context.Context, eventType string, runID uuid.UUID, payload any) {
	if o.emitter == nil {
		return
	}
	event, err := events.NewEvent(eventType, runID, payload)
	if err != nil {
		o.logger.Error("failed to build event", "event_type", eventType, "error", err)
		return
	}
	if err := o.emitter.EmitEvent(ctx, event); err != nil {
		o.logger.Warn("event handler failed", "event_type", eventType, "error", err)
	}
}
