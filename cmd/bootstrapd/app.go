package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-bootstrap/internal/bootstrap"
	"github.com/phrazzld/scry-bootstrap/internal/config"
	"github.com/phrazzld/scry-bootstrap/internal/events"
	"github.com/phrazzld/scry-bootstrap/internal/injector"
	"github.com/phrazzld/scry-bootstrap/internal/manifest"
	platformotel "github.com/phrazzld/scry-bootstrap/internal/platform/otel"
	"github.com/phrazzld/scry-bootstrap/internal/recovery"
	"github.com/phrazzld/scry-bootstrap/internal/registry"
	"github.com/phrazzld/scry-bootstrap/internal/service/auth"
	"github.com/phrazzld/scry-bootstrap/internal/store"
	"github.com/phrazzld/scry-bootstrap/internal/task"
)

// recentEventLimit bounds the lifecycle events kept for the events endpoint.
const recentEventLimit = 200

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	store  store.StateStore
	tokens auth.TokenService

	registry     *registry.Registry
	guard        *registry.Guard
	chain        *recovery.Chain
	recorder     *events.Recorder
	orchestrator *bootstrap.Orchestrator

	shutdownTelemetry func(context.Context) error
}

// applicationOption adjusts an application before its components are built.
type applicationOption func(*applicationDeps)

// applicationDeps are the pieces tests may substitute.
type applicationDeps struct {
	httpClient *http.Client
	injector   injector.Injector
	store      store.StateStore
}

func withHTTPClient(client *http.Client) applicationOption {
	return func(d *applicationDeps) { d.httpClient = client }
}

func withInjector(inj injector.Injector) applicationOption {
	return func(d *applicationDeps) { d.injector = inj }
}

func withStore(st store.StateStore) applicationOption {
	return func(d *applicationDeps) { d.store = st }
}

// newApplication creates a new application instance with all dependencies initialized.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	opts ...applicationOption,
) (app *application, err error) {
	deps := &applicationDeps{}
	for _, opt := range opts {
		opt(deps)
	}

	app = &application{config: cfg, logger: logger}
	defer func() {
		if err != nil {
			app.cleanup()
			app = nil
		}
	}()

	app.shutdownTelemetry, err = platformotel.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return app, fmt.Errorf("failed to set up telemetry: %w", err)
	}

	m, err := manifest.Load(cfg.Bootstrap.ManifestPath)
	if err != nil {
		return app, fmt.Errorf("failed to load manifest: %w", err)
	}
	logger.Info("manifest loaded",
		"path", cfg.Bootstrap.ManifestPath,
		"modules", len(m.Modules),
		"sources", len(m.EnabledSources()))

	app.store = deps.store
	if app.store == nil {
		app.store, app.db, err = openStore(ctx, cfg.Store, logger)
		if err != nil {
			return app, fmt.Errorf("failed to open state store: %w", err)
		}
	}

	app.tokens, err = auth.NewTokenService(cfg.Auth)
	if err != nil {
		return app, fmt.Errorf("failed to initialize token service: %w", err)
	}

	inj := deps.injector
	if inj == nil {
		inj = injector.NewLuaInjector(deps.httpClient, cfg.Bootstrap.InjectTimeout, logger)
	}
	app.registry = registry.New()
	app.guard = registry.NewGuard(app.registry, inj, logger)

	sources, err := app.buildSources(m.EnabledSources(), deps.httpClient)
	if err != nil {
		return app, err
	}
	app.chain = recovery.NewChain(app.store, recovery.ChainConfig{
		StateKey:      cfg.Bootstrap.StateKey,
		SourceTimeout: cfg.Bootstrap.SourceTimeout,
	}, logger, sources...)

	emitter := events.NewInMemoryEventEmitter(logger)
	app.recorder = events.NewRecorder(recentEventLimit)
	emitter.RegisterHandler(app.recorder)

	modules := make([]bootstrap.ModuleSpec, 0, len(m.Modules))
	for _, mod := range m.Modules {
		modules = append(modules, bootstrap.ModuleSpec{Symbol: mod.Symbol, URL: mod.URL})
	}
	app.orchestrator = bootstrap.New(app.guard, app.chain, modules, emitter, bootstrap.Config{
		Sequencer: task.SequencerConfig{TaskTimeout: cfg.Bootstrap.TaskTimeout},
	}, logger)

	logger.Info("application initialized",
		"modules", len(modules),
		"recovery_sources", app.chain.Sources())
	return app, nil
}

// buildSources turns manifest source declarations into recovery sources.
func (app *application) buildSources(specs []manifest.SourceSpec, client *http.Client) ([]recovery.Source, error) {
	bc := app.config.Bootstrap
	sources := make([]recovery.Source, 0, len(specs))
	for _, spec := range specs {
		switch spec.Kind {
		case manifest.KindSession:
			if bc.SessionURL == "" {
				app.logger.Warn("session source declared but no session_url configured; skipping")
				continue
			}
			sources = append(sources, recovery.NewSessionSource(
				client, bc.SessionURL, app.store, bc.SessionCredentialKey, spec.Priority))
		case manifest.KindToken:
			sources = append(sources, recovery.NewTokenSource(
				app.tokens, app.store, bc.TokenKey, spec.Priority))
		case manifest.KindProfile:
			sources = append(sources, recovery.NewProfileSource(
				app.store, bc.ProfileKey, spec.Priority))
		default:
			return nil, fmt.Errorf("unknown recovery source kind %q", spec.Kind)
		}
	}
	return sources, nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.shutdownTelemetry != nil {
		if err := app.shutdownTelemetry(context.Background()); err != nil {
			app.logger.Error("error flushing telemetry", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
