package registry

import (
	"context"
	"errors"
	"log/slog"

	"github.com/phrazzld/scry-bootstrap/internal/injector"
	"golang.org/x/sync/singleflight"
)

// LoadResult describes the outcome of a successful Guard.Load.
type LoadResult struct {
	Symbol string `json:"symbol"`
	// Skipped is true when the symbol was already present and nothing was fetched.
	Skipped bool `json:"skipped"`
	// Shared is true when the caller joined a load started by another caller.
	Shared bool `json:"shared"`
}

// Guard makes module loading idempotent.
//
// Concurrency policy: callers of the same Guard that ask for a symbol whose
// load is in flight wait for that load and receive its outcome; exactly one
// injection is performed. A different Guard sharing the Registry is rejected
// with ErrAlreadyLoading instead of starting a second injection.
//
// The shared load is detached from the cancellation of whichever caller
// started it and is bounded by the injector's own timeout. Each caller stops
// waiting when its own context ends; the load carries on for the others.
type Guard struct {
	registry *Registry
	injector injector.Injector
	flights  singleflight.Group
	logger   *slog.Logger
}

// NewGuard creates a Guard over reg that delegates fetching to inj.
func NewGuard(reg *Registry, inj injector.Injector, logger *slog.Logger) *Guard {
	return &Guard{
		registry: reg,
		injector: inj,
		logger:   logger.With("component", "registry_guard"),
	}
}

// Registry returns the symbol table the guard mutates.
func (g *Guard) Registry() *Registry {
	return g.registry
}

// Load ensures symbol is present, injecting url if needed.
// Returns a *ModuleLoadError if the injection fails; the symbol is then absent
// again, and so is every other symbol the failed script defined.
func (g *Guard) Load(ctx context.Context, symbol, url string) (LoadResult, error) {
	if symbol == "" {
		return LoadResult{}, &ModuleLoadError{Symbol: symbol, URL: url, Err: ErrInvalidSymbol}
	}

	// Fast path: no flight needed for a present symbol.
	if g.registry.State(symbol) == StatePresent {
		g.logger.Debug("module already present, skipping load", "symbol", symbol)
		return LoadResult{Symbol: symbol, Skipped: true}, nil
	}

	flight := g.flights.DoChan(symbol, func() (interface{}, error) {
		return g.load(context.WithoutCancel(ctx), symbol, url)
	})

	select {
	case res := <-flight:
		if res.Err != nil {
			return LoadResult{Symbol: symbol, Shared: res.Shared}, res.Err
		}
		result := res.Val.(LoadResult)
		result.Shared = res.Shared
		return result, nil
	case <-ctx.Done():
		return LoadResult{Symbol: symbol}, &ModuleLoadError{Symbol: symbol, URL: url, Err: ctx.Err()}
	}
}

func (g *Guard) load(ctx context.Context, symbol, url string) (result LoadResult, err error) {
	present, err := g.registry.BeginLoad(symbol)
	if err != nil {
		if errors.Is(err, ErrAlreadyLoading) {
			g.logger.Warn("module load already in flight elsewhere", "symbol", symbol, "url", url)
		}
		return LoadResult{}, &ModuleLoadError{Symbol: symbol, URL: url, Err: err}
	}
	if present {
		return LoadResult{Symbol: symbol, Skipped: true}, nil
	}

	g.logger.Info("loading module", "symbol", symbol, "url", url)
	def := g.registry.NewLoadDefiner(symbol)

	defer func() {
		if p := recover(); p != nil {
			def.Fail()
			g.logger.Error("injector panicked", "symbol", symbol, "url", url, "panic", p)
			result, err = LoadResult{}, &ModuleLoadError{Symbol: symbol, URL: url, Err: &PanicError{Value: p}}
		}
	}()

	if err := g.injector.Inject(ctx, url, def); err != nil {
		def.Fail()
		g.logger.Warn("module load failed", "symbol", symbol, "url", url, "error", err)
		return LoadResult{}, &ModuleLoadError{Symbol: symbol, URL: url, Err: err}
	}

	def.Complete()
	g.logger.Info("module loaded", "symbol", symbol)
	return LoadResult{Symbol: symbol}, nil
}
