package recovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/phrazzld/scry-bootstrap/internal/redact"
	"github.com/phrazzld/scry-bootstrap/internal/store"
	"golang.org/x/sync/errgroup"
)

// DefaultSourceTimeout bounds a single source fetch when none is configured.
const DefaultSourceTimeout = 5 * time.Second

// ChainConfig configures a Chain.
type ChainConfig struct {
	// StateKey is the store key the converged UserState is written under.
	StateKey string
	// SourceTimeout bounds each source's Fetch.
	SourceTimeout time.Duration
}

// Chain resolves a user identity from prioritized sources.
type Chain struct {
	store   store.StateStore
	config  ChainConfig
	sources []Source
	logger  *slog.Logger
	now     func() time.Time

	mu    sync.RWMutex
	state UserState
}

type fetchResult struct {
	identity *Identity
	err      error
}

// NewChain creates a Chain over st. Sources are ordered by ascending
// priority; ties keep registration order.
func NewChain(st store.StateStore, cfg ChainConfig, logger *slog.Logger, sources ...Source) *Chain {
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = DefaultSourceTimeout
	}

	ordered := make([]Source, 0, len(sources))
	for _, src := range sources {
		if src != nil {
			ordered = append(ordered, src)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})

	return &Chain{
		store:   st,
		config:  cfg,
		sources: ordered,
		logger:  logger.With("component", "recovery_chain"),
		now:     time.Now,
		state:   EmptyUserState(),
	}
}

// Sources returns the source names in consultation order.
func (c *Chain) Sources() []string {
	names := make([]string, len(c.sources))
	for i, src := range c.sources {
		names[i] = src.Name()
	}
	return names
}

// State returns the last state this chain converged on.
func (c *Chain) State() UserState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.state
	s.Identity = s.Identity.Clone()
	return s
}

// Resolve finds the winning identity and persists it.
//
// All sources are queried concurrently, but precedence follows priority: a
// source only wins once every higher-priority source has finished without an
// identity. Outstanding fetches are canceled as soon as a winner is known.
// Returns ErrNoIdentityFound when no source yields an identity; the store is
// left untouched in that case.
func (c *Chain) Resolve(ctx context.Context) (*Identity, error) {
	if len(c.sources) == 0 {
		return nil, ErrNoIdentityFound
	}

	queryCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]fetchResult, len(c.sources))
	finished := make(chan int, len(c.sources))

	// The group is only used for Go/Wait. A source error is "no data" for
	// that source and must not cancel its siblings, so every goroutine
	// returns nil and failures are read from results.
	g, gctx := errgroup.WithContext(queryCtx)
	for i, src := range c.sources {
		g.Go(func() error {
			id, err := c.fetch(gctx, src)
			results[i] = fetchResult{identity: id, err: err}
			finished <- i
			return nil
		})
	}

	done := make([]bool, len(c.sources))
	winner, decided := -1, false
	for received := 0; received < len(c.sources) && !decided; received++ {
		done[<-finished] = true
		winner, decided = pickWinner(results, done)
	}
	cancel()
	_ = g.Wait()

	for i, src := range c.sources {
		if done[i] && results[i].err != nil {
			c.logger.Warn("recovery source failed, treating as no data",
				"source", src.Name(),
				"error", redact.Error(results[i].err))
		}
	}

	if winner < 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.logger.Info("no recovery source yielded an identity")
		return nil, ErrNoIdentityFound
	}

	src := c.sources[winner]
	identity := results[winner].identity.Clone()
	state := UserState{
		Identity:    identity,
		SourceName:  src.Name(),
		ConfirmedAt: c.now().UTC(),
	}
	if err := c.persist(ctx, state); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.state = state
	c.mu.Unlock()

	c.logger.Info("user identity recovered", "source", src.Name(), "user_id", identity.ID)
	return identity.Clone(), nil
}

// pickWinner walks results in priority order. It reports decided=false while
// a higher-priority source is still outstanding.
func pickWinner(results []fetchResult, done []bool) (int, bool) {
	for i := range results {
		if !done[i] {
			return -1, false
		}
		if results[i].err == nil && results[i].identity.Valid() {
			return i, true
		}
	}
	return -1, true
}

// fetch runs one source under its own timeout. A source that ignores its
// context is abandoned when the timeout fires.
func (c *Chain) fetch(ctx context.Context, src Source) (id *Identity, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.SourceTimeout)
	defer cancel()

	type outcome struct {
		id  *Identity
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- outcome{err: fmt.Errorf("source panicked: %v", p)}
			}
		}()
		id, err := src.Fetch(ctx)
		ch <- outcome{id: id, err: err}
	}()

	select {
	case out := <-ch:
		if out.err != nil {
			return nil, &SourceError{Source: src.Name(), Err: out.err}
		}
		return out.id, nil
	case <-ctx.Done():
		return nil, &SourceError{Source: src.Name(), Err: ctx.Err()}
	}
}

func (c *Chain) persist(ctx context.Context, state UserState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return &PersistError{Key: c.config.StateKey, Err: err}
	}
	if err := c.store.Set(ctx, c.config.StateKey, string(payload)); err != nil {
		c.logger.Error("failed to persist user state",
			"key", c.config.StateKey,
			"error", redact.Error(err))
		return &PersistError{Key: c.config.StateKey, Err: err}
	}
	return nil
}
