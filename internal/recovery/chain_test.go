package recovery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/scry-bootstrap/internal/platform/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStateKey = "bootstrap.user_state"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() ChainConfig {
	return ChainConfig{StateKey: testStateKey, SourceTimeout: time.Second}
}

func static(name string, priority int, id *Identity) *SourceFunc {
	return NewSourceFunc(name, priority, func(ctx context.Context) (*Identity, error) {
		return id, nil
	})
}

func failing(name string, priority int, err error) *SourceFunc {
	return NewSourceFunc(name, priority, func(ctx context.Context) (*Identity, error) {
		return nil, err
	})
}

// failingStore rejects every write.
type failingStore struct {
	*memory.StateStore
	setErr error
}

func (s *failingStore) Set(ctx context.Context, key, value string) error {
	return s.setErr
}

func TestChain_FirstValidByPriorityWins(t *testing.T) {
	st := memory.NewStateStore()
	chain := NewChain(st, testConfig(), testLogger(),
		static("C", 3, &Identity{ID: "u3"}),
		static("A", 1, &Identity{}),
		static("B", 2, &Identity{ID: "u2", Email: "b@example.com"}),
	)

	identity, err := chain.Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "u2", identity.ID)

	persisted, err := LoadState(context.Background(), st, testStateKey)
	require.NoError(t, err)
	assert.Equal(t, "B", persisted.SourceName)
	assert.Equal(t, "u2", persisted.Identity.ID)
	assert.False(t, persisted.ConfirmedAt.IsZero())
	assert.True(t, persisted.Equal(chain.State()))
}

func TestChain_SlowHigherPriorityStillWins(t *testing.T) {
	chain := NewChain(memory.NewStateStore(), testConfig(), testLogger(),
		NewSourceFunc("slow", 1, func(ctx context.Context) (*Identity, error) {
			time.Sleep(30 * time.Millisecond)
			return &Identity{ID: "slow-user"}, nil
		}),
		static("fast", 2, &Identity{ID: "fast-user"}),
	)

	identity, err := chain.Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "slow-user", identity.ID)
	assert.Equal(t, "slow", chain.State().SourceName)
}

func TestChain_NoIdentityLeavesStoreUntouched(t *testing.T) {
	st := memory.NewStateStore()
	require.NoError(t, st.Set(context.Background(), testStateKey, "previous"))

	chain := NewChain(st, testConfig(), testLogger(),
		static("A", 1, nil),
		static("B", 2, &Identity{}),
		failing("C", 3, errors.New("boom")),
	)

	identity, err := chain.Resolve(context.Background())

	assert.ErrorIs(t, err, ErrNoIdentityFound)
	assert.Nil(t, identity)
	assert.Equal(t, map[string]string{testStateKey: "previous"}, st.Snapshot())
	assert.True(t, chain.State().Empty())
	assert.Equal(t, SourceNone, chain.State().SourceName)
}

func TestChain_NoSources(t *testing.T) {
	chain := NewChain(memory.NewStateStore(), testConfig(), testLogger())
	_, err := chain.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrNoIdentityFound)
}

func TestChain_SourceErrorIsNoData(t *testing.T) {
	chain := NewChain(memory.NewStateStore(), testConfig(), testLogger(),
		failing("A", 1, errors.New("connection refused")),
		static("B", 2, &Identity{ID: "u2"}),
	)

	identity, err := chain.Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "u2", identity.ID)
}

func TestChain_FailingSourceDoesNotCancelSiblings(t *testing.T) {
	chain := NewChain(memory.NewStateStore(), testConfig(), testLogger(),
		NewSourceFunc("slow", 1, func(ctx context.Context) (*Identity, error) {
			select {
			case <-time.After(30 * time.Millisecond):
				return &Identity{ID: "slow-user"}, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}),
		failing("broken", 2, errors.New("boom")),
	)

	identity, err := chain.Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "slow-user", identity.ID)
}

func TestChain_PanickingSourceIsNoData(t *testing.T) {
	chain := NewChain(memory.NewStateStore(), testConfig(), testLogger(),
		NewSourceFunc("A", 1, func(ctx context.Context) (*Identity, error) {
			panic("broken source")
		}),
		static("B", 2, &Identity{ID: "u2"}),
	)

	identity, err := chain.Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "u2", identity.ID)
}

func TestChain_HungSourceTimesOut(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	cfg := testConfig()
	cfg.SourceTimeout = 20 * time.Millisecond
	chain := NewChain(memory.NewStateStore(), cfg, testLogger(),
		// ignores its context entirely
		NewSourceFunc("hung", 1, func(ctx context.Context) (*Identity, error) {
			<-release
			return &Identity{ID: "late"}, nil
		}),
		static("B", 2, &Identity{ID: "u2"}),
	)

	start := time.Now()
	identity, err := chain.Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "u2", identity.ID)
	assert.Less(t, time.Since(start), time.Second)
}

func TestChain_CancelsLowerPrioritySourcesOnceDecided(t *testing.T) {
	var canceled atomic.Bool
	chain := NewChain(memory.NewStateStore(), testConfig(), testLogger(),
		static("A", 1, &Identity{ID: "u1"}),
		NewSourceFunc("B", 2, func(ctx context.Context) (*Identity, error) {
			<-ctx.Done()
			canceled.Store(true)
			return nil, ctx.Err()
		}),
	)

	identity, err := chain.Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "u1", identity.ID)
	assert.Eventually(t, canceled.Load, time.Second, time.Millisecond)
}

func TestChain_ResolveIsIdempotent(t *testing.T) {
	st := memory.NewStateStore()
	chain := NewChain(st, testConfig(), testLogger(),
		static("A", 1, &Identity{ID: "u1", Attributes: map[string]string{"plan": "pro"}}),
	)

	_, err := chain.Resolve(context.Background())
	require.NoError(t, err)
	first, err := LoadState(context.Background(), st, testStateKey)
	require.NoError(t, err)

	_, err = chain.Resolve(context.Background())
	require.NoError(t, err)
	second, err := LoadState(context.Background(), st, testStateKey)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
}

func TestChain_OverwritesStaleState(t *testing.T) {
	st := memory.NewStateStore()
	require.NoError(t, st.Set(context.Background(), testStateKey, `{"identity":{"id":"old"},"source":"profile"}`))

	chain := NewChain(st, testConfig(), testLogger(), static("session", 1, &Identity{ID: "new"}))
	_, err := chain.Resolve(context.Background())
	require.NoError(t, err)

	persisted, err := LoadState(context.Background(), st, testStateKey)
	require.NoError(t, err)
	assert.Equal(t, "new", persisted.Identity.ID)
	assert.Equal(t, "session", persisted.SourceName)
}

func TestChain_PersistFailure(t *testing.T) {
	cause := errors.New("disk full")
	st := &failingStore{StateStore: memory.NewStateStore(), setErr: cause}
	chain := NewChain(st, testConfig(), testLogger(), static("A", 1, &Identity{ID: "u1"}))

	identity, err := chain.Resolve(context.Background())

	assert.Nil(t, identity)
	var persistErr *PersistError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, testStateKey, persistErr.Key)
	assert.ErrorIs(t, err, cause)
	assert.True(t, chain.State().Empty())
}

func TestChain_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chain := NewChain(memory.NewStateStore(), testConfig(), testLogger(),
		NewSourceFunc("A", 1, func(ctx context.Context) (*Identity, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}),
	)

	_, err := chain.Resolve(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChain_SourceOrderIsStable(t *testing.T) {
	chain := NewChain(memory.NewStateStore(), testConfig(), testLogger(),
		static("b", 2, nil),
		static("a1", 1, nil),
		static("a2", 1, nil),
		nil,
	)

	assert.Equal(t, []string{"a1", "a2", "b"}, chain.Sources())
}

func TestChain_StateIsACopy(t *testing.T) {
	chain := NewChain(memory.NewStateStore(), testConfig(), testLogger(),
		static("A", 1, &Identity{ID: "u1", Attributes: map[string]string{"k": "v"}}))
	_, err := chain.Resolve(context.Background())
	require.NoError(t, err)

	state := chain.State()
	state.Identity.Attributes["k"] = "mutated"

	assert.Equal(t, "v", chain.State().Identity.Attributes["k"])
}
