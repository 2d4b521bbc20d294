package injector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Shopify/go-lua"
)

// DefaultTimeout bounds a fetch plus execution when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// maxScriptBytes caps the size of a fetched script.
const maxScriptBytes = 4 << 20

// LuaInjector fetches Lua module scripts over HTTP and runs each one in a
// fresh interpreter. Scripts register their symbols by calling
// define(name [, definition]).
type LuaInjector struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewLuaInjector creates a LuaInjector. A nil client uses a dedicated client
// with the given timeout; a non-positive timeout uses DefaultTimeout.
func NewLuaInjector(client *http.Client, timeout time.Duration, logger *slog.Logger) *LuaInjector {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &LuaInjector{
		client:  client,
		timeout: timeout,
		logger:  logger.With("component", "lua_injector"),
	}
}

// Inject implements Injector.
func (i *LuaInjector) Inject(ctx context.Context, url string, def Definer) error {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	source, err := i.fetch(ctx, url)
	if err != nil {
		return &NetworkError{URL: url, Err: err}
	}

	if err := i.execute(ctx, url, source, def); err != nil {
		return &NetworkError{URL: url, Err: err}
	}
	return nil
}

func (i *LuaInjector) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxScriptBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read script: %w", err)
	}
	if len(body) > maxScriptBytes {
		return "", fmt.Errorf("script exceeds %d bytes", maxScriptBytes)
	}
	return string(body), nil
}

// execute runs source in a new Lua state. The interpreter cannot be
// interrupted, so on timeout the goroutine is abandoned and finishes on its own.
func (i *LuaInjector) execute(ctx context.Context, url, source string, def Definer) error {
	scoped := &scopedDefiner{def: def}
	defer scoped.close()

	done := make(chan error, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- fmt.Errorf("script panicked: %v", p)
			}
		}()

		state := lua.NewState()
		lua.BaseOpen(state)
		state.Register("define", func(l *lua.State) int {
			name := lua.CheckString(l, 1)
			definition := lua.OptString(l, 2, "")
			accepted := scoped.Define(name, definition)
			if !accepted {
				i.logger.Debug("ignored redefinition", "symbol", name, "url", url)
			}
			l.PushBoolean(accepted)
			return 1
		})

		done <- lua.DoString(state, source)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("script error: %w", err)
		}
		return nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("script execution timed out: %w", ctx.Err())
		}
		return ctx.Err()
	}
}

// scopedDefiner forwards definitions until closed, so a script abandoned after
// a timeout cannot define symbols once its load has been reported as failed.
type scopedDefiner struct {
	mu     sync.Mutex
	def    Definer
	closed bool
}

func (s *scopedDefiner) Define(name, definition string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	return s.def.Define(name, definition)
}

func (s *scopedDefiner) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
