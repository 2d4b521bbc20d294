package recovery

import "context"

// Source is one place a user identity may be recovered from.
//
// Fetch returns (nil, nil) when the source has nothing to offer. Errors are
// logged by the chain and treated the same way.
type Source interface {
	Name() string
	// Priority orders sources; lower values take precedence.
	Priority() int
	Fetch(ctx context.Context) (*Identity, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc struct {
	SourceName     string
	SourcePriority int
	FetchFn        func(ctx context.Context) (*Identity, error)
}

// NewSourceFunc creates a Source named name backed by fn.
func NewSourceFunc(name string, priority int, fn func(ctx context.Context) (*Identity, error)) *SourceFunc {
	return &SourceFunc{SourceName: name, SourcePriority: priority, FetchFn: fn}
}

// Name implements Source.
func (s *SourceFunc) Name() string { return s.SourceName }

// Priority implements Source.
func (s *SourceFunc) Priority() int { return s.SourcePriority }

// Fetch implements Source.
func (s *SourceFunc) Fetch(ctx context.Context) (*Identity, error) {
	if s.FetchFn == nil {
		return nil, nil
	}
	return s.FetchFn(ctx)
}
