package registry

import (
	"sort"
	"sync"
	"time"
)

// LoadState is the lifecycle state of a symbol.
type LoadState string

// Possible load states
const (
	StateAbsent  LoadState = "absent"
	StateLoading LoadState = "loading"
	StatePresent LoadState = "present"
)

// Symbol is a snapshot of a registry entry.
type Symbol struct {
	Name       string    `json:"name"`
	Definition string    `json:"definition,omitempty"`
	State      LoadState `json:"state"`
	DefinedAt  time.Time `json:"defined_at,omitempty"`
}

type entry struct {
	state      LoadState
	definition string
	// pending is set once the injected code has defined the symbol during a load
	pending   bool
	definedAt time.Time
}

// Registry is the shared module-presence table. All state transitions are
// serialized by a single mutex, so "check present" and "mark loading" cannot
// interleave between callers.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// State returns the current state of name.
func (r *Registry) State(name string) LoadState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[name]; ok {
		return e.state
	}
	return StateAbsent
}

// Lookup returns the present symbol called name.
func (r *Registry) Lookup(name string) (Symbol, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok || e.state != StatePresent {
		return Symbol{}, false
	}
	return e.snapshot(name), true
}

// Symbols returns every known symbol sorted by name.
func (r *Registry) Symbols() []Symbol {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Symbol, 0, len(r.entries))
	for name, e := range r.entries {
		out = append(out, e.snapshot(name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// BeginLoad atomically checks name and marks it loading.
// It returns true when the symbol is already present (nothing to load), and
// ErrAlreadyLoading when a load is in flight.
func (r *Registry) BeginLoad(name string) (bool, error) {
	if name == "" {
		return false, ErrInvalidSymbol
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok {
		r.entries[name] = &entry{state: StateLoading}
		return false, nil
	}

	switch e.state {
	case StatePresent:
		return true, nil
	case StateLoading:
		return false, ErrAlreadyLoading
	default:
		e.state = StateLoading
		e.pending = false
		e.definition = ""
		return false, nil
	}
}

// Define records a definition for name outside of any load.
//
// An absent symbol becomes present immediately. A present symbol ignores the
// call, and so does a loading one: only the load's own LoadDefiner may supply
// its definition. The result reports whether the definition was accepted;
// ignored redefinitions are never errors.
func (r *Registry) Define(name, definition string) bool {
	if name == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if ok && e.state != StateAbsent {
		return false
	}
	r.present(name, definition)
	return true
}

// definePending records the first definition a load supplies for its own
// symbol. Later calls, or calls once the load has ended, are ignored.
func (r *Registry) definePending(name, definition string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok || e.state != StateLoading || e.pending {
		return false
	}
	e.pending = true
	e.definition = definition
	return true
}

// isAbsent reports whether name is neither present nor loading.
func (r *Registry) isAbsent(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	return !ok || e.state == StateAbsent
}

// present marks name present. The caller holds r.mu.
func (r *Registry) present(name, definition string) {
	e, ok := r.entries[name]
	if !ok {
		e = &entry{}
		r.entries[name] = e
	}
	e.state = StatePresent
	e.pending = false
	e.definition = definition
	e.definedAt = r.now()
}

// CompleteLoad marks a loading symbol present. A load whose code never called
// Define still makes the symbol present with an empty definition.
func (r *Registry) CompleteLoad(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok || e.state != StateLoading {
		return
	}
	e.state = StatePresent
	e.pending = false
	e.definedAt = r.now()
}

// FailLoad returns a loading symbol to absent and discards any pending definition.
func (r *Registry) FailLoad(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok || e.state != StateLoading {
		return
	}
	e.state = StateAbsent
	e.pending = false
	e.definition = ""
}

func (e *entry) snapshot(name string) Symbol {
	s := Symbol{Name: name, State: e.state}
	if e.state == StatePresent {
		s.Definition = e.definition
		s.DefinedAt = e.definedAt
	}
	return s
}
