package registry

import "sync"

// LoadDefiner is the injector.Definer handed to one load. It is bound to the
// symbol being loaded (its owner):
//
//   - a definition of the owner is recorded as the load's pending definition;
//   - a definition of any other absent symbol is staged, and becomes present
//     only if the load completes;
//   - a definition of any present or loading symbol is ignored.
//
// Once the load has been completed or failed, every call is ignored.
type LoadDefiner struct {
	registry *Registry
	owner    string

	mu     sync.Mutex
	staged map[string]string
	order  []string
	closed bool
}

// NewLoadDefiner binds a definer to the load of owner. The caller must have
// started that load with BeginLoad.
func (r *Registry) NewLoadDefiner(owner string) *LoadDefiner {
	return &LoadDefiner{
		registry: r,
		owner:    owner,
		staged:   make(map[string]string),
	}
}

// Define implements injector.Definer.
func (d *LoadDefiner) Define(name, definition string) bool {
	if name == "" {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false
	}
	if name == d.owner {
		return d.registry.definePending(name, definition)
	}
	if _, ok := d.staged[name]; ok {
		return false
	}
	if !d.registry.isAbsent(name) {
		return false
	}
	d.staged[name] = definition
	d.order = append(d.order, name)
	return true
}

// Complete makes the owner present, then commits staged definitions whose
// symbols are still absent.
func (d *LoadDefiner) Complete() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true

	r := d.registry
	r.CompleteLoad(d.owner)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range d.order {
		if e, ok := r.entries[name]; ok && e.state != StateAbsent {
			continue
		}
		r.present(name, d.staged[name])
	}
}

// Fail returns the owner to absent and discards staged definitions.
func (d *LoadDefiner) Fail() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.staged = nil
	d.order = nil
	d.registry.FailLoad(d.owner)
}
