// Package guard tracks which arenas currently run a live generation.
package guard

import (
	"errors"
	"sync"
)

// ErrBusy is returned when a generation for the arena is already running.
var ErrBusy = errors.New("generation already in progress")

// Registry is a set of arena ids with an active run. The zero value is not
// usable; call New.
type Registry struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{active: make(map[string]struct{})}
}

// TryAcquire marks id as running. It fails with ErrBusy if id is already held.
func (r *Registry) TryAcquire(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[id]; ok {
		return ErrBusy
	}
	r.active[id] = struct{}{}
	return nil
}

// Release clears id. Releasing an id that is not held is a no-op.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, id)
}

// Active reports whether id is held.
func (r *Registry) Active(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[id]
	return ok
}

// Len returns the number of held ids.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
