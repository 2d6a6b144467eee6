package task

import (
	"fmt"
	"sync"

	"github.com/CZERTAINLY/executor/internal/model"
)

// Registry is an append-only arena. The index of an entry is its id, ids are
// never reused and entries are never removed.
type Registry[T any] struct {
	createMx sync.Mutex // serializes Create, never held by readers
	mx       sync.RWMutex
	capacity int
	entries  []T
}

func NewRegistry[T any](capacity int) *Registry[T] {
	return &Registry[T]{capacity: capacity}
}

// Create reserves the next id, builds the entry with newFunc and appends it.
// Nothing is registered and the id stays free when newFunc fails. The
// registry lock is not held while newFunc runs, so readers are never blocked
// by process creation.
func (r *Registry[T]) Create(newFunc func(id int) (T, error)) (T, error) {
	var zero T
	r.createMx.Lock()
	defer r.createMx.Unlock()

	id := r.Len()
	if id >= r.capacity {
		return zero, fmt.Errorf("%w: limit of %d tasks reached", model.ErrCapacityExceeded, r.capacity)
	}
	entry, err := newFunc(id)
	if err != nil {
		return zero, err
	}

	r.mx.Lock()
	r.entries = append(r.entries, entry)
	r.mx.Unlock()
	return entry, nil
}

func (r *Registry[T]) Get(id int) (T, error) {
	r.mx.RLock()
	defer r.mx.RUnlock()
	if id < 0 || id >= len(r.entries) {
		var zero T
		return zero, fmt.Errorf("%w: %d", model.ErrInvalidID, id)
	}
	return r.entries[id], nil
}

func (r *Registry[T]) Len() int {
	r.mx.RLock()
	defer r.mx.RUnlock()
	return len(r.entries)
}

func (r *Registry[T]) Capacity() int {
	return r.capacity
}

// All returns a snapshot of the registered entries in id order.
func (r *Registry[T]) All() []T {
	r.mx.RLock()
	defer r.mx.RUnlock()
	return append([]T(nil), r.entries...)
}
