package history

import "sync"

/* Ring is a fixed capacity FIFO buffer
 * Appending beyond capacity overwrites the oldest element
 * Appends take the write lock, snapshots share the read lock
 */
type Ring[T any] struct {
	mu    sync.RWMutex
	items []T
	start int
	size  int
}

// NewRing creates a ring holding at most capacity elements. capacity must be positive
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		panic("history: ring capacity must be positive")
	}
	return &Ring[T]{items: make([]T, capacity)}
}

// Append stores v as the newest element, evicting the oldest when full
func (r *Ring[T]) Append(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size < len(r.items) {
		r.items[(r.start+r.size)%len(r.items)] = v
		r.size++
		return
	}
	r.items[r.start] = v
	r.start = (r.start + 1) % len(r.items)
}

// Snapshot returns a copy of the stored elements, oldest first
func (r *Ring[T]) Snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.items[(r.start+i)%len(r.items)]
	}
	return out
}

func (r *Ring[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

func (r *Ring[T]) Cap() int {
	return len(r.items)
}
