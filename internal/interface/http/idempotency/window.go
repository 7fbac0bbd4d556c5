// Package idempotency deduplicates webhook event IDs over a bounded
// sliding window. Telegram redelivers updates on slow or failed ACKs, so
// a replayed update_id inside the window must not be processed twice.
package idempotency

import (
	"container/list"
	"sync"
)

// DefaultCapacity bounds the remembered-ID window. Once full, the oldest
// ID is evicted; an ID older than the window is treated as fresh again,
// which is an accepted trade for bounded memory.
const DefaultCapacity = 1000

// Window remembers the most recently seen event IDs.
type Window struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = newest
	index    map[string]*list.Element
}

// NewWindow creates a Window with the given capacity; zero or negative
// means DefaultCapacity.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Window{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element, capacity),
	}
}

// Observe records the ID and reports whether it was already in the
// window. The check and the insert are one atomic step, so two
// concurrent deliveries of the same ID resolve to exactly one false.
func (w *Window) Observe(id string) (duplicate bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if el, ok := w.index[id]; ok {
		w.order.MoveToFront(el)
		return true
	}

	w.index[id] = w.order.PushFront(id)
	if w.order.Len() > w.capacity {
		oldest := w.order.Back()
		w.order.Remove(oldest)
		delete(w.index, oldest.Value.(string))
	}
	return false
}

// Len returns the number of remembered IDs.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.order.Len()
}
