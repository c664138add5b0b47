package staticdata

import (
	"context"
	"sync"
)

// Handle is the reactive result container returned by Fetch. It starts
// empty and is populated asynchronously by the resolution logic; the caller
// owns it once returned and must treat it as read-only.
//
// Loaded is a latch that closes when the first resolution completes,
// successfully or not. Updates returns a channel that closes on the next
// commit and is then replaced, so change notifications coalesce:
//
//	for {
//	    ch := h.Updates()
//	    if v, ok := h.Value(); ok {
//	        render(v)
//	    }
//	    <-ch
//	}
type Handle[T any] struct {
	mu     sync.RWMutex
	key    string
	value  T
	ok     bool
	err    error
	done   bool
	latch  chan struct{}
	notify chan struct{}
}

func newHandle[T any](key string) *Handle[T] {
	return &Handle[T]{
		key:    key,
		latch:  make(chan struct{}),
		notify: make(chan struct{}),
	}
}

// Key reports the derived key of the most recently started resolution.
func (h *Handle[T]) Key() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.key
}

// Value returns the last successfully resolved value. ok is false until the
// first successful resolution; a later failed resolution keeps the previous
// value in place.
func (h *Handle[T]) Value() (T, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.value, h.ok
}

// Err returns the error of the most recent resolution, or nil if it
// succeeded.
func (h *Handle[T]) Err() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

// Loaded returns a channel that is closed once the first resolution has
// completed, whether it produced a value or an error.
func (h *Handle[T]) Loaded() <-chan struct{} {
	return h.latch
}

// Updates returns a channel that is closed on the next commit to the handle.
// Callers re-acquire the channel after each notification.
func (h *Handle[T]) Updates() <-chan struct{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.notify
}

// Wait blocks until the first resolution completes or ctx is done, then
// returns the handle's value. If no resolution has succeeded, it returns
// the resolution error instead.
func (h *Handle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-h.latch:
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.ok {
		return h.value, nil
	}
	var zero T
	return zero, h.err
}

func (h *Handle[T]) setKey(key string) {
	h.mu.Lock()
	h.key = key
	h.mu.Unlock()
}

// commit records the outcome of one resolution cycle and wakes subscribers.
// A failed cycle records the error but leaves any previous value intact.
func (h *Handle[T]) commit(v T, ok bool, err error) {
	h.mu.Lock()
	if ok {
		h.value = v
		h.ok = true
		h.err = nil
	} else {
		h.err = err
	}
	close(h.notify)
	h.notify = make(chan struct{})
	if !h.done {
		h.done = true
		close(h.latch)
	}
	h.mu.Unlock()
}
