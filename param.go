package staticdata

import "sync"

// Param is a reactive string parameter. Setting a new value recomputes the
// derived key of every fetch watching the param and triggers re-resolution.
// Fetch treats a nil *Param as the constant empty string.
type Param struct {
	mu      sync.RWMutex
	value   string
	changed chan struct{}
}

func NewParam(initial string) *Param {
	return &Param{value: initial, changed: make(chan struct{})}
}

func (p *Param) Get() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Set updates the parameter and wakes watchers. Setting the current value
// again is a no-op.
func (p *Param) Set(v string) {
	p.mu.Lock()
	if v == p.value {
		p.mu.Unlock()
		return
	}
	p.value = v
	close(p.changed)
	p.changed = make(chan struct{})
	p.mu.Unlock()
}

func (p *Param) String() string { return p.Get() }

// watch returns a channel that is closed on the next Set. Watchers grab the
// channel before reading the value so a change during resolution is never
// missed, only coalesced.
func (p *Param) watch() <-chan struct{} {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.changed
}
