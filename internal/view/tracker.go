// Package view tracks which data load a view is currently waiting on, so a
// response that arrives after a newer load started can be discarded.
package view

import "sync"

// Tracker hands out monotonically increasing generations per key.
type Tracker struct {
	mu   sync.Mutex
	gens map[string]uint64
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{gens: make(map[string]uint64)}
}

// Begin starts a new load for key and returns its generation. Any load begun
// earlier for the same key becomes stale.
func (t *Tracker) Begin(key string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gens[key]++
	return t.gens[key]
}

// IsCurrent reports whether gen is still the latest load for key.
func (t *Tracker) IsCurrent(key string, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gens[key] == gen
}

// Forget drops key, e.g. when the owning session logs out.
func (t *Tracker) Forget(key string) {
	t.mu.Lock()
	delete(t.gens, key)
	t.mu.Unlock()
}

// Len reports how many keys are tracked.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.gens)
}
