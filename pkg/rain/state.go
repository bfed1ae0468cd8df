// Package rain owns the simulation state: the speed record shared between
// the perception and render loops, and the particle field itself.
package rain

import "sync/atomic"

// State is the record the perception loop publishes and the render loop
// consumes.
type State struct {
	// Speed is the signed fall rate: 1.0 nominal fall, 0 frozen, negative
	// runs the rain upward. The gesture curve keeps it in roughly [-2, 2].
	Speed float64 `json:"speed"`

	// Active is true iff a hand was detected in the most recent
	// perception frame.
	Active bool `json:"active"`
}

// DefaultState is the state before any perception frame has been seen:
// nominal fall, no hand.
func DefaultState() State {
	return State{Speed: 1.0}
}

// Store hands State snapshots from the perception loop to any number of
// readers. A write swaps in a fresh immutable snapshot atomically, so a
// reader never sees a half-updated record. Single writer by convention.
type Store struct {
	cur atomic.Pointer[State]
}

// NewStore returns a store holding the default state.
func NewStore() *Store {
	s := &Store{}
	init := DefaultState()
	s.cur.Store(&init)
	return s
}

// Publish replaces the current snapshot.
func (s *Store) Publish(st State) {
	s.cur.Store(&st)
}

// Load returns the current snapshot.
func (s *Store) Load() State {
	return *s.cur.Load()
}
