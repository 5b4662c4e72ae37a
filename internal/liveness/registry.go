package liveness

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownSlot is returned when a slot id is outside the registry.
var ErrUnknownSlot = errors.New("liveness: unknown slot")

// Registry records one check-in flag per worker.
// The slot set is fixed at construction and lives for the process lifetime.
type Registry struct {
	mu    sync.Mutex
	slots []bool
	ids   []Slot
}

// Slot is the handle a worker uses to check in.
type Slot struct {
	id       int
	registry *Registry
}

// Snapshot is the outcome of one read-and-clear pass over the registry.
type Snapshot struct {
	AllAlive bool
	Missing  []int
}

// NewRegistry allocates n slots, all initially not checked in.
func NewRegistry(n int) (*Registry, error) {
	if n < 1 {
		return nil, fmt.Errorf("liveness: registry needs at least one slot, got %d", n)
	}

	r := &Registry{
		slots: make([]bool, n),
		ids:   make([]Slot, n),
	}
	for i := range r.ids {
		r.ids[i] = Slot{id: i, registry: r}
	}
	return r, nil
}

// Len returns the number of slots.
func (r *Registry) Len() int {
	return len(r.slots)
}

// Slot returns the handle for worker id.
func (r *Registry) Slot(id int) (*Slot, error) {
	if id < 0 || id >= len(r.ids) {
		return nil, fmt.Errorf("%w: %d (registry has %d)", ErrUnknownSlot, id, len(r.ids))
	}
	return &r.ids[id], nil
}

// ID returns the worker id this slot belongs to.
func (s *Slot) ID() int {
	return s.id
}

// Signal marks the slot as checked in.
func (s *Slot) Signal() {
	r := s.registry
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[s.id] = true
}

// Sweep reports whether every slot checked in since the previous sweep and
// clears all slots.
func (r *Registry) Sweep() bool {
	return r.SweepDetail().AllAlive
}

// SweepDetail is Sweep that also reports which slots did not check in.
func (r *Registry) SweepDetail() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{AllAlive: true}
	for i, checkedIn := range r.slots {
		if !checkedIn {
			snap.AllAlive = false
			snap.Missing = append(snap.Missing, i)
		}
		// Reset so the next sweep only sees check-ins from its own interval.
		r.slots[i] = false
	}
	return snap
}
