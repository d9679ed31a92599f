package sim

import (
	"errors"
	"sync"
)

// ErrPoisoned is returned by every lock attempt after a holder panicked.
var ErrPoisoned = errors.New("sim: simulation handle poisoned")

// Handle is the lock shared by the stepping goroutine and the presenter.
// A panic while the lock is held poisons it: the panic propagates to the
// holder and every later acquisition fails with ErrPoisoned.
type Handle struct {
	mu       sync.Mutex
	sim      *Simulation
	poisoned bool
}

func NewHandle(s *Simulation) *Handle {
	return &Handle{sim: s}
}

// With runs fn with exclusive access to the simulation. fn must not retain
// the pointer.
func (h *Handle) With(fn func(*Simulation)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.poisoned {
		return ErrPoisoned
	}

	done := false
	defer func() {
		if !done {
			h.poisoned = true
		}
	}()
	fn(h.sim)
	done = true
	return nil
}

// Step runs the control law, if any, and advances one timestep under a
// single acquisition, returning the new simulation time. A law returning the
// wrong dimension panics inside the lock and so poisons the handle.
func (h *Handle) Step(law ControlLaw) (float64, error) {
	var t float64
	err := h.With(func(s *Simulation) {
		if law != nil {
			if err := s.SetControl(law.Control(s)); err != nil {
				panic(err)
			}
		}
		s.Step()
		t = s.Time()
	})
	return t, err
}

func (h *Handle) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := h.With(func(s *Simulation) {
		snap = s.Snapshot()
	})
	return snap, err
}

func (h *Handle) Poisoned() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.poisoned
}
