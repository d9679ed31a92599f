package runmode

import "sync"

const DefaultFrameRate = 60.0

// State is the run-mode record. FrameRate is diagnostic only and written
// solely by the presenter.
type State struct {
	Mode      Mode
	FrameRate float64
}

// Shared guards a State. Every method is one lock, copy or mutate, unlock,
// so readers always see a fully formed value.
type Shared struct {
	mu sync.Mutex
	st State
}

func NewShared(initial State) *Shared {
	return &Shared{st: initial}
}

func (s *Shared) Load() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

func (s *Shared) Mode() Mode {
	return s.Load().Mode
}

func (s *Shared) SetMode(m Mode) {
	if !m.Valid() {
		return
	}
	s.mu.Lock()
	s.st.Mode = m
	s.mu.Unlock()
}

func (s *Shared) SetFrameRate(fps float64) {
	s.mu.Lock()
	s.st.FrameRate = fps
	s.mu.Unlock()
}

// Update applies fn to the record atomically and returns the result. An
// invalid mode produced by fn is discarded.
func (s *Shared) Update(fn func(State) State) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := fn(s.st)
	if next.Mode.Valid() {
		s.st = next
	} else {
		s.st.FrameRate = next.FrameRate
	}
	return s.st
}
