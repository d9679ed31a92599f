package runmode

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects how the scheduler advances the simulation.
type Mode int

const (
	// Paused takes no steps and keeps the accumulator baseline at now.
	Paused Mode = iota
	// RateLimited keeps simulation time in step with wall time.
	RateLimited
	// Uncapped steps as fast as the lock allows.
	Uncapped
)

var ErrInvalidMode = errors.New("runmode: invalid mode")

var modeNames = [...]string{
	Paused:      "paused",
	RateLimited: "rate-limited",
	Uncapped:    "uncapped",
}

func (m Mode) Valid() bool {
	return m >= Paused && m <= Uncapped
}

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// Running reports whether the scheduler steps in this mode.
func (m Mode) Running() bool {
	return m == RateLimited || m == Uncapped
}

func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if s == name || strings.ReplaceAll(name, "-", "_") == s {
			return Mode(m), nil
		}
	}
	return Paused, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}
