package runmode

import (
	"io"

	"github.com/charmbracelet/log"
)

// Action is an input intent, already filtered to key presses.
type Action int

const (
	NoAction Action = iota
	Toggle
	FlipPreference
	Quit
)

func (a Action) String() string {
	switch a {
	case Toggle:
		return "toggle"
	case FlipPreference:
		return "flip-preference"
	case Quit:
		return "quit"
	default:
		return "none"
	}
}

// Protocol turns actions into mode transitions. It belongs to the
// presentation goroutine; only the Shared record it writes is concurrent.
type Protocol struct {
	shared      *Shared
	rateLimited bool
	logger      *log.Logger
}

// NewProtocol starts with the given frame-rate-limited preference. A nil
// logger discards.
func NewProtocol(shared *Shared, rateLimited bool, logger *log.Logger) *Protocol {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Protocol{
		shared:      shared,
		rateLimited: rateLimited,
		logger:      logger,
	}
}

// Apply performs a and reports whether the presentation loop should end.
func (p *Protocol) Apply(a Action) (quit bool) {
	switch a {
	case Toggle:
		p.Toggle()
	case FlipPreference:
		p.FlipPreference()
	case Quit:
		p.logger.Debug("quit requested")
		return true
	}
	return false
}

// Toggle pauses a running simulation, or resumes a paused one in the
// preferred running mode.
func (p *Protocol) Toggle() Mode {
	var from Mode
	st := p.shared.Update(func(s State) State {
		from = s.Mode
		if s.Mode == Paused {
			s.Mode = p.running()
		} else {
			s.Mode = Paused
		}
		return s
	})
	p.logger.Debug("mode toggled", "from", from, "to", st.Mode)
	return st.Mode
}

// FlipPreference inverts the preference and, unless paused, switches
// straight to the newly preferred running mode.
func (p *Protocol) FlipPreference() Mode {
	p.rateLimited = !p.rateLimited
	st := p.shared.Update(func(s State) State {
		if s.Mode != Paused {
			s.Mode = p.running()
		}
		return s
	})
	p.logger.Debug("preference flipped", "rate_limited", p.rateLimited, "mode", st.Mode)
	return st.Mode
}

func (p *Protocol) RateLimited() bool {
	return p.rateLimited
}

func (p *Protocol) running() Mode {
	if p.rateLimited {
		return RateLimited
	}
	return Uncapped
}
