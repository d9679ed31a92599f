package sim

import "github.com/san-kum/dynviz/internal/dynamo"

// Reader is the read-only view of a simulation handed to a control law.
type Reader interface {
	Time() float64
	Steps() uint64
	State() dynamo.State
	Control() dynamo.Control
	ControlDim() int
	Name() string
	Kind() string
}

// ControlLaw computes the actuation for the next step. It is called at most
// once per step, from the stepping goroutine, with the handle locked.
type ControlLaw interface {
	Control(r Reader) dynamo.Control
}

type ControlLawFunc func(r Reader) dynamo.Control

func (f ControlLawFunc) Control(r Reader) dynamo.Control {
	return f(r)
}

// FromController adapts a state-feedback controller.
func FromController(c dynamo.Controller) ControlLaw {
	return ControlLawFunc(func(r Reader) dynamo.Control {
		return c.Compute(r.State(), r.Time())
	})
}
