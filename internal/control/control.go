package control

import (
	"errors"
	"fmt"

	"github.com/san-kum/dynviz/internal/dynamo"
)

const (
	DefaultKp = 10.0
	DefaultKi = 0.1
	DefaultKd = 5.0
)

var (
	ErrUnknown = errors.New("control: unknown controller")
	ErrNoGains = errors.New("control: no LQR gains for model")
)

// Gains parameterise the PID controller.
type Gains struct {
	Kp     float64 `yaml:"kp"`
	Ki     float64 `yaml:"ki"`
	Kd     float64 `yaml:"kd"`
	Target float64 `yaml:"target"`
}

// zero actuates nothing on its int channels.
type zero int

func (z zero) Compute(x dynamo.State, t float64) dynamo.Control {
	return make(dynamo.Control, int(z))
}

func DefaultGains() Gains {
	return Gains{Kp: DefaultKp, Ki: DefaultKi, Kd: DefaultKd}
}

// New builds a controller by name for a model of the given kind and control
// dimension. "none" and "" yield a zero controller.
func New(name, kind string, controlDim int, gains Gains) (dynamo.Controller, error) {
	switch name {
	case "", "none":
		return zero(controlDim), nil
	case "pid":
		if controlDim != 1 {
			return nil, fmt.Errorf("%w: pid drives one channel, model has %d", dynamo.ErrDimensionMismatch, controlDim)
		}
		return NewPID(gains.Kp, gains.Ki, gains.Kd, gains.Target), nil
	case "lqr":
		l, ok := NewModelLQR(kind)
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrNoGains, kind)
		}
		if len(l.K) != controlDim {
			return nil, fmt.Errorf("%w: lqr has %d outputs, model has %d", dynamo.ErrDimensionMismatch, len(l.K), controlDim)
		}
		return l, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
}

func Names() []string {
	return []string{"none", "pid", "lqr"}
}
