package control

import "github.com/san-kum/dynviz/internal/dynamo"

// LQR applies u = -K (x - Target) with precomputed gains.
type LQR struct {
	K      [][]float64
	Target dynamo.State
}

func NewLQR(k [][]float64, target dynamo.State) *LQR {
	return &LQR{K: k, Target: target}
}

func (l *LQR) Compute(x dynamo.State, t float64) dynamo.Control {
	u := make(dynamo.Control, len(l.K))
	for i := range u {
		for j := range x {
			target := 0.0
			if j < len(l.Target) {
				target = l.Target[j]
			}
			if j < len(l.K[i]) {
				u[i] -= l.K[i][j] * (x[j] - target)
			}
		}
	}
	return u
}

// Gains linearised about each model's rest state.
var lqrGains = map[string][][]float64{
	"pendulum":        {{31.62, 10.0}},
	"cartpole":        {{-1.0, -1.73, 35.36, 8.94}},
	"spring_mass":     {{10.0, 6.32}},
	"double_pendulum": {{50.0, 40.0, 15.0, 10.0}},
}

// NewModelLQR returns the stock regulator for a built-in model kind, or
// false if none exists.
func NewModelLQR(kind string) (*LQR, bool) {
	k, ok := lqrGains[kind]
	if !ok {
		return nil, false
	}
	return NewLQR(k, make(dynamo.State, len(k[0]))), true
}
