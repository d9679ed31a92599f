package integrators

import "github.com/san-kum/dynviz/internal/dynamo"

// RK4 is the classical fourth-order Runge-Kutta scheme. It holds no state
// between steps.
type RK4 struct{}

func NewRK4() *RK4 { return &RK4{} }

func (RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	half := dt / 2
	k1 := dyn.Derive(x, u, t)
	k2 := dyn.Derive(x.Axpy(half, k1), u, t+half)
	k3 := dyn.Derive(x.Axpy(half, k2), u, t+half)
	k4 := dyn.Derive(x.Axpy(dt, k3), u, t+dt)

	return x.Axpy(dt/6, k1).Axpy(dt/3, k2).Axpy(dt/3, k3).Axpy(dt/6, k4)
}
