package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/dynviz/internal/dynamo"
)

func forcing(u dynamo.Control) float64 {
	if len(u) > 0 {
		return u[0]
	}
	return 0
}

// VanDerPol is the self-excited oscillator x'' = mu(1-x^2)x' - x + u.
// State is (x, v).
type VanDerPol struct {
	Mu float64
}

func NewVanDerPol() *VanDerPol { return &VanDerPol{Mu: 1} }

func (v *VanDerPol) StateDim() int   { return 2 }
func (v *VanDerPol) ControlDim() int { return 1 }

func (v *VanDerPol) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], v.Mu*(1-x[0]*x[0])*x[1] - x[0] + forcing(u)}
}

func (v *VanDerPol) GetParams() map[string]float64 {
	return map[string]float64{"mu": v.Mu}
}

func (v *VanDerPol) SetParam(name string, value float64) error {
	if name != "mu" {
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	if value < 0 {
		return fmt.Errorf("%w: mu must not be negative", dynamo.ErrParameterBounds)
	}
	v.Mu = value
	return nil
}

// Duffing is a periodically forced oscillator with a cubic spring. The
// drive phase is carried as the third state component so the system stays
// autonomous. State is (x, v, phi).
type Duffing struct {
	Alpha, Beta, Delta, Gamma, Omega float64
}

func NewDuffing() *Duffing {
	return &Duffing{Alpha: -1, Beta: 1, Delta: 0.3, Gamma: 0.5, Omega: 1.2}
}

func (d *Duffing) StateDim() int   { return 3 }
func (d *Duffing) ControlDim() int { return 1 }

func (d *Duffing) Derive(s dynamo.State, u dynamo.Control, t float64) dynamo.State {
	x, v, phi := s[0], s[1], s[2]
	a := -d.Delta*v - d.Alpha*x - d.Beta*x*x*x + d.Gamma*math.Cos(phi) + forcing(u)
	return dynamo.State{v, a, d.Omega}
}

// Energy of the unforced, undamped part.
func (d *Duffing) Energy(s dynamo.State) float64 {
	x, v := s[0], s[1]
	return 0.5*v*v + 0.5*d.Alpha*x*x + 0.25*d.Beta*x*x*x*x
}

func (d *Duffing) GetParams() map[string]float64 {
	return map[string]float64{"alpha": d.Alpha, "beta": d.Beta, "delta": d.Delta, "gamma": d.Gamma, "omega": d.Omega}
}

func (d *Duffing) SetParam(name string, value float64) error {
	switch name {
	case "alpha":
		d.Alpha = value
	case "beta":
		d.Beta = value
	case "delta":
		d.Delta = value
	case "gamma":
		d.Gamma = value
	case "omega":
		d.Omega = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	return nil
}

// Lorenz is the 1963 convection model. The control pushes the first
// component.
type Lorenz struct {
	Sigma, Rho, Beta float64
}

func NewLorenz() *Lorenz { return &Lorenz{Sigma: 10, Rho: 28, Beta: 8.0 / 3.0} }

func (l *Lorenz) StateDim() int   { return 3 }
func (l *Lorenz) ControlDim() int { return 1 }

func (l *Lorenz) Derive(s dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{
		l.Sigma*(s[1]-s[0]) + forcing(u),
		s[0]*(l.Rho-s[2]) - s[1],
		s[0]*s[1] - l.Beta*s[2],
	}
}

func (l *Lorenz) GetParams() map[string]float64 {
	return map[string]float64{"sigma": l.Sigma, "rho": l.Rho, "beta": l.Beta}
}

func (l *Lorenz) SetParam(name string, value float64) error {
	switch name {
	case "sigma":
		l.Sigma = value
	case "rho":
		l.Rho = value
	case "beta":
		if value <= 0 {
			return fmt.Errorf("%w: beta must be positive", dynamo.ErrParameterBounds)
		}
		l.Beta = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	return nil
}
