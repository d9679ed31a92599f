package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/dynviz/internal/dynamo"
)

func TestPendulumEquilibrium(t *testing.T) {
	p := NewPendulum()
	p.Damping = 0

	dx := p.Derive(dynamo.State{0, 0}, dynamo.Control{0}, 0)

	if math.Abs(dx[0]) > 1e-10 {
		t.Errorf("expected zero velocity at equilibrium, got %f", dx[0])
	}
	if math.Abs(dx[1]) > 1e-10 {
		t.Errorf("expected zero acceleration at equilibrium, got %f", dx[1])
	}
}

func TestPendulumGravity(t *testing.T) {
	p := NewPendulum()
	p.Damping = 0

	dx := p.Derive(dynamo.State{math.Pi / 2, 0}, dynamo.Control{0}, 0)

	expectedAccel := -p.Gravity / p.Length
	if math.Abs(dx[1]-expectedAccel) > 1e-6 {
		t.Errorf("expected acceleration %f, got %f", expectedAccel, dx[1])
	}
}

func TestPendulumTorque(t *testing.T) {
	p := NewPendulum()
	p.Damping = 0

	dx := p.Derive(dynamo.State{0, 0}, dynamo.Control{2}, 0)
	if math.Abs(dx[1]-2) > 1e-10 {
		t.Errorf("expected torque to give alpha 2, got %f", dx[1])
	}
}

func TestDoublePendulumEquilibrium(t *testing.T) {
	dp := NewDoublePendulum()

	dx := dp.Derive(dynamo.State{0, 0, 0, 0}, dynamo.Control{0}, 0)

	for i, v := range dx {
		if math.Abs(v) > 1e-10 {
			t.Errorf("index %d: expected zero at rest, got %f", i, v)
		}
	}
}

func TestDoublePendulumSymmetry(t *testing.T) {
	dp := NewDoublePendulum()
	u := dynamo.Control{0}

	dx1 := dp.Derive(dynamo.State{0.1, 0.1, 0, 0}, u, 0)
	dx2 := dp.Derive(dynamo.State{-0.1, -0.1, 0, 0}, u, 0)

	if math.Abs(dx1[2]+dx2[2]) > 1e-6 {
		t.Errorf("expected symmetric alpha1: %f vs %f", dx1[2], dx2[2])
	}
	if math.Abs(dx1[3]+dx2[3]) > 1e-6 {
		t.Errorf("expected symmetric alpha2: %f vs %f", dx1[3], dx2[3])
	}
}

func TestCartPoleUpright(t *testing.T) {
	c := NewCartPole()

	dx := c.Derive(dynamo.State{0, 0, 0, 0}, dynamo.Control{0}, 0)
	for i, v := range dx {
		if math.Abs(v) > 1e-10 {
			t.Errorf("index %d: expected balanced pole to stay still, got %f", i, v)
		}
	}

	dx = c.Derive(dynamo.State{0, 0, 0.1, 0}, dynamo.Control{0}, 0)
	if dx[3] <= 0 {
		t.Errorf("expected tilted pole to keep falling, got alpha %f", dx[3])
	}
}

func TestSpringMassDisplaced(t *testing.T) {
	sm := NewSpringMass()

	dx := sm.Derive(dynamo.State{1.0, 0.0}, dynamo.Control{0.0}, 0.0)

	if dx[0] != 0 {
		t.Errorf("velocity should be 0, got %f", dx[0])
	}
	expectedAcc := -DefaultStiffness * 1.0 / DefaultMass
	if math.Abs(dx[1]-expectedAcc) > 0.001 {
		t.Errorf("expected acceleration %f, got %f", expectedAcc, dx[1])
	}
}

func TestSpringMassChain(t *testing.T) {
	sm := NewSpringMassChain(3)

	if sm.StateDim() != 6 {
		t.Errorf("expected state dim 6, got %d", sm.StateDim())
	}
	if e := sm.Energy(make(dynamo.State, 6)); e != 0 {
		t.Errorf("expected zero energy at rest, got %f", e)
	}
}

func TestDimensions(t *testing.T) {
	tests := []struct {
		name       string
		sys        dynamo.System
		stateDim   int
		controlDim int
	}{
		{"pendulum", NewPendulum(), 2, 1},
		{"double_pendulum", NewDoublePendulum(), 4, 1},
		{"cartpole", NewCartPole(), 4, 1},
		{"spring_mass", NewSpringMass(), 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.sys.StateDim() != tt.stateDim {
				t.Errorf("expected state dim %d, got %d", tt.stateDim, tt.sys.StateDim())
			}
			if tt.sys.ControlDim() != tt.controlDim {
				t.Errorf("expected control dim %d, got %d", tt.controlDim, tt.sys.ControlDim())
			}
		})
	}
}

func TestSetParam(t *testing.T) {
	tests := []struct {
		name    string
		sys     dynamo.Configurable
		param   string
		value   float64
		wantErr error
	}{
		{"pendulum length", NewPendulum(), "length", 2, nil},
		{"pendulum bad length", NewPendulum(), "length", -1, dynamo.ErrParameterBounds},
		{"pendulum unknown", NewPendulum(), "colour", 1, dynamo.ErrUnknownParam},
		{"double pendulum m2", NewDoublePendulum(), "m2", 3, nil},
		{"double pendulum unknown", NewDoublePendulum(), "m3", -1, dynamo.ErrUnknownParam},
		{"cartpole gravity", NewCartPole(), "gravity", 1.62, nil},
		{"cartpole zero mass", NewCartPole(), "cart_mass", 0, dynamo.ErrParameterBounds},
		{"spring chain", NewSpringMass(), "masses", 3, nil},
		{"spring fractional chain", NewSpringMass(), "masses", 2.5, dynamo.ErrParameterBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sys.SetParam(tt.param, tt.value)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got := tt.sys.GetParams()[tt.param]; got != tt.value {
					t.Errorf("expected %s = %f, got %f", tt.param, tt.value, got)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSpringMassResize(t *testing.T) {
	sm := NewSpringMass()
	if err := sm.SetParam("masses", 4); err != nil {
		t.Fatal(err)
	}
	if sm.StateDim() != 8 {
		t.Errorf("expected state dim 8 after resize, got %d", sm.StateDim())
	}
}

func TestVanDerPolLimitCycleGrowsFromRest(t *testing.T) {
	v := NewVanDerPol()

	dx := v.Derive(dynamo.State{0.1, 1}, dynamo.Control{0}, 0)
	if dx[1] <= 0 {
		t.Errorf("expected negative damping near the origin, got %f", dx[1])
	}
	dx = v.Derive(dynamo.State{3, 1}, dynamo.Control{0}, 0)
	if dx[1] >= 0 {
		t.Errorf("expected positive damping far from the origin, got %f", dx[1])
	}

	if err := v.SetParam("mu", -1); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
}

func TestDuffingPhaseAdvances(t *testing.T) {
	d := NewDuffing()
	dx := d.Derive(dynamo.State{0, 0, 0}, dynamo.Control{0}, 0)
	if dx[2] != d.Omega {
		t.Errorf("expected phase rate %f, got %f", d.Omega, dx[2])
	}
	if dx[1] != d.Gamma {
		t.Errorf("expected drive %f at rest, got %f", d.Gamma, dx[1])
	}

	// the double well has its minima at x = ±1
	if e := d.Energy(dynamo.State{1, 0, 0}); math.Abs(e+0.25) > 1e-12 {
		t.Errorf("expected well energy -0.25, got %f", e)
	}
}

func TestLorenzFixedPoint(t *testing.T) {
	l := NewLorenz()
	c := math.Sqrt(l.Beta * (l.Rho - 1))

	dx := l.Derive(dynamo.State{c, c, l.Rho - 1}, dynamo.Control{0}, 0)
	for i, v := range dx {
		if math.Abs(v) > 1e-9 {
			t.Errorf("index %d: expected fixed point, got %f", i, v)
		}
	}
	if err := l.SetParam("kappa", 1); !errors.Is(err, dynamo.ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
}
