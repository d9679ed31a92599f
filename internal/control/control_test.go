package control

import (
	"errors"
	"testing"

	"github.com/san-kum/dynviz/internal/dynamo"
)

func TestNoneIsZeroOfModelDimension(t *testing.T) {
	ctrl, err := New("none", "double_pendulum", 2, DefaultGains())
	if err != nil {
		t.Fatal(err)
	}
	u := ctrl.Compute(dynamo.State{1.0, 2.0}, 0.0)

	if len(u) != 2 {
		t.Errorf("expected 2 controls, got %d", len(u))
	}
	for i, v := range u {
		if v != 0 {
			t.Errorf("control[%d] should be 0, got %f", i, v)
		}
	}
}

func TestPID(t *testing.T) {
	ctrl := NewPID(10.0, 0.1, 5.0, 0.0)
	u := ctrl.Compute(dynamo.State{1.0, 0.0}, 0.0)
	if len(u) != 1 {
		t.Fatalf("expected 1 control, got %d", len(u))
	}
	if u[0] >= 0 {
		t.Error("PID should output negative control for positive error")
	}
}

func TestPIDIntegralAccumulates(t *testing.T) {
	ctrl := NewPID(0, 1, 0, 0)
	x := dynamo.State{1, 0}

	ctrl.Compute(x, 0)
	u1 := ctrl.Compute(x, 0.1)
	u2 := ctrl.Compute(x, 0.2)

	if u2[0] >= u1[0] {
		t.Errorf("expected integral term to grow more negative: %f then %f", u1[0], u2[0])
	}

	ctrl.Reset()
	if u := ctrl.Compute(x, 0.3); u[0] != 0 {
		t.Errorf("expected proportional-only output after reset, got %f", u[0])
	}
}

func TestPIDSetParam(t *testing.T) {
	ctrl := NewPID(1, 0, 0, 0)
	if err := ctrl.SetParam("target", 0.5); err != nil {
		t.Fatal(err)
	}
	if ctrl.GetParams()["target"] != 0.5 {
		t.Error("target not applied")
	}
	if err := ctrl.SetParam("gain", 1); !errors.Is(err, dynamo.ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
}

func TestLQR(t *testing.T) {
	ctrl := NewLQR([][]float64{{1.0, 2.0}}, dynamo.State{0.0, 0.0})

	u := ctrl.Compute(dynamo.State{0.0, 0.0}, 0.0)
	if u[0] != 0 {
		t.Errorf("expected zero control at target, got %f", u[0])
	}

	u = ctrl.Compute(dynamo.State{1.0, 0.0}, 0.0)
	if u[0] != -1 {
		t.Errorf("expected -1 away from target, got %f", u[0])
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		ctrl    string
		kind    string
		dim     int
		wantErr error
	}{
		{"none", "none", "pendulum", 1, nil},
		{"empty", "", "anything", 3, nil},
		{"pid", "pid", "pendulum", 1, nil},
		{"pid multi", "pid", "pendulum", 2, dynamo.ErrDimensionMismatch},
		{"lqr pendulum", "lqr", "pendulum", 1, nil},
		{"lqr cartpole", "lqr", "cartpole", 1, nil},
		{"lqr unknown model", "lqr", "lorenz", 1, ErrNoGains},
		{"unknown", "mpc", "pendulum", 1, ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, err := New(tt.ctrl, tt.kind, tt.dim, DefaultGains())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ctrl == nil {
				t.Fatal("expected controller")
			}
		})
	}
}
