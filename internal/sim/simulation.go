package sim

import (
	"fmt"

	"github.com/san-kum/dynviz/internal/dynamo"
	"github.com/san-kum/dynviz/internal/model"
)

// Simulation is one running model: system, integrator, state and clock.
// It is not safe for concurrent use; share it through a [Handle].
type Simulation struct {
	name  string
	kind  string
	dyn   dynamo.System
	integ dynamo.Integrator
	x     dynamo.State
	u     dynamo.Control
	t     float64
	dt    float64
	steps uint64
}

// Config assembles a simulation from parts.
type Config struct {
	Name       string
	Kind       string
	System     dynamo.System
	Integrator dynamo.Integrator
	Initial    dynamo.State
	Timestep   float64
}

// New instantiates a description. Failures are returned as *model.LoadError.
func New(desc *model.Description) (*Simulation, error) {
	sys, integ, x0, err := desc.Instantiate()
	if err != nil {
		return nil, &model.LoadError{Ref: desc.Name, Err: err}
	}
	return NewWithConfig(Config{
		Name:       desc.Name,
		Kind:       desc.Kind,
		System:     sys,
		Integrator: integ,
		Initial:    x0,
		Timestep:   desc.Timestep,
	})
}

func NewWithConfig(cfg Config) (*Simulation, error) {
	if cfg.System == nil || cfg.Integrator == nil {
		return nil, fmt.Errorf("sim: system and integrator are required")
	}
	if cfg.Timestep <= 0 {
		return nil, fmt.Errorf("sim: timestep must be positive, got %g: %w", cfg.Timestep, dynamo.ErrParameterBounds)
	}
	x := cfg.Initial.Clone()
	u := make(dynamo.Control, cfg.System.ControlDim())
	if err := dynamo.CheckDims(cfg.System, x, u); err != nil {
		return nil, err
	}
	return &Simulation{
		name:  cfg.Name,
		kind:  cfg.Kind,
		dyn:   cfg.System,
		integ: cfg.Integrator,
		x:     x,
		u:     u,
		dt:    cfg.Timestep,
	}, nil
}

// Step advances the state by one timestep under the current control.
func (s *Simulation) Step() {
	s.x = s.integ.Step(s.dyn, s.x, s.u, s.t, s.dt)
	s.steps++
	s.t = float64(s.steps) * s.dt
}

// SetControl replaces the actuation applied by subsequent steps.
func (s *Simulation) SetControl(u dynamo.Control) error {
	if len(u) != s.dyn.ControlDim() {
		return fmt.Errorf("sim: control has %d entries, %s wants %d: %w",
			len(u), s.kind, s.dyn.ControlDim(), dynamo.ErrDimensionMismatch)
	}
	copy(s.u, u)
	return nil
}

func (s *Simulation) Time() float64           { return s.t }
func (s *Simulation) Steps() uint64           { return s.steps }
func (s *Simulation) State() dynamo.State     { return s.x.Clone() }
func (s *Simulation) Control() dynamo.Control { return s.u.Clone() }
func (s *Simulation) ControlDim() int         { return s.dyn.ControlDim() }
func (s *Simulation) Name() string            { return s.name }
func (s *Simulation) Kind() string            { return s.kind }

// Snapshot copies everything a renderer needs.
func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{
		Name:    s.name,
		Kind:    s.kind,
		Time:    s.t,
		Steps:   s.steps,
		State:   s.x.Clone(),
		Control: s.u.Clone(),
	}
	if h, ok := s.dyn.(dynamo.Hamiltonian); ok {
		snap.Energy = h.Energy(s.x)
		snap.HasEnergy = true
	}
	return snap
}

// Snapshot is a consistent copy of a simulation taken under its lock.
type Snapshot struct {
	Name      string
	Kind      string
	Time      float64
	Steps     uint64
	State     dynamo.State
	Control   dynamo.Control
	Energy    float64
	HasEnergy bool
}
