package app

import (
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/dynviz/internal/control"
	"github.com/san-kum/dynviz/internal/dynamo"
	"github.com/san-kum/dynviz/internal/model"
	"github.com/san-kum/dynviz/internal/runmode"
	"github.com/san-kum/dynviz/internal/sched"
	"github.com/san-kum/dynviz/internal/sim"
	"github.com/san-kum/dynviz/internal/telemetry"
	"github.com/san-kum/dynviz/internal/viz"
)

var ErrRenderingRequired = errors.New("app: render callback needs rendering configured first")

// RenderOptions configure the presentation loop.
type RenderOptions struct {
	FPS         float64
	TraceLength int
	Theme       string
	Renderer    viz.Renderer
	AltScreen   bool
	Input       io.Reader
	Output      io.Writer
}

// Builder assembles an App. Errors are kept and reported by Build, so
// calls can be chained.
type Builder struct {
	desc *model.Description
	err  error

	law        sim.ControlLaw
	controller string
	gains      control.Gains
	initial    dynamo.State

	render   *RenderOptions
	callback viz.FrameCallback
	record   func(sim.Snapshot)
	every    int

	rateLimited bool
	pausePoll   time.Duration
	logger      *log.Logger
	metrics     *telemetry.Metrics
	metricsAddr string
}

func FromDescription(desc *model.Description) *Builder {
	b := &Builder{desc: desc, rateLimited: true}
	if desc == nil {
		b.err = &model.LoadError{Err: model.ErrInvalidDescription}
	}
	return b
}

// FromFile resolves ref through the default loader.
func FromFile(ref string) *Builder {
	return FromLoader(model.NewLoader(nil), ref)
}

func FromLoader(l *model.Loader, ref string) *Builder {
	desc, err := l.Load(ref)
	b := FromDescription(desc)
	if err != nil {
		b.err = err
	}
	return b
}

// WithControl installs a per-step control law. It replaces any controller
// chosen by name.
func (b *Builder) WithControl(law sim.ControlLaw) *Builder {
	b.law = law
	b.controller = ""
	return b
}

// WithController selects a built-in controller, resolved against the model
// at Build time.
func (b *Builder) WithController(name string, gains control.Gains) *Builder {
	b.controller = name
	b.gains = gains
	b.law = nil
	return b
}

// WithInitialState overrides the description's initial state.
func (b *Builder) WithInitialState(x dynamo.State) *Builder {
	b.initial = x.Clone()
	return b
}

func (b *Builder) WithDefaultRendering(opts RenderOptions) *Builder {
	b.render = &opts
	return b
}

// WithRenderCallback runs fn after every frame. Rendering must already be
// configured.
func (b *Builder) WithRenderCallback(fn viz.FrameCallback) *Builder {
	if b.render == nil {
		if b.err == nil {
			b.err = ErrRenderingRequired
		}
		return b
	}
	b.callback = fn
	return b
}

// WithRecorder hands every n-th rendered snapshot to fn.
func (b *Builder) WithRecorder(every int, fn func(sim.Snapshot)) *Builder {
	b.every, b.record = every, fn
	return b
}

// WithRateLimited sets the initial frame-rate-limited preference.
func (b *Builder) WithRateLimited(on bool) *Builder {
	b.rateLimited = on
	return b
}

func (b *Builder) WithPausePoll(d time.Duration) *Builder {
	b.pausePoll = d
	return b
}

func (b *Builder) WithLogger(l *log.Logger) *Builder {
	b.logger = l
	return b
}

// WithMetrics records telemetry into m and, when addr is set, serves it.
func (b *Builder) WithMetrics(m *telemetry.Metrics, addr string) *Builder {
	b.metrics, b.metricsAddr = m, addr
	return b
}

// Build instantiates the model, takes the initial propagation step and
// wires the scheduler and, if configured, the presenter. Nothing runs yet.
func (b *Builder) Build() (*App, error) {
	if b.err != nil {
		return nil, b.err
	}

	desc := *b.desc
	if b.initial != nil {
		desc.Initial = b.initial
	}
	s, err := sim.New(&desc)
	if err != nil {
		return nil, err
	}

	law := b.law
	if b.controller != "" {
		c, err := control.New(b.controller, s.Kind(), s.ControlDim(), b.gains)
		if err != nil {
			return nil, &model.LoadError{Ref: desc.Name, Err: err}
		}
		law = sim.FromController(c)
	}

	logger := b.logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s.Step()
	timestep := s.Time()
	logger.Info("model loaded",
		"model", s.Name(),
		"kind", s.Kind(),
		"timestep", timestep,
		"control_dim", s.ControlDim())

	handle := sim.NewHandle(s)
	modes := runmode.NewShared(runmode.State{Mode: runmode.Paused, FrameRate: runmode.DefaultFrameRate})
	protocol := runmode.NewProtocol(modes, b.rateLimited, logger.WithPrefix("input"))
	b.metrics.Mode(runmode.Paused)

	a := &App{
		name:        s.Name(),
		kind:        s.Kind(),
		controller:  b.controller,
		timestep:    timestep,
		handle:      handle,
		modes:       modes,
		protocol:    protocol,
		logger:      logger,
		metrics:     b.metrics,
		metricsAddr: b.metricsAddr,
	}
	a.scheduler = sched.New(handle, modes, law, sched.Timestep(timestep), sched.Options{
		PausePoll: b.pausePoll,
		Logger:    logger.WithPrefix("sched"),
		Metrics:   b.metrics,
	})

	if b.render != nil {
		a.render = *b.render
		a.presenter = viz.NewPresenter(handle, modes, protocol, viz.Options{
			FPS:         b.render.FPS,
			TraceLength: b.render.TraceLength,
			Theme:       b.render.Theme,
			Renderer:    b.render.Renderer,
			Callback:    b.callback,
			Recorder:    b.record,
			RecordEvery: b.every,
			Logger:      logger.WithPrefix("viz"),
			Metrics:     b.metrics,
		})
	}
	return a, nil
}

