package viz

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"k8s.io/utils/clock"

	"github.com/san-kum/dynviz/internal/runmode"
	"github.com/san-kum/dynviz/internal/sim"
	"github.com/san-kum/dynviz/internal/telemetry"
)

const (
	DefaultFPS         = 60
	DefaultTraceLength = 120
	panelWidth         = 40
)

// FrameCallback runs after every frame on the presentation goroutine. It
// has no access to the simulation.
type FrameCallback func()

// Options configure a Presenter. Zero values select defaults.
type Options struct {
	FPS         float64
	TraceLength int
	Theme       string
	Renderer    Renderer
	Keys        *KeyMap
	Callback    FrameCallback

	// Recorder receives every RecordEvery-th good snapshot.
	Recorder    func(sim.Snapshot)
	RecordEvery int

	Clock   clock.PassiveClock
	Logger  *log.Logger
	Metrics *telemetry.Metrics
}

// Presenter owns everything the presentation goroutine touches: the
// protocol, the renderer and the last frame. The simulation lock is taken
// only by Redraw, and only for the length of a snapshot.
type Presenter struct {
	handle   *sim.Handle
	modes    *runmode.Shared
	protocol *runmode.Protocol

	renderer Renderer
	keys     KeyMap
	help     help.Model
	styles   styles
	callback FrameCallback
	recorder func(sim.Snapshot)
	every    int

	clock   clock.PassiveClock
	logger  *log.Logger
	metrics *telemetry.Metrics

	interval   time.Duration
	lastRedraw time.Time
	fps        float64
	frames     uint64

	last     sim.Snapshot
	haveLast bool
	halted   bool
	trace    []float64
	traceCap int
	frame    string
}

func NewPresenter(handle *sim.Handle, modes *runmode.Shared, protocol *runmode.Protocol, opts Options) *Presenter {
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	if opts.TraceLength <= 0 {
		opts.TraceLength = DefaultTraceLength
	}
	if opts.Renderer == nil {
		opts.Renderer = NewSceneRenderer(0, 0)
	}
	if opts.Keys == nil {
		km := DefaultKeyMap()
		opts.Keys = &km
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.RecordEvery <= 0 {
		opts.RecordEvery = 1
	}

	h := help.New()
	h.ShowAll = false
	h.Width = panelWidth - 6

	return &Presenter{
		handle:     handle,
		modes:      modes,
		protocol:   protocol,
		renderer:   opts.Renderer,
		keys:       *opts.Keys,
		help:       h,
		styles:     newStyles(GetTheme(opts.Theme)),
		callback:   opts.Callback,
		recorder:   opts.Recorder,
		every:      opts.RecordEvery,
		clock:      opts.Clock,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		interval:   time.Duration(float64(time.Second) / opts.FPS),
		lastRedraw: opts.Clock.Now(),
		trace:      make([]float64, 0, opts.TraceLength),
		traceCap:   opts.TraceLength,
	}
}

// Interval is the pause between redraw requests.
func (p *Presenter) Interval() time.Duration { return p.interval }

// HandleEvent dispatches one event and reports whether the loop should end.
// Key releases and auto-repeats are dropped so that every transition is
// edge triggered.
func (p *Presenter) HandleEvent(ev Event) (quit bool) {
	switch ev := ev.(type) {
	case CloseRequested:
		return p.protocol.Apply(runmode.Quit)
	case RedrawRequested:
		p.Redraw()
	case KeyInput:
		if ev.State != Pressed || ev.Repeat {
			return false
		}
		return p.protocol.Apply(p.keys.Action(ev.Key))
	}
	return false
}

// Redraw publishes the presentation rate, snapshots the simulation and
// renders the next frame.
func (p *Presenter) Redraw() {
	now := p.clock.Now()
	if d := now.Sub(p.lastRedraw); d > 0 {
		p.fps = 1 / d.Seconds()
	}
	p.lastRedraw = now
	p.modes.SetFrameRate(p.fps)

	snap, err := p.handle.Snapshot()
	switch {
	case err != nil:
		if !p.halted {
			p.logger.Error("simulation unavailable, freezing last frame", "error", err)
		}
		p.halted = true
	default:
		p.last, p.haveLast = snap, true
		p.sample(snap)
		if p.recorder != nil && p.frames%uint64(p.every) == 0 {
			p.recorder(snap)
		}
	}

	p.frame = p.compose(p.modes.Mode())
	p.frames++
	p.metrics.Framed(p.fps)

	if p.callback != nil {
		p.callback()
	}
}

func (p *Presenter) sample(snap sim.Snapshot) {
	v := 0.0
	switch {
	case snap.HasEnergy:
		v = snap.Energy
	case len(snap.State) > 0:
		v = snap.State[0]
	}
	if len(p.trace) == p.traceCap {
		copy(p.trace, p.trace[1:])
		p.trace = p.trace[:p.traceCap-1]
	}
	p.trace = append(p.trace, v)
}

// Resize forwards the viewport size, less the overlay panel, to the
// renderer.
func (p *Presenter) Resize(width, height int) {
	r, ok := p.renderer.(Resizer)
	if !ok {
		return
	}
	cols := width - panelWidth - 6
	rows := height - 2
	if cols < 10 {
		cols = 10
	}
	if rows < 5 {
		rows = 5
	}
	r.Resize(cols, rows)
}

func (p *Presenter) Frame() string  { return p.frame }
func (p *Presenter) FPS() float64   { return p.fps }
func (p *Presenter) Frames() uint64 { return p.frames }

// Halted reports whether the simulation has become unavailable.
func (p *Presenter) Halted() bool { return p.halted }

// Last returns the most recent good snapshot.
func (p *Presenter) Last() (sim.Snapshot, bool) { return p.last, p.haveLast }

func (p *Presenter) compose(mode runmode.Mode) string {
	if !p.haveLast {
		return p.styles.halted.Render("waiting for simulation")
	}
	snap := p.last
	st := p.styles

	var b strings.Builder
	b.WriteString(st.header.Render(strings.ToUpper(snap.Name)) + "\n")
	b.WriteString(p.badge(mode) + "\n\n")
	b.WriteString(st.value.Render(fmt.Sprintf("Time = %.3f", snap.Time)) + "\n")
	b.WriteString(st.value.Render(fmt.Sprintf("FPS = %.3f", p.fps)) + "\n")
	b.WriteString(st.label.Render("steps  ") + st.value.Render(fmt.Sprint(snap.Steps)) + "\n")
	if snap.HasEnergy {
		b.WriteString(st.label.Render("energy ") + st.value.Render(fmt.Sprintf("%.4f", snap.Energy)) + "\n")
	}
	if len(p.trace) > 1 {
		caption := "x[0]"
		if snap.HasEnergy {
			caption = "energy"
		}
		chart := asciigraph.Plot(p.trace,
			asciigraph.Height(4),
			asciigraph.Width(panelWidth-18),
			asciigraph.Caption(caption))
		b.WriteString(st.graph.Render(chart) + "\n")
	}
	b.WriteString(st.help.Render(p.help.View(p.keys)))

	scene := st.scene.Render(p.renderer.Render(snap))
	return lipgloss.JoinHorizontal(lipgloss.Top, scene, st.panel.Render(b.String()))
}

func (p *Presenter) badge(mode runmode.Mode) string {
	st := p.styles
	switch {
	case p.halted:
		return st.halted.Render("physics halted")
	case mode == runmode.Paused:
		return st.paused.Render("PAUSED")
	case mode == runmode.RateLimited:
		return st.running.Render("RUNNING  rate limited")
	default:
		return st.running.Render("RUNNING  uncapped")
	}
}
