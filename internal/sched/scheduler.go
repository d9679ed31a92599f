package sched

import (
	"context"
	"fmt"
	"io"
	"math"
	"runtime/debug"
	"time"

	"github.com/charmbracelet/log"
	"k8s.io/utils/clock"

	"github.com/san-kum/dynviz/internal/runmode"
	"github.com/san-kum/dynviz/internal/sim"
	"github.com/san-kum/dynviz/internal/telemetry"
)

const DefaultPausePoll = time.Millisecond

// Options tune a Scheduler. Zero values select defaults.
type Options struct {
	PausePoll time.Duration
	Clock     clock.Clock
	Logger    *log.Logger
	Metrics   *telemetry.Metrics
}

// Scheduler advances the shared simulation according to the run-mode
// record. It owns the control law after construction.
type Scheduler struct {
	handle   *sim.Handle
	modes    *runmode.Shared
	law      sim.ControlLaw
	timestep time.Duration

	pausePoll time.Duration
	clock     clock.Clock
	logger    *log.Logger
	metrics   *telemetry.Metrics

	lastUpdated time.Time
	lastMode    runmode.Mode
	primed      bool
}

func New(handle *sim.Handle, modes *runmode.Shared, law sim.ControlLaw, timestep time.Duration, opts Options) *Scheduler {
	if opts.PausePoll <= 0 {
		opts.PausePoll = DefaultPausePoll
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Scheduler{
		handle:    handle,
		modes:     modes,
		law:       law,
		timestep:  timestep,
		pausePoll: opts.PausePoll,
		clock:     opts.Clock,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		lastMode:  -1,
	}
}

// Timestep converts a simulation timestep in seconds to a duration,
// rounded to the nanosecond.
func Timestep(seconds float64) time.Duration {
	return time.Duration(math.Round(seconds * float64(time.Second)))
}

// Accumulate reports how many whole timesteps fit in elapsed and how far the
// baseline moves for them. The remainder stays in the accumulator, so
// splitting elapsed across several calls yields the same total.
func Accumulate(elapsed, timestep time.Duration) (steps int, advance time.Duration) {
	if elapsed <= 0 || timestep <= 0 {
		return 0, 0
	}
	n := elapsed / timestep
	return int(n), n * timestep
}

// Run loops until ctx ends or the simulation fails. Cancellation is noticed
// between iterations and returns nil. A poisoned handle or a panic inside a
// step ends the loop with an error.
func (s *Scheduler) Run(ctx context.Context) (err error) {
	defer s.recoverStep(&err)

	s.logger.Info("scheduler started", "timestep", s.timestep)
	for {
		if ctx.Err() != nil {
			s.logger.Info("scheduler stopped")
			return nil
		}
		if err := s.Iterate(); err != nil {
			s.logger.Error("physics goroutine stopped", "error", err)
			return err
		}
	}
}

// recoverStep turns a panic escaping a step into the loop's error.
func (s *Scheduler) recoverStep(err *error) {
	if r := recover(); r != nil {
		if e, ok := r.(error); ok {
			*err = fmt.Errorf("sched: step panicked: %w", e)
		} else {
			*err = fmt.Errorf("sched: step panicked: %v", r)
		}
		s.logger.Error("physics goroutine stopped", "error", *err, "stack", string(debug.Stack()))
	}
}

// Start runs the scheduler on its own goroutine. The returned channel
// receives Run's result once; callers are free to never read it.
func (s *Scheduler) Start(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
		close(done)
	}()
	return done
}

// Iterate performs one pass of the loop body: read the mode, then step and
// sleep as that mode prescribes.
func (s *Scheduler) Iterate() error {
	mode := s.modes.Mode()
	if !s.primed {
		s.lastUpdated = s.clock.Now()
		s.primed = true
	}
	if mode != s.lastMode {
		s.logger.Debug("run mode", "mode", mode)
		s.metrics.Mode(mode)
		s.lastMode = mode
	}

	switch mode {
	case runmode.Paused:
		s.lastUpdated = s.clock.Now()
		s.clock.Sleep(s.pausePoll)

	case runmode.RateLimited:
		n, advance := Accumulate(s.clock.Since(s.lastUpdated), s.timestep)
		for i := 0; i < n; i++ {
			if err := s.step(); err != nil {
				return err
			}
		}
		s.lastUpdated = s.lastUpdated.Add(advance)
		s.clock.Sleep(s.timestep)

	case runmode.Uncapped:
		if err := s.step(); err != nil {
			return err
		}
		s.lastUpdated = s.clock.Now()
	}
	return nil
}

func (s *Scheduler) step() error {
	t, err := s.handle.Step(s.law)
	if err != nil {
		return err
	}
	s.metrics.Stepped(1, t)
	return nil
}

// RunHeadless steps as fast as possible on the calling goroutine, ignoring
// the run-mode record, until ctx ends.
func (s *Scheduler) RunHeadless(ctx context.Context) (err error) {
	defer s.recoverStep(&err)

	s.logger.Info("running without rendering context")
	for ctx.Err() == nil {
		if err := s.step(); err != nil {
			return err
		}
	}
	return nil
}
