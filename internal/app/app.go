package app

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/dynviz/internal/runmode"
	"github.com/san-kum/dynviz/internal/sched"
	"github.com/san-kum/dynviz/internal/sim"
	"github.com/san-kum/dynviz/internal/telemetry"
	"github.com/san-kum/dynviz/internal/viz"
)

// App is one simulation with its scheduler and, optionally, its viewer.
type App struct {
	name       string
	kind       string
	controller string
	timestep   float64

	handle    *sim.Handle
	modes     *runmode.Shared
	protocol  *runmode.Protocol
	scheduler *sched.Scheduler
	presenter *viz.Presenter
	render    RenderOptions

	logger      *log.Logger
	metrics     *telemetry.Metrics
	metricsAddr string
}

// Run blocks until the session ends. With rendering it returns when the
// viewer quits and leaves the physics goroutine to die with the process.
// Without rendering it steps uncapped until ctx ends.
func (a *App) Run(ctx context.Context) error {
	if a.presenter == nil {
		return a.runHeadless(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.metricsAddr != "" {
		go func() {
			if err := a.metrics.Serve(ctx, a.metricsAddr); err != nil {
				a.logger.Error("metrics server stopped", "error", err)
			}
		}()
	}
	err := viz.Run(ctx, a.presenter, viz.RunOptions{
		Input:     a.render.Input,
		Output:    a.render.Output,
		AltScreen: a.render.AltScreen,
		Ready:     func() { a.scheduler.Start(ctx) },
	})
	a.logger.Info("viewer closed", "frames", a.presenter.Frames())
	return err
}

func (a *App) runHeadless(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.scheduler.RunHeadless(ctx)
	})
	if a.metricsAddr != "" {
		g.Go(func() error {
			return a.metrics.Serve(ctx, a.metricsAddr)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) Name() string                { return a.name }
func (a *App) Kind() string                { return a.kind }
func (a *App) Controller() string          { return a.controller }
func (a *App) Timestep() float64           { return a.timestep }
func (a *App) Handle() *sim.Handle         { return a.handle }
func (a *App) Modes() *runmode.Shared      { return a.modes }
func (a *App) Protocol() *runmode.Protocol { return a.protocol }
func (a *App) Scheduler() *sched.Scheduler { return a.scheduler }
func (a *App) Presenter() *viz.Presenter   { return a.presenter }
func (a *App) Headless() bool              { return a.presenter == nil }
