package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/dynviz/internal/runmode"
)

const namespace = "dynviz"

// Metrics are the counters and gauges of one app. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry  *prometheus.Registry
	steps     prometheus.Counter
	frames    prometheus.Counter
	mode      prometheus.Gauge
	frameRate prometheus.Gauge
	simTime   prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		steps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Physics steps taken.",
		}),
		frames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames rendered by the presenter.",
		}),
		mode: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_mode",
			Help:      "Current run mode: 0 paused, 1 rate-limited, 2 uncapped.",
		}),
		frameRate: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frame_rate",
			Help:      "Instantaneous presentation rate in frames per second.",
		}),
		simTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sim_time_seconds",
			Help:      "Simulation time of the last step.",
		}),
	}
}

func (m *Metrics) Stepped(n int, simTime float64) {
	if m == nil || n <= 0 {
		return
	}
	m.steps.Add(float64(n))
	m.simTime.Set(simTime)
}

func (m *Metrics) Framed(fps float64) {
	if m == nil {
		return
	}
	m.frames.Inc()
	m.frameRate.Set(fps)
}

func (m *Metrics) Mode(mode runmode.Mode) {
	if m == nil {
		return
	}
	m.mode.Set(float64(mode))
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr until ctx ends.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
