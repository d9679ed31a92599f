package telemetry

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/dynviz/internal/runmode"
)

func TestMetricsRecord(t *testing.T) {
	m := New()

	m.Stepped(5, 0.01)
	m.Stepped(0, 99)
	m.Framed(59.5)
	m.Mode(runmode.Uncapped)

	if got := testutil.ToFloat64(m.steps); got != 5 {
		t.Errorf("expected 5 steps, got %f", got)
	}
	if got := testutil.ToFloat64(m.simTime); got != 0.01 {
		t.Errorf("expected sim time 0.01, got %f", got)
	}
	if got := testutil.ToFloat64(m.frames); got != 1 {
		t.Errorf("expected 1 frame, got %f", got)
	}
	if got := testutil.ToFloat64(m.frameRate); got != 59.5 {
		t.Errorf("expected frame rate 59.5, got %f", got)
	}
	if got := testutil.ToFloat64(m.mode); got != 2 {
		t.Errorf("expected mode 2, got %f", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.Stepped(1, 1)
	m.Framed(1)
	m.Mode(runmode.Paused)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.Stepped(3, 0.006)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"dynviz_steps_total 3", "dynviz_sim_time_seconds", "dynviz_run_mode"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("expected %q in exposition", name)
		}
	}
}
