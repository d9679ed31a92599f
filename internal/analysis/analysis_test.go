package analysis

import (
	"math"
	"strings"
	"testing"
)

func TestDrift(t *testing.T) {
	tests := []struct {
		name     string
		energies []float64
		want     float64
	}{
		{"empty", nil, 0},
		{"zero start", []float64{0, 1, 2}, 0},
		{"conserved", []float64{2, 2, 2}, 0},
		{"worst sample", []float64{2, 2.1, 1.5, 2.2}, 0.25},
		{"negative energy", []float64{-4, -5}, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Drift(tt.energies); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Drift() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestEffort(t *testing.T) {
	if got := Effort(nil); got != 0 {
		t.Errorf("expected 0 for no samples, got %f", got)
	}
	got := Effort([][]float64{{1, -1}, {-3, 1}})
	if got != 3 {
		t.Errorf("expected mean effort 3, got %f", got)
	}
}

func TestDominantFrequency(t *testing.T) {
	const (
		n        = 256
		interval = 0.01
		freq     = 12.5 // bin 32
	)
	series := make([]float64, n)
	for i := range series {
		series[i] = 3 + math.Sin(2*math.Pi*freq*float64(i)*interval)
	}

	got := DominantFrequency(series, interval)
	if math.Abs(got-freq) > 1e-9 {
		t.Errorf("expected %.2f Hz, got %f", freq, got)
	}
}

func TestDominantFrequencyDegenerate(t *testing.T) {
	if got := DominantFrequency([]float64{1}, 0.01); got != 0 {
		t.Errorf("single sample: got %f", got)
	}
	if got := DominantFrequency([]float64{5, 5, 5, 5}, 0.01); got != 0 {
		t.Errorf("constant series: got %f", got)
	}
	if got := DominantFrequency([]float64{0, 1, 0, -1}, 0); got != 0 {
		t.Errorf("zero interval: got %f", got)
	}
}

func TestPowerSpectrumLength(t *testing.T) {
	if p := PowerSpectrum(make([]float64, 10)); len(p) != 6 {
		t.Errorf("expected 6 bins, got %d", len(p))
	}
}

func TestViolations(t *testing.T) {
	states := [][]float64{{0, 0}, {0, 5}, {math.NaN(), 0}, {1, -1}}
	if got := Violations(states, 2); got != 0.5 {
		t.Errorf("expected half the samples flagged, got %f", got)
	}
	if got := Violations(nil, 2); got != 0 {
		t.Errorf("expected 0 for no samples, got %f", got)
	}
}

func TestPortraitASCII(t *testing.T) {
	p := NewPortrait([]float64{-1, 0, 1, math.Inf(1)}, []float64{-1, 0, 1, 2})
	if len(p.Points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(p.Points))
	}

	out := p.ASCII(20, 10)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(lines))
	}
	for i, l := range lines {
		if n := len([]rune(l)); n != 20 {
			t.Errorf("row %d has %d columns", i, n)
		}
	}
	if c := strings.Count(out, "•"); c != 3 {
		t.Errorf("expected 3 plotted points, got %d", c)
	}
	if !strings.Contains(out, "│") || !strings.Contains(out, "─") {
		t.Error("expected both axes in view")
	}
}

func TestPortraitEmpty(t *testing.T) {
	if out := NewPortrait(nil, nil).ASCII(10, 10); out != "" {
		t.Errorf("expected empty plot, got %q", out)
	}
	if out := NewPortrait([]float64{1}, []float64{1}).ASCII(1, 10); out != "" {
		t.Errorf("expected empty plot for narrow grid, got %q", out)
	}
}
