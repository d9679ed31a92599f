package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Drift is the largest relative departure of energy from its first value.
// A zero initial energy yields zero.
func Drift(energies []float64) float64 {
	if len(energies) == 0 || energies[0] == 0 {
		return 0
	}
	e0 := math.Abs(energies[0])
	maxDrift := 0.0
	for _, e := range energies[1:] {
		maxDrift = math.Max(maxDrift, math.Abs(e-energies[0])/e0)
	}
	return maxDrift
}

// Effort is the mean over samples of the summed absolute actuation.
func Effort(controls [][]float64) float64 {
	if len(controls) == 0 {
		return 0
	}
	sum := 0.0
	for _, u := range controls {
		for _, v := range u {
			sum += math.Abs(v)
		}
	}
	return sum / float64(len(controls))
}

// PowerSpectrum returns |X_k|^2 for the non-negative frequencies of the
// mean-removed series.
func PowerSpectrum(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}
	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(len(series))

	centred := make([]float64, len(series))
	for i, v := range series {
		centred[i] = v - mean
	}

	coeffs := fft.FFTReal(centred)
	power := make([]float64, len(coeffs)/2+1)
	for i := range power {
		a := cmplx.Abs(coeffs[i])
		power[i] = a * a
	}
	return power
}

// DominantFrequency is the frequency in Hz of the strongest non-DC bin for
// samples spaced interval seconds apart, or 0 if there is none.
func DominantFrequency(series []float64, interval float64) float64 {
	power := PowerSpectrum(series)
	if len(power) < 2 || interval <= 0 {
		return 0
	}
	best := 1
	for k := 2; k < len(power); k++ {
		if power[k] > power[best] {
			best = k
		}
	}
	if power[best] == 0 {
		return 0
	}
	return float64(best) / (float64(len(series)) * interval)
}

// Violations is the fraction of states with any component beyond
// threshold in magnitude. Non-finite components always count.
func Violations(states [][]float64, threshold float64) float64 {
	if len(states) == 0 {
		return 0
	}
	bad := 0
	for _, x := range states {
		for _, v := range x {
			if !finite(v) || math.Abs(v) > threshold {
				bad++
				break
			}
		}
	}
	return float64(bad) / float64(len(states))
}
