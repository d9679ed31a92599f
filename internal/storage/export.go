package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// WriteCSV writes one row per sample: time, steps, x0..xn, u0..um, energy.
func WriteCSV(w io.Writer, samples []Sample) error {
	cw := csv.NewWriter(w)
	if len(samples) == 0 {
		cw.Flush()
		return cw.Error()
	}

	header := []string{"time", "steps"}
	for i := range samples[0].State {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	numControls := len(samples[0].Control)
	for i := 0; i < numControls; i++ {
		header = append(header, fmt.Sprintf("u%d", i))
	}
	header = append(header, "energy")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, smp := range samples {
		row := []string{
			strconv.FormatFloat(smp.Time, 'f', 6, 64),
			strconv.FormatUint(smp.Steps, 10),
		}
		for _, v := range smp.State {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		for j := 0; j < numControls; j++ {
			v := 0.0
			if j < len(smp.Control) {
				v = smp.Control[j]
			}
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		row = append(row, strconv.FormatFloat(smp.Energy, 'f', 6, 64))
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

type exportData struct {
	ID         string      `json:"id"`
	Model      string      `json:"model"`
	Kind       string      `json:"kind"`
	Controller string      `json:"controller,omitempty"`
	Timestep   float64     `json:"timestep"`
	CreatedAt  time.Time   `json:"created_at"`
	Times      []float64   `json:"times"`
	States     [][]float64 `json:"states"`
	Controls   [][]float64 `json:"controls"`
	Energies   []float64   `json:"energies"`
}

// WriteJSON writes a run and its samples as one indented document. Samples
// holding NaN or Inf cannot be encoded and return an error.
func WriteJSON(w io.Writer, run *Run, samples []Sample) error {
	data := exportData{
		ID:         run.ID,
		Model:      run.Model,
		Kind:       run.Kind,
		Controller: run.Controller,
		Timestep:   run.Timestep,
		CreatedAt:  run.CreatedAt,
		Times:      make([]float64, len(samples)),
		States:     make([][]float64, len(samples)),
		Controls:   make([][]float64, len(samples)),
		Energies:   make([]float64, len(samples)),
	}
	for i, smp := range samples {
		data.Times[i] = smp.Time
		data.States[i] = smp.State
		data.Controls[i] = smp.Control
		data.Energies[i] = smp.Energy
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// Series extracts component i of every sample's state, for plotting.
func Series(samples []Sample, i int) []float64 {
	out := make([]float64, 0, len(samples))
	for _, smp := range samples {
		if i < len(smp.State) {
			out = append(out, smp.State[i])
		}
	}
	return out
}
