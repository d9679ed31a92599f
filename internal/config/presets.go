package config

import "sort"

// Preset is a named starting point for a built-in model: initial state and,
// optionally, the controller that suits it.
type Preset struct {
	Initial    []float64
	Controller string
}

var Presets = map[string]map[string]Preset{
	"pendulum": {
		"small":    {Initial: []float64{0.2, 0}},
		"large":    {Initial: []float64{2.5, 0}},
		"spinning": {Initial: []float64{0.1, 8}},
		"servo":    {Initial: []float64{1.0, 0}, Controller: "pid"},
	},
	"double_pendulum": {
		"symmetric": {Initial: []float64{1.5, 1.5, 0, 0}},
		"chaos":     {Initial: []float64{3.0, 3.0, 0, 0}},
		"gentle":    {Initial: []float64{0.3, 0.3, 0, 0}},
	},
	"cartpole": {
		"balance":  {Initial: []float64{0, 0, 0.1, 0}, Controller: "lqr"},
		"recover":  {Initial: []float64{0, 0, 0.5, 0}, Controller: "lqr"},
		"freefall": {Initial: []float64{0, 0, 0.1, 0}},
	},
	"spring_mass": {
		"pluck": {Initial: []float64{0.8, 0, 0, 0, 0, 0}},
		"kick":  {Initial: []float64{0, 0, 0, 0, 3, 0}},
	},
	"van_der_pol": {
		"inside":  {Initial: []float64{0.1, 0}},
		"outside": {Initial: []float64{4, 0}},
	},
	"duffing": {
		"left":  {Initial: []float64{-1, 0, 0}},
		"right": {Initial: []float64{1, 0, 0}},
	},
	"lorenz": {
		"classic": {Initial: []float64{1, 1, 1}},
		"twin":    {Initial: []float64{1.001, 1, 1}},
	},
}

func GetPreset(kind, name string) (Preset, bool) {
	p, ok := Presets[kind][name]
	return p, ok
}

// ListPresets returns the preset names for kind in order, or nil.
func ListPresets(kind string) []string {
	byName, ok := Presets[kind]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
