package model

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dynviz/internal/dynamo"
	"github.com/san-kum/dynviz/internal/integrators"
)

const DefaultTimestep = 0.002

type Format int

const (
	FormatXML Format = iota
	FormatYAML
)

// Description is a parsed model file: which system to build, how to
// configure it, and where it starts.
type Description struct {
	Kind       string
	Name       string
	Timestep   float64
	Integrator string
	Params     []Param
	Initial    dynamo.State
}

// Param is applied in file order, so a parameter that resizes a model must
// precede the ones that configure it.
type Param struct {
	Name  string  `yaml:"name"`
	Value float64 `yaml:"value"`
}

type xmlDescription struct {
	XMLName xml.Name `xml:"model"`
	Kind    string   `xml:"type,attr"`
	Name    string   `xml:"name,attr"`
	Option  struct {
		Timestep   float64 `xml:"timestep,attr"`
		Integrator string  `xml:"integrator,attr"`
	} `xml:"option"`
	Params []struct {
		Name  string  `xml:"name,attr"`
		Value float64 `xml:"value,attr"`
	} `xml:"param"`
	State string `xml:"state"`
}

type yamlDescription struct {
	Kind   string `yaml:"type"`
	Name   string `yaml:"name"`
	Option struct {
		Timestep   float64 `yaml:"timestep"`
		Integrator string  `yaml:"integrator"`
	} `yaml:"option"`
	Params []Param   `yaml:"params"`
	State  []float64 `yaml:"state"`
}

// DetectFormat picks a decoder from the file extension, falling back to
// sniffing for a leading '<'.
func DetectFormat(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xml":
		return FormatXML
	case ".yaml", ".yml":
		return FormatYAML
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("<")) {
		return FormatXML
	}
	return FormatYAML
}

// Parse decodes and validates a description. Errors wrap
// ErrInvalidDescription or ErrUnknownKind.
func Parse(data []byte, format Format) (*Description, error) {
	var (
		d   *Description
		err error
	)
	switch format {
	case FormatXML:
		d, err = parseXML(data)
	case FormatYAML:
		d, err = parseYAML(data)
	default:
		return nil, fmt.Errorf("%w: unsupported format %d", ErrInvalidDescription, format)
	}
	if err != nil {
		return nil, err
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func parseXML(data []byte) (*Description, error) {
	var raw xmlDescription
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescription, err)
	}
	d := &Description{
		Kind:       raw.Kind,
		Name:       raw.Name,
		Timestep:   raw.Option.Timestep,
		Integrator: raw.Option.Integrator,
	}
	for _, p := range raw.Params {
		d.Params = append(d.Params, Param{Name: p.Name, Value: p.Value})
	}
	for _, field := range strings.Fields(raw.State) {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: state entry %q: %v", ErrInvalidDescription, field, err)
		}
		d.Initial = append(d.Initial, v)
	}
	return d, nil
}

func parseYAML(data []byte) (*Description, error) {
	var raw yamlDescription
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescription, err)
	}
	return &Description{
		Kind:       raw.Kind,
		Name:       raw.Name,
		Timestep:   raw.Option.Timestep,
		Integrator: raw.Option.Integrator,
		Params:     raw.Params,
		Initial:    raw.State,
	}, nil
}

func (d *Description) validate() error {
	if d.Kind == "" {
		return fmt.Errorf("%w: missing model type", ErrInvalidDescription)
	}
	if !HasKind(d.Kind) {
		return fmt.Errorf("%w %q", ErrUnknownKind, d.Kind)
	}
	if d.Name == "" {
		d.Name = d.Kind
	}
	if d.Timestep == 0 {
		d.Timestep = DefaultTimestep
	}
	if d.Timestep < 0 {
		return fmt.Errorf("%w: timestep must be positive, got %g", ErrInvalidDescription, d.Timestep)
	}
	if d.Integrator == "" {
		d.Integrator = integrators.Default
	}
	if _, err := integrators.New(d.Integrator); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDescription, err)
	}
	for _, p := range d.Params {
		if p.Name == "" {
			return fmt.Errorf("%w: parameter without a name", ErrInvalidDescription)
		}
	}
	if !d.Initial.IsValid() {
		return fmt.Errorf("%w: %v", ErrInvalidDescription, dynamo.ErrInvalidState)
	}
	return nil
}

// Instantiate builds the configured system, a fresh integrator and the
// initial state. An empty initial state starts the system at rest.
func (d *Description) Instantiate() (dynamo.System, dynamo.Integrator, dynamo.State, error) {
	sys, err := NewSystem(d.Kind)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(d.Params) > 0 {
		cfg, ok := sys.(dynamo.Configurable)
		if !ok {
			return nil, nil, nil, fmt.Errorf("%w: %s takes no parameters", ErrInvalidDescription, d.Kind)
		}
		for _, p := range d.Params {
			if err := cfg.SetParam(p.Name, p.Value); err != nil {
				return nil, nil, nil, fmt.Errorf("%w: param %s: %w", ErrInvalidDescription, p.Name, err)
			}
		}
	}
	integ, err := integrators.New(d.Integrator)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %w", ErrInvalidDescription, err)
	}
	x0 := d.Initial.Clone()
	if len(x0) == 0 {
		x0 = make(dynamo.State, sys.StateDim())
	}
	if len(x0) != sys.StateDim() {
		return nil, nil, nil, fmt.Errorf("%w: state has %d entries, %s wants %d: %w",
			ErrInvalidDescription, len(x0), d.Kind, sys.StateDim(), dynamo.ErrDimensionMismatch)
	}
	return sys, integ, x0, nil
}

// EncodeYAML renders the description in the YAML model format.
func (d *Description) EncodeYAML() ([]byte, error) {
	raw := yamlDescription{
		Kind:   d.Kind,
		Name:   d.Name,
		Params: d.Params,
		State:  d.Initial,
	}
	raw.Option.Timestep = d.Timestep
	raw.Option.Integrator = d.Integrator
	return yaml.Marshal(raw)
}
