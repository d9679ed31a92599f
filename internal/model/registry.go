package model

import (
	"fmt"
	"sort"

	"github.com/san-kum/dynviz/internal/dynamo"
	"github.com/san-kum/dynviz/internal/physics"
)

var systems = map[string]func() dynamo.System{
	"pendulum":        func() dynamo.System { return physics.NewPendulum() },
	"double_pendulum": func() dynamo.System { return physics.NewDoublePendulum() },
	"cartpole":        func() dynamo.System { return physics.NewCartPole() },
	"spring_mass":     func() dynamo.System { return physics.NewSpringMass() },
	"van_der_pol":     func() dynamo.System { return physics.NewVanDerPol() },
	"duffing":         func() dynamo.System { return physics.NewDuffing() },
	"lorenz":          func() dynamo.System { return physics.NewLorenz() },
}

// NewSystem returns a default-parameter system for a model type.
func NewSystem(kind string) (dynamo.System, error) {
	fn, ok := systems[kind]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, kind)
	}
	return fn(), nil
}

func HasKind(kind string) bool {
	_, ok := systems[kind]
	return ok
}

func Kinds() []string {
	names := make([]string, 0, len(systems))
	for name := range systems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
