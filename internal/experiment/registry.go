package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/acetylkin/internal/dynamo"
	"github.com/san-kum/acetylkin/internal/integrators"
	"github.com/san-kum/acetylkin/internal/kinetics"
	"github.com/san-kum/acetylkin/internal/metrics"
	"github.com/san-kum/acetylkin/internal/optim"
)

// Registry resolves the names used in configs and on the command line.
type Registry struct {
	models      map[string]func() kinetics.Model
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]func() kinetics.Model),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	for _, name := range kinetics.Presets() {
		name := name
		r.models[name] = func() kinetics.Model {
			net, _ := kinetics.Lookup(name)
			return net
		}
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	return r
}

// Register adds or replaces a model constructor.
func (r *Registry) Register(name string, fn func() kinetics.Model) {
	r.models[name] = fn
}

func (r *Registry) GetModel(name string) (kinetics.Model, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetMethod(name string) (optim.Method, error) {
	return optim.Lookup(name)
}

// ListModels returns the built-in models in preset order, followed by any
// others registered, sorted.
func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	builtin := make(map[string]bool)
	for _, name := range kinetics.Presets() {
		if _, ok := r.models[name]; ok {
			names = append(names, name)
			builtin[name] = true
		}
	}
	var extra []string
	for name := range r.models {
		if !builtin[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListMethods() []string {
	return optim.Names()
}

func (r *Registry) DefaultMetrics(sys dynamo.System) []dynamo.Metric {
	return metrics.Standard(sys)
}
