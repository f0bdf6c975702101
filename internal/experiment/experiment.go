package experiment

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/san-kum/acetylkin/internal/config"
	"github.com/san-kum/acetylkin/internal/dynamo"
	"github.com/san-kum/acetylkin/internal/fit"
	"github.com/san-kum/acetylkin/internal/kinetics"
	"github.com/san-kum/acetylkin/internal/measure"
	"github.com/san-kum/acetylkin/internal/sim"
)

// Experiment binds one config to a resolved model. It runs either a fit
// against the configured tables or a forward simulation.
type Experiment struct {
	cfg      *config.Config
	registry *Registry
	model    kinetics.Model
	labels   []measure.LabelRow
	areas    []measure.AreaRow
}

func New(cfg *config.Config, registry *Registry) *Experiment {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Experiment{cfg: cfg, registry: registry}
}

// Setup resolves the model and checks that the integrator and method
// names are known.
func (e *Experiment) Setup() error {
	model, err := e.registry.GetModel(e.cfg.Model)
	if err != nil {
		return err
	}
	if e.cfg.Solver.Method != "" {
		if _, err := e.registry.GetIntegrator(normalize(e.cfg.Solver.Method)); err != nil {
			return err
		}
	}
	if _, err := e.registry.GetMethod(e.cfg.Method); err != nil {
		return err
	}
	e.model = model
	return nil
}

func normalize(method string) string {
	m := strings.ToLower(method)
	if m == "dopri5" {
		return "rk45"
	}
	return m
}

func (e *Experiment) Model() kinetics.Model { return e.model }

func (e *Experiment) Config() *config.Config { return e.cfg }

// SetTables supplies already parsed tables, bypassing the paths in the
// config.
func (e *Experiment) SetTables(labels []measure.LabelRow, areas []measure.AreaRow) {
	e.labels, e.areas = labels, areas
}

func (e *Experiment) loadTables() error {
	if e.labels != nil || e.areas != nil {
		return nil
	}
	if e.cfg.Data.Labels != "" {
		rows, err := measure.LoadLabelCSV(e.cfg.Data.Labels)
		if err != nil {
			return err
		}
		e.labels = rows
	}
	if e.cfg.Data.Areas != "" {
		rows, err := measure.LoadAreaCSV(e.cfg.Data.Areas)
		if err != nil {
			return err
		}
		e.areas = rows
	}
	return nil
}

// Request returns the fit request for the configured model. Tables are
// not attached.
func (e *Experiment) Request() (fit.Request, error) {
	if e.model == nil {
		return fit.Request{}, fmt.Errorf("experiment not setup")
	}
	return e.cfg.FitRequest(e.model)
}

// Measured returns the aligned observations for the configured condition.
// A configured matrix file takes precedence over the raw tables.
func (e *Experiment) Measured() (*measure.Matrix, error) {
	if e.cfg.Data.Matrix != "" {
		f, err := os.Open(e.cfg.Data.Matrix)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		m, err := measure.ReadCSV(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.cfg.Data.Matrix, err)
		}
		return m, nil
	}

	if err := e.loadTables(); err != nil {
		return nil, err
	}
	return measure.Select(e.labels, e.areas, e.cfg.Carrier, e.cfg.Cells)
}

// Fit runs the configured fit.
func (e *Experiment) Fit(ctx context.Context) (*fit.Outcome, error) {
	req, err := e.Request()
	if err != nil {
		return nil, err
	}
	measured, err := e.Measured()
	if err != nil {
		return nil, err
	}
	return fit.FitMatrix(ctx, req, measured)
}

// Simulate integrates the model with the configured parameters and the
// standard metrics.
func (e *Experiment) Simulate(ctx context.Context, observers ...dynamo.Observer) (*sim.Result, error) {
	if e.model == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	p, err := e.cfg.ResolveParams()
	if err != nil {
		return nil, err
	}

	simulator := sim.New(e.model, p)
	sys, err := simulator.System()
	if err != nil {
		return nil, err
	}
	for _, m := range e.registry.DefaultMetrics(sys) {
		simulator.AddMetric(m)
	}
	for _, o := range observers {
		simulator.AddObserver(o)
	}

	x0, err := e.initState()
	if err != nil {
		return nil, err
	}
	return simulator.Run(ctx, x0, e.cfg.SimConfig())
}

func (e *Experiment) initState() (dynamo.State, error) {
	net, ok := e.model.(*kinetics.Network)
	if !ok {
		if len(e.cfg.Sim.InitState) == 0 {
			return nil, fmt.Errorf("model %s needs an explicit init_state", e.model.Name())
		}
		return dynamo.State(e.cfg.Sim.InitState).Clone(), nil
	}
	return e.cfg.GetInitState(net)
}
