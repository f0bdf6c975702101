package sim

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/acetylkin/internal/dynamo"
	"github.com/san-kum/acetylkin/internal/integrators"
	"github.com/san-kum/acetylkin/internal/kinetics"
	"github.com/san-kum/acetylkin/internal/params"
)

// Simulator integrates one kinetic model with fixed rate constants and
// feeds every sample to its metrics and observers.
type Simulator struct {
	model     kinetics.Model
	params    params.Set
	metrics   []dynamo.Metric
	observers []dynamo.Observer
}

func New(model kinetics.Model, p params.Set) *Simulator {
	return &Simulator{
		model:     model,
		params:    p.Clone(),
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// System binds the simulator's parameters to its model.
func (s *Simulator) System() (dynamo.System, error) {
	return s.model.Bind(s.params)
}

// Run samples the trajectory at cfg.Points evenly spaced times. A solver
// failure returns the partial result together with an error.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	sys, err := s.System()
	if err != nil {
		return nil, err
	}

	t0, t1 := cfg.Start, cfg.Start+cfg.Duration
	grid := floats.Span(make([]float64, cfg.Points), t0, t1)
	grid[cfg.Points-1] = t1

	traj, err := integrators.SolveIVP(sys, [2]float64{t0, t1}, x0, grid, cfg.Solver)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Model:      s.model.Name(),
		StateNames: s.model.StateNames(),
		Trajectory: traj,
		Metrics:    make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}
	for i, x := range traj.States {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		t := traj.Times[i]
		for _, m := range s.metrics {
			m.Observe(x, t)
		}
		for _, obs := range s.observers {
			obs.OnSample(x, t)
		}
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	if !traj.Success() {
		return result, fmt.Errorf("%s: %s", s.model.Name(), traj.Message)
	}
	return result, nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.Points < 2 {
		return fmt.Errorf("need at least 2 sample points, got %d", cfg.Points)
	}
	return nil
}
