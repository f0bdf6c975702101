package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/acetylkin/internal/dynamo"
	"github.com/san-kum/acetylkin/internal/integrators"
	"github.com/san-kum/acetylkin/internal/kinetics"
	"github.com/san-kum/acetylkin/internal/params"
)

// DefaultStep is the relative perturbation used when Sensitivity is given
// a non-positive step.
const DefaultStep = 1e-4

var ErrSolverFailed = errors.New("analysis: integration stopped before the last time point")

// SensitivityResult holds scaled derivatives p·∂y/∂p of every state along
// the time grid, one matrix per free parameter (rows follow Times, columns
// follow States).
type SensitivityResult struct {
	Times  []float64
	States []string
	Params []string
	Scaled map[string]*mat.Dense
}

// Score is the RMS of the scaled sensitivity of parameter name over all
// states and times. Larger means the trajectory constrains it more.
func (r *SensitivityResult) Score(name string) float64 {
	m, ok := r.Scaled[name]
	if !ok {
		return math.NaN()
	}
	rows, cols := m.Dims()
	return mat.Norm(m, 2) / math.Sqrt(float64(rows*cols))
}

// StateScore is Score restricted to one state column.
func (r *SensitivityResult) StateScore(name string, state int) float64 {
	m, ok := r.Scaled[name]
	if !ok || state < 0 || state >= len(r.States) {
		return math.NaN()
	}
	col := mat.Col(nil, state, m)
	sum := 0.0
	for _, v := range col {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(col)))
}

func solve(model kinetics.Model, p params.Set, x0 dynamo.State, grid []float64, opts integrators.Options) (*dynamo.Trajectory, error) {
	sys, err := model.Bind(p)
	if err != nil {
		return nil, err
	}
	traj, err := integrators.SolveIVP(sys, [2]float64{grid[0], grid[len(grid)-1]}, x0, grid, opts)
	if err != nil {
		return nil, err
	}
	if traj.Status != dynamo.StatusSuccess {
		return nil, fmt.Errorf("%w: %s", ErrSolverFailed, traj.Message)
	}
	return traj, nil
}

// Sensitivity perturbs each free parameter of p by a relative step and
// differences the two perturbed trajectories. A parameter whose lower
// step would cross its bound takes a one-sided step; a parameter at zero
// is stepped by the absolute amount.
func Sensitivity(model kinetics.Model, p params.Set, x0 dynamo.State, grid []float64, opts integrators.Options, step float64) (*SensitivityResult, error) {
	if len(grid) == 0 {
		return nil, dynamo.ErrEmptyTimeGrid
	}
	if step <= 0 {
		step = DefaultStep
	}

	free := p.FreeNames()
	res := &SensitivityResult{
		Times:  append([]float64(nil), grid...),
		States: model.StateNames(),
		Params: free,
		Scaled: make(map[string]*mat.Dense, len(free)),
	}

	for _, name := range free {
		v, _ := p.Value(name)
		h := step * math.Abs(v)
		if h == 0 {
			h = step
		}

		up, down := p.Clone(), p.Clone()
		up.SetValue(name, v+h)
		lo := v - h
		if lo < p[name].Min {
			lo = v
		}
		down.SetValue(name, lo)

		hi, err := solve(model, up, x0, grid, opts)
		if err != nil {
			return nil, fmt.Errorf("perturbing %s: %w", name, err)
		}
		ref, err := solve(model, down, x0, grid, opts)
		if err != nil {
			return nil, fmt.Errorf("perturbing %s: %w", name, err)
		}

		span := (v + h) - lo
		scale := v
		if scale == 0 {
			scale = 1
		}
		m := mat.NewDense(len(grid), len(res.States), nil)
		for i := range grid {
			for j := range res.States {
				m.Set(i, j, scale*(hi.States[i][j]-ref.States[i][j])/span)
			}
		}
		res.Scaled[name] = m
	}
	return res, nil
}
