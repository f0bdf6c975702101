package fit

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/acetylkin/internal/dynamo"
	"github.com/san-kum/acetylkin/internal/integrators"
	"github.com/san-kum/acetylkin/internal/kinetics"
	"github.com/san-kum/acetylkin/internal/params"
)

// Residual integrates m from y0 over [t[0], t[len(t)-1]], samples it at
// exactly the points of t and returns simulated minus observed, flattened
// row by row. A trajectory that stops short of the last time point is a
// shape mismatch, never a partial score.
func Residual(p params.Set, m kinetics.Model, t []float64, y0 dynamo.State, data *mat.Dense, opts integrators.Options) ([]float64, error) {
	if len(t) == 0 {
		return nil, dynamo.ErrEmptyTimeGrid
	}
	rows, cols := data.Dims()
	if rows != len(t) {
		return nil, fmt.Errorf("%w: %d observed rows for %d time points", dynamo.ErrShapeMismatch, rows, len(t))
	}

	sys, err := m.Bind(p)
	if err != nil {
		return nil, err
	}

	traj, err := integrators.SolveIVP(sys, [2]float64{t[0], t[len(t)-1]}, y0, t, opts)
	if err != nil {
		return nil, err
	}
	if traj.Len() != rows || traj.Dim() != cols {
		return nil, fmt.Errorf("%w: simulated %dx%d, observed %dx%d: %s",
			dynamo.ErrShapeMismatch, traj.Len(), traj.Dim(), rows, cols, traj.Message)
	}

	out := make([]float64, 0, rows*cols)
	for i, x := range traj.States {
		for j := 0; j < cols; j++ {
			out = append(out, x[j]-data.At(i, j))
		}
	}
	return out, nil
}
