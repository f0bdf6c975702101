package optim

import (
	"math"

	"github.com/san-kum/acetylkin/internal/params"
)

func (p Problem) bounds(i int) (float64, float64) {
	lo, hi := math.Inf(-1), math.Inf(1)
	if p.Lower != nil {
		lo = p.Lower[i]
	}
	if p.Upper != nil {
		hi = p.Upper[i]
	}
	return lo, hi
}

// internal wraps a problem in unbounded coordinates.
type internal struct {
	coords []params.Param
	eval   *evaluator
}

func newInternal(p Problem, e *evaluator) *internal {
	coords := make([]params.Param, len(p.X0))
	for i, x := range p.X0 {
		lo, hi := p.bounds(i)
		coords[i] = params.Bounded("", x, lo, hi)
	}
	return &internal{coords: coords, eval: e}
}

func (in *internal) toInternal(v []float64) []float64 {
	x := make([]float64, len(v))
	for i, c := range in.coords {
		x[i] = c.ToInternal(v[i])
	}
	return x
}

func (in *internal) toExternal(x []float64) []float64 {
	v := make([]float64, len(x))
	for i, c := range in.coords {
		v[i] = c.FromInternal(x[i])
	}
	return v
}

// residual evaluates the problem at internal coordinates x.
func (in *internal) residual(x []float64) ([]float64, error) {
	return in.eval.residual(in.toExternal(x))
}
