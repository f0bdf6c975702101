package optim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/acetylkin/internal/dynamo"
)

// evaluator counts residual evaluations and rejects non-finite output.
type evaluator struct {
	fn   func([]float64) ([]float64, error)
	nfev int
	m    int
}

func (e *evaluator) residual(x []float64) ([]float64, error) {
	e.nfev++
	r, err := e.fn(x)
	if err != nil {
		return nil, err
	}
	for i, v := range r {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: residual[%d] = %v at %v", dynamo.ErrNonFinite, i, v, x)
		}
	}
	if e.m == 0 {
		e.m = len(r)
	} else if len(r) != e.m {
		return nil, fmt.Errorf("%w: residual length changed from %d to %d", dynamo.ErrShapeMismatch, e.m, len(r))
	}
	return r, nil
}

func cost(r []float64) float64 {
	return 0.5 * floats.Dot(r, r)
}

// jacobian returns the forward-difference Jacobian of f at x, given
// r = f(x). Steps are rel·max(|x_j|, 1).
func jacobian(f func([]float64) ([]float64, error), x, r []float64, rel float64) (*mat.Dense, error) {
	m, n := len(r), len(x)
	jac := mat.NewDense(m, n, nil)
	xp := make([]float64, n)

	for j := 0; j < n; j++ {
		copy(xp, x)
		h := rel * math.Max(math.Abs(x[j]), 1)
		xp[j] = x[j] + h
		rp, err := f(xp)
		if err != nil {
			return nil, err
		}
		for i := 0; i < m; i++ {
			jac.Set(i, j, (rp[i]-r[i])/h)
		}
	}
	return jac, nil
}

// externalJacobian differentiates in external coordinates, stepping
// backwards where a forward step would leave the bounds.
func externalJacobian(p Problem, e *evaluator, v, r []float64, rel float64) (*mat.Dense, error) {
	m, n := len(r), len(v)
	jac := mat.NewDense(m, n, nil)
	vp := make([]float64, n)

	for j := 0; j < n; j++ {
		copy(vp, v)
		h := rel * math.Max(math.Abs(v[j]), 1)
		if _, hi := p.bounds(j); v[j]+h > hi {
			h = -h
		}
		vp[j] = v[j] + h
		rp, err := e.residual(vp)
		if err != nil {
			return nil, err
		}
		for i := 0; i < m; i++ {
			jac.Set(i, j, (rp[i]-r[i])/h)
		}
	}
	return jac, nil
}

// finish fills the external-coordinate fields of res from v.
func finish(p Problem, e *evaluator, res *Result, v []float64, s Settings) error {
	r, err := e.residual(v)
	if err != nil {
		return err
	}
	jac, err := externalJacobian(p, e, v, r, s.DiffStep)
	if err != nil {
		return err
	}
	res.X = v
	res.Residual = r
	res.Jacobian = jac
	res.Cost = cost(r)
	res.NFev = e.nfev
	return nil
}
