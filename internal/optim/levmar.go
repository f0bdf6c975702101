package optim

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	lambdaInit = 1e-3
	lambdaMax  = 1e16
)

// LevenbergMarquardt is a damped Gauss-Newton method on the normal
// equations (JᵀJ + λ·diag(JᵀJ)) δ = -Jᵀr with a forward-difference J.
type LevenbergMarquardt struct {
	name string
}

func (lm *LevenbergMarquardt) Name() string {
	if lm.name == "" {
		return "least_squares"
	}
	return lm.name
}

func (lm *LevenbergMarquardt) Minimize(ctx context.Context, p Problem, s Settings) (*Result, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	n := len(p.X0)
	s = s.withDefaults(n)

	e := &evaluator{fn: p.Residual}
	in := newInternal(p, e)
	log := Logger.WithField("method", lm.Name())

	x := in.toInternal(p.X0)
	r, err := in.residual(x)
	if err != nil {
		return nil, err
	}
	c := cost(r)
	m := len(r)

	res := &Result{Method: lm.Name()}
	lambda := lambdaInit
	rv := mat.NewVecDense(m, nil)

	for res.NIter < s.MaxIter {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.nfev >= s.MaxFev {
			res.Message = "maximum number of function evaluations exceeded"
			break
		}

		jac, err := jacobian(in.residual, x, r, s.DiffStep)
		if err != nil {
			return nil, err
		}
		res.NIter++

		jtj := mat.NewSymDense(n, nil)
		jtj.SymOuterK(1, jac.T())
		for i, v := range r {
			rv.SetVec(i, v)
		}
		var g mat.VecDense
		g.MulVec(jac.T(), rv)

		if mat.Norm(&g, math.Inf(1)) <= s.GTol {
			res.Success = true
			res.Message = "gradient below tolerance"
			break
		}

		accepted := false
		for lambda <= lambdaMax {
			delta, ok := dampedStep(jtj, &g, lambda)
			if !ok {
				lambda *= 10
				continue
			}

			xNew := make([]float64, n)
			floats.AddTo(xNew, x, delta)
			rNew, err := in.residual(xNew)
			if err != nil {
				return nil, err
			}
			cNew := cost(rNew)

			if cNew < c {
				log.WithFields(logrus.Fields{
					"iter":   res.NIter,
					"cost":   cNew,
					"lambda": lambda,
					"nfev":   e.nfev,
				}).Debug("step accepted")

				reduction := c - cNew
				stepNorm := floats.Norm(delta, 2)
				xNorm := floats.Norm(x, 2)
				x, r, c = xNew, rNew, cNew
				lambda = math.Max(lambda/10, 1e-12)
				accepted = true

				switch {
				case reduction <= s.FTol*c:
					res.Success = true
					res.Message = "relative reduction in cost below tolerance"
				case stepNorm <= s.XTol*(xNorm+s.XTol):
					res.Success = true
					res.Message = "step size below tolerance"
				}
				break
			}
			lambda *= 10
		}

		if !accepted {
			res.Success = true
			res.Message = "no further reduction in cost"
			break
		}
		if res.Success {
			break
		}
	}

	if res.Message == "" {
		res.Message = "maximum number of iterations exceeded"
	}

	if err := finish(p, e, res, in.toExternal(x), s); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"nfev":    res.NFev,
		"cost":    res.Cost,
		"success": res.Success,
	}).Debug(res.Message)
	return res, nil
}

// dampedStep solves (A + λ·diag(A)) δ = -g. ok is false when the damped
// matrix is not positive definite.
func dampedStep(a *mat.SymDense, g *mat.VecDense, lambda float64) ([]float64, bool) {
	n := a.SymmetricDim()
	damped := mat.NewSymDense(n, nil)
	damped.CopySym(a)
	for i := 0; i < n; i++ {
		d := a.At(i, i)
		if d < 1e-12 {
			d = 1e-12
		}
		damped.SetSym(i, i, a.At(i, i)+lambda*d)
	}

	var chol mat.Cholesky
	if !chol.Factorize(damped) {
		return nil, false
	}

	var neg mat.VecDense
	neg.ScaleVec(-1, g)
	var delta mat.VecDense
	if err := chol.SolveVecTo(&delta, &neg); err != nil {
		return nil, false
	}
	return mat.Col(nil, 0, &delta), true
}
