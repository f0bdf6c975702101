package optim

import (
	"context"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// gonumMethod adapts a gonum scalar minimizer to the least-squares
// problem by minimizing ½‖r‖². Gradient-based methods get Jᵀr from a
// forward-difference Jacobian.
type gonumMethod struct {
	name     string
	gradient bool
	build    func() optimize.Method
}

func newNelderMead() Method {
	return &gonumMethod{name: "nelder", build: func() optimize.Method { return &optimize.NelderMead{} }}
}

func newLBFGS(name string) Method {
	return &gonumMethod{name: name, gradient: true, build: func() optimize.Method { return &optimize.LBFGS{} }}
}

func newBFGS() Method {
	return &gonumMethod{name: "bfgs", gradient: true, build: func() optimize.Method { return &optimize.BFGS{} }}
}

func newCG() Method {
	return &gonumMethod{name: "cg", gradient: true, build: func() optimize.Method { return &optimize.CG{} }}
}

func (g *gonumMethod) Name() string { return g.name }

// abortRecorder stops a gonum run on cancellation or on the first
// residual error.
type abortRecorder struct {
	ctx  context.Context
	err  *error
	log  logrus.FieldLogger
	iter int
}

func (a *abortRecorder) Init() error { return nil }

func (a *abortRecorder) Record(loc *optimize.Location, op optimize.Operation, stats *optimize.Stats) error {
	if *a.err != nil {
		return *a.err
	}
	if err := a.ctx.Err(); err != nil {
		return err
	}
	if op == optimize.MajorIteration {
		a.iter++
		a.log.WithFields(logrus.Fields{
			"iter": a.iter,
			"cost": loc.F,
			"nfev": stats.FuncEvaluations,
		}).Debug("major iteration")
	}
	return nil
}

func (g *gonumMethod) Minimize(ctx context.Context, p Problem, s Settings) (*Result, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	s = s.withDefaults(len(p.X0))

	e := &evaluator{fn: p.Residual}
	in := newInternal(p, e)
	log := Logger.WithField("method", g.name)

	var evalErr error
	record := func(err error) {
		if evalErr == nil {
			evalErr = err
		}
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			r, err := in.residual(x)
			if err != nil {
				record(err)
				return math.Inf(1)
			}
			return cost(r)
		},
	}
	if g.gradient {
		problem.Grad = func(grad, x []float64) {
			for i := range grad {
				grad[i] = 0
			}
			r, err := in.residual(x)
			if err != nil {
				record(err)
				return
			}
			jac, err := jacobian(in.residual, x, r, s.DiffStep)
			if err != nil {
				record(err)
				return
			}
			gv := mat.NewVecDense(len(grad), grad)
			gv.MulVec(jac.T(), mat.NewVecDense(len(r), r))
		}
	}

	settings := &optimize.Settings{
		MajorIterations:   s.MaxIter,
		FuncEvaluations:   s.MaxFev,
		GradientThreshold: s.GTol,
		Recorder:          &abortRecorder{ctx: ctx, err: &evalErr, log: log},
	}

	result, err := optimize.Minimize(problem, in.toInternal(p.X0), settings, g.build())
	if evalErr != nil {
		return nil, evalErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if result == nil {
		return nil, err
	}

	res := &Result{
		Method:  g.name,
		NIter:   result.Stats.MajorIterations,
		Success: err == nil && !result.Status.Early(),
		Message: result.Status.String(),
	}
	if err != nil {
		res.Message = err.Error()
	}

	if err := finish(p, e, res, in.toExternal(result.X), s); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"nfev":    res.NFev,
		"cost":    res.Cost,
		"success": res.Success,
	}).Debug(res.Message)
	return res, nil
}
