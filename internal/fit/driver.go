package fit

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/acetylkin/internal/dynamo"
	"github.com/san-kum/acetylkin/internal/integrators"
	"github.com/san-kum/acetylkin/internal/kinetics"
	"github.com/san-kum/acetylkin/internal/measure"
	"github.com/san-kum/acetylkin/internal/optim"
	"github.com/san-kum/acetylkin/internal/params"
)

const (
	DefaultCarrier = "DMSO"
	DefaultCells   = "TSCctrl"
	DefaultMethod  = "least_squares"
	DefaultPoints  = 100
)

// Logger receives fit summaries at debug level.
var Logger logrus.FieldLogger = logrus.StandardLogger()

var ErrNoModel = errors.New("fit: no model given")

// DefaultSolver is used when a request leaves Solver zero. It is tighter
// than the integrator default so finite-difference Jacobians stay smooth.
func DefaultSolver() integrators.Options {
	return integrators.Options{Method: integrators.MethodRK45, RTol: 1e-8, ATol: 1e-10}
}

type Request struct {
	Model   kinetics.Model
	Params  params.Set
	Labels  []measure.LabelRow
	Areas   []measure.AreaRow
	Carrier string
	Cells   string
	Method  string
	// Uncorr drops the first two columns (the Acetyl-CoA pool) from the
	// fitted data.
	Uncorr  bool
	Columns []string
	Solver  integrators.Options
	Optim   optim.Settings
	// Points is the size of the uniform re-simulation grid.
	Points int
}

func (r Request) withDefaults() Request {
	if r.Carrier == "" {
		r.Carrier = DefaultCarrier
	}
	if r.Cells == "" {
		r.Cells = DefaultCells
	}
	if r.Method == "" {
		r.Method = DefaultMethod
	}
	if len(r.Columns) == 0 {
		r.Columns = measure.DefaultColumns
		// pool-only models fit just the Acetyl-CoA columns
		if r.Model != nil && len(r.Model.StateNames()) == 2 {
			r.Columns = measure.DefaultColumns[:2]
		}
	}
	if r.Solver == (integrators.Options{}) {
		r.Solver = DefaultSolver()
	}
	if r.Points < 2 {
		r.Points = DefaultPoints
	}
	return r
}

// FitColumns returns the data columns a request fits against.
func (r Request) FitColumns() ([]string, error) {
	r = r.withDefaults()
	if !r.Uncorr {
		return r.Columns, nil
	}
	if len(r.Columns) <= 2 {
		return nil, fmt.Errorf("uncorrelated fit needs more than %d columns", len(r.Columns))
	}
	return r.Columns[2:], nil
}

// Outcome is a finished fit: the observed data it used, the fitted
// parameters, the optimizer result with its statistics, and the fitted
// model re-simulated on a uniform grid.
type Outcome struct {
	Model      string
	Condition  measure.Condition
	Method     string
	Measured   *measure.Matrix
	Params     params.Set
	Result     *optim.Result
	Stats      *Stats
	Trajectory *dynamo.Trajectory
}

// Table returns the re-simulated trajectory labelled with the fitted
// column names.
func (o *Outcome) Table() *measure.Matrix {
	return &measure.Matrix{
		Times:   append([]float64(nil), o.Trajectory.Times...),
		Columns: append([]string(nil), o.Measured.Columns...),
		Data:    o.Trajectory.Matrix(),
	}
}

func (o *Outcome) Report() string {
	return o.Stats.Report(o.Params)
}

// Fit selects the measured data for the request's condition and fits it.
func Fit(ctx context.Context, req Request) (*Outcome, error) {
	req = req.withDefaults()
	measured, err := measure.Select(req.Labels, req.Areas, req.Carrier, req.Cells)
	if err != nil {
		return nil, err
	}
	return FitMatrix(ctx, req, measured)
}

// FitMatrix fits the request's model to an already selected matrix. The
// first observed row is the initial state.
func FitMatrix(ctx context.Context, req Request, measured *measure.Matrix) (*Outcome, error) {
	if req.Model == nil {
		return nil, ErrNoModel
	}
	req = req.withDefaults()
	model := req.Model

	if measured.Rows() == 0 {
		return nil, dynamo.ErrEmptyTimeGrid
	}
	cols, err := req.FitColumns()
	if err != nil {
		return nil, err
	}
	obs, err := measured.Select(cols...)
	if err != nil {
		return nil, err
	}
	if dim := len(model.StateNames()); dim != len(cols) {
		return nil, fmt.Errorf("%w: model %s has %d states, %d columns selected",
			dynamo.ErrDimensionMismatch, model.Name(), dim, len(cols))
	}

	p := req.Params.Clone()
	if _, err := model.Bind(p); err != nil {
		return nil, err
	}

	t := obs.Times
	y0 := dynamo.State(obs.Row(0))
	free := p.FreeNames()
	lower, upper := p.Bounds(free)

	work := p.Clone()
	problem := optim.Problem{
		Residual: func(x []float64) ([]float64, error) {
			work.Update(free, x)
			return Residual(work, model, t, y0, obs.Data, req.Solver)
		},
		X0:    p.Vector(free),
		Lower: lower,
		Upper: upper,
	}

	method, err := optim.Lookup(req.Method)
	if err != nil {
		return nil, err
	}
	res, err := method.Minimize(ctx, problem, req.Optim)
	if err != nil {
		return nil, fmt.Errorf("fitting %s: %w", model.Name(), err)
	}

	fitted := p.Clone()
	fitted.Update(free, res.X)

	observed := make([]float64, 0, obs.Rows()*len(cols))
	for i := 0; i < obs.Rows(); i++ {
		observed = append(observed, obs.Row(i)...)
	}
	stats := Summarize(res, fitted, free, observed)

	traj, err := Resimulate(model, fitted, y0, t[0], t[len(t)-1], req.Points, req.Solver)
	if err != nil {
		return nil, err
	}

	Logger.WithFields(logrus.Fields{
		"model":  model.Name(),
		"method": req.Method,
		"nfev":   res.NFev,
		"cost":   res.Cost,
	}).Debug("fit finished")

	return &Outcome{
		Model:      model.Name(),
		Condition:  measure.Condition{Carrier: req.Carrier, Cells: req.Cells},
		Method:     req.Method,
		Measured:   obs,
		Params:     fitted,
		Result:     res,
		Stats:      stats,
		Trajectory: traj,
	}, nil
}

// Resimulate integrates model with p from y0 on points evenly spaced
// times over [t0, t1].
func Resimulate(model kinetics.Model, p params.Set, y0 dynamo.State, t0, t1 float64, points int, opts integrators.Options) (*dynamo.Trajectory, error) {
	sys, err := model.Bind(p)
	if err != nil {
		return nil, err
	}
	if points < 2 {
		points = 2
	}
	grid := floats.Span(make([]float64, points), t0, t1)
	grid[points-1] = t1
	return integrators.SolveIVP(sys, [2]float64{t0, t1}, y0, grid, opts)
}
