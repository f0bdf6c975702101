package integrators

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/acetylkin/internal/dynamo"
)

const (
	MethodRK45  = "RK45"
	MethodRK4   = "RK4"
	MethodEuler = "Euler"
)

// Logger receives solver diagnostics. Replace it to route them elsewhere.
var Logger logrus.FieldLogger = logrus.StandardLogger()

// Options controls SolveIVP. Zero fields fall back to DefaultOptions.
type Options struct {
	Method    string  `yaml:"method" json:"method"`
	RTol      float64 `yaml:"rtol" json:"rtol"`
	ATol      float64 `yaml:"atol" json:"atol"`
	FirstStep float64 `yaml:"first_step,omitempty" json:"first_step,omitempty"`
	MaxStep   float64 `yaml:"max_step,omitempty" json:"max_step,omitempty"`
	MaxSteps  int     `yaml:"max_steps" json:"max_steps"`
}

func DefaultOptions() Options {
	return Options{
		Method:   MethodRK45,
		RTol:     1e-6,
		ATol:     1e-9,
		MaxSteps: 100000,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Method == "" {
		o.Method = def.Method
	}
	if o.RTol <= 0 {
		o.RTol = def.RTol
	}
	if o.ATol <= 0 {
		o.ATol = def.ATol
	}
	if o.MaxSteps <= 0 {
		o.MaxSteps = def.MaxSteps
	}
	return o
}

// New returns the integrator registered under name (case-insensitive).
func New(name string) (dynamo.Integrator, error) {
	switch strings.ToLower(name) {
	case "", "rk45", "dopri5":
		return NewRK45(), nil
	case "rk4":
		return NewRK4(), nil
	case "euler":
		return NewEuler(), nil
	}
	return nil, fmt.Errorf("unknown integrator: %s", name)
}

// Methods lists the canonical integrator names.
func Methods() []string {
	return []string{MethodRK45, MethodRK4, MethodEuler}
}

type countingSystem struct {
	dynamo.System
	n int
}

func (c *countingSystem) Derive(x dynamo.State, t float64) dynamo.State {
	c.n++
	return c.System.Derive(x, t)
}

func validateGrid(tspan [2]float64, tEval []float64) error {
	if len(tEval) == 0 {
		return dynamo.ErrEmptyTimeGrid
	}
	t0, t1 := tspan[0], tspan[1]
	if math.IsNaN(t0) || math.IsNaN(t1) || math.IsInf(t0, 0) || math.IsInf(t1, 0) {
		return fmt.Errorf("invalid time span [%g, %g]", t0, t1)
	}
	if t1 < t0 {
		return fmt.Errorf("time span must be increasing: [%g, %g]", t0, t1)
	}
	for i, t := range tEval {
		if t < t0 || t > t1 || math.IsNaN(t) {
			return fmt.Errorf("evaluation time %g outside [%g, %g]", t, t0, t1)
		}
		if i > 0 && t < tEval[i-1] {
			return fmt.Errorf("evaluation times must be non-decreasing at index %d", i)
		}
	}
	return nil
}

// initialStep picks a first step from the scaled norms of y0 and f(t0, y0).
func initialStep(sys dynamo.System, x dynamo.State, t, span, rtol, atol float64) float64 {
	f0 := sys.Derive(x, t)
	d0, d1 := 0.0, 0.0
	for i := range x {
		scale := atol + rtol*math.Abs(x[i])
		d0 += (x[i] / scale) * (x[i] / scale)
		d1 += (f0[i] / scale) * (f0[i] / scale)
	}
	n := float64(len(x))
	d0, d1 = math.Sqrt(d0/n), math.Sqrt(d1/n)

	h := 1e-6
	if d0 >= 1e-5 && d1 >= 1e-5 {
		h = 0.01 * d0 / d1
	}
	return math.Min(h, span)
}

// SolveIVP integrates sys from y0 over tspan and returns the states at
// exactly the points of tEval. Steps are clipped so that every evaluation
// time is hit by the integrator itself; no interpolation is performed.
//
// Invalid input is reported as an error. A failure during integration
// returns the trajectory sampled so far with Status set to StatusFailed.
func SolveIVP(sys dynamo.System, tspan [2]float64, y0 dynamo.State, tEval []float64, opts Options) (*dynamo.Trajectory, error) {
	if len(y0) != sys.StateDim() {
		return nil, fmt.Errorf("%w: system has %d states, initial state has %d",
			dynamo.ErrDimensionMismatch, sys.StateDim(), len(y0))
	}
	if !y0.IsValid() {
		return nil, dynamo.ErrInvalidState
	}
	if err := validateGrid(tspan, tEval); err != nil {
		return nil, err
	}

	opts = opts.withDefaults()
	integ, err := New(opts.Method)
	if err != nil {
		return nil, err
	}
	adaptive, isAdaptive := integ.(dynamo.AdaptiveIntegrator)

	counted := &countingSystem{System: sys}
	traj := &dynamo.Trajectory{
		Times:  make([]float64, 0, len(tEval)),
		States: make([]dynamo.State, 0, len(tEval)),
	}

	t0, t1 := tspan[0], tspan[1]
	span := t1 - t0
	t := t0
	x := y0.Clone()

	next := 0
	record := func() {
		for next < len(tEval) && tEval[next] <= t {
			traj.Times = append(traj.Times, tEval[next])
			traj.States = append(traj.States, x.Clone())
			next++
		}
	}
	fail := func(cause error) (*dynamo.Trajectory, error) {
		simErr := &dynamo.SimulationError{Step: traj.Steps, Time: t, State: x.Clone(), Wrapped: cause}
		traj.Status = dynamo.StatusFailed
		traj.Message = simErr.Error()
		traj.NFev = counted.n
		Logger.WithFields(logrus.Fields{
			"method":  opts.Method,
			"t":       t,
			"sampled": traj.Len(),
			"wanted":  len(tEval),
		}).Debugf("integration failed: %v", cause)
		return traj, nil
	}

	record()

	var dt float64
	switch {
	case opts.FirstStep > 0:
		dt = opts.FirstStep
	case isAdaptive:
		dt = initialStep(counted, x, t, span, opts.RTol, opts.ATol)
	case opts.MaxStep > 0:
		dt = opts.MaxStep
	default:
		dt = span / 1000
	}
	if opts.MaxStep > 0 {
		dt = math.Min(dt, opts.MaxStep)
	}

	for next < len(tEval) {
		if traj.Steps+traj.Rejected >= opts.MaxSteps {
			return fail(fmt.Errorf("exceeded %d steps", opts.MaxSteps))
		}

		target := tEval[next]
		h := dt
		clipped := false
		if t+h >= target {
			h = target - t
			clipped = true
		}
		minStep := 1e-12 * math.Max(1, math.Abs(t))
		if h < minStep && !clipped {
			return fail(dynamo.ErrStepTooSmall)
		}

		var xNew dynamo.State
		if isAdaptive {
			var dtNext float64
			xNew, dtNext, err = adaptive.StepAdaptive(counted, x, t, h, opts.RTol, opts.ATol)
			if errors.Is(err, dynamo.ErrStepRejected) {
				traj.Rejected++
				if dtNext < minStep {
					return fail(dynamo.ErrStepTooSmall)
				}
				dt = dtNext
				continue
			}
			if err != nil {
				return fail(err)
			}
			if !clipped {
				dt = dtNext
			}
			if opts.MaxStep > 0 {
				dt = math.Min(dt, opts.MaxStep)
			}
		} else {
			xNew = integ.Step(counted, x, t, h)
		}

		if !xNew.IsValid() {
			return fail(dynamo.ErrNonFinite)
		}

		x = xNew
		if clipped {
			t = target
		} else {
			t += h
		}
		traj.Steps++
		record()
	}

	traj.Status = dynamo.StatusSuccess
	traj.NFev = counted.n
	return traj, nil
}
