// Package optim minimizes the sum of squares of a residual vector over a
// box-bounded parameter vector.
//
// Methods are looked up by name (see [Lookup]). Bounds are
// enforced by mapping each bounded coordinate onto an unbounded internal
// one, so every method except brute runs unconstrained.
package optim

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrUnknownMethod = errors.New("optim: unknown method")
	ErrBadProblem    = errors.New("optim: invalid problem")
	ErrUnbounded     = errors.New("optim: brute force needs finite bounds")
)

// Logger receives per-iteration diagnostics at debug level.
var Logger logrus.FieldLogger = logrus.StandardLogger()

// Problem is a least-squares problem in external coordinates. Lower and
// Upper may be nil (unbounded) or hold ±Inf entries.
type Problem struct {
	Residual func(x []float64) ([]float64, error)
	X0       []float64
	Lower    []float64
	Upper    []float64
}

type Settings struct {
	MaxIter     int     `yaml:"max_iter,omitempty" json:"max_iter,omitempty"`
	MaxFev      int     `yaml:"max_fev,omitempty" json:"max_fev,omitempty"`
	FTol        float64 `yaml:"ftol,omitempty" json:"ftol,omitempty"`
	XTol        float64 `yaml:"xtol,omitempty" json:"xtol,omitempty"`
	GTol        float64 `yaml:"gtol,omitempty" json:"gtol,omitempty"`
	DiffStep    float64 `yaml:"diff_step,omitempty" json:"diff_step,omitempty"`
	BrutePoints int     `yaml:"brute_points,omitempty" json:"brute_points,omitempty"`
}

func (s Settings) withDefaults(n int) Settings {
	if s.MaxIter <= 0 {
		s.MaxIter = 1000
	}
	if s.MaxFev <= 0 {
		s.MaxFev = 2000 * (n + 1)
	}
	if s.FTol <= 0 {
		s.FTol = 1e-10
	}
	if s.XTol <= 0 {
		s.XTol = 1e-10
	}
	if s.GTol <= 0 {
		s.GTol = 1e-12
	}
	if s.DiffStep <= 0 {
		s.DiffStep = 1e-6
	}
	if s.BrutePoints <= 1 {
		s.BrutePoints = 20
	}
	return s
}

// Result is the outcome of a minimization. X, Residual and Jacobian are
// in external coordinates at the final point; Cost is ½‖r‖².
type Result struct {
	Method   string
	X        []float64
	Residual []float64
	Jacobian *mat.Dense
	Cost     float64
	NFev     int
	NIter    int
	Success  bool
	Message  string
}

type Method interface {
	Name() string
	Minimize(ctx context.Context, p Problem, s Settings) (*Result, error)
}

var methods = map[string]func() Method{
	"least_squares": func() Method { return &LevenbergMarquardt{name: "least_squares"} },
	"leastsq":       func() Method { return &LevenbergMarquardt{name: "leastsq"} },
	"nelder":        func() Method { return newNelderMead() },
	"lbfgsb":        func() Method { return newLBFGS("lbfgsb") },
	"lbfgs":         func() Method { return newLBFGS("lbfgs") },
	"bfgs":          func() Method { return newBFGS() },
	"cg":            func() Method { return newCG() },
	"brute":         func() Method { return &Brute{} },
}

// Lookup returns the method registered under name.
func Lookup(name string) (Method, error) {
	fn, ok := methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, name)
	}
	return fn(), nil
}

// Names lists the registered method names.
func Names() []string {
	names := make([]string, 0, len(methods))
	for n := range methods {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Minimize looks up method by name and runs it.
func Minimize(ctx context.Context, method string, p Problem, s Settings) (*Result, error) {
	m, err := Lookup(method)
	if err != nil {
		return nil, err
	}
	return m.Minimize(ctx, p, s)
}

func (p Problem) validate() error {
	n := len(p.X0)
	if p.Residual == nil {
		return fmt.Errorf("%w: nil residual", ErrBadProblem)
	}
	if n == 0 {
		return fmt.Errorf("%w: no free parameters", ErrBadProblem)
	}
	if p.Lower != nil && len(p.Lower) != n {
		return fmt.Errorf("%w: %d lower bounds for %d parameters", ErrBadProblem, len(p.Lower), n)
	}
	if p.Upper != nil && len(p.Upper) != n {
		return fmt.Errorf("%w: %d upper bounds for %d parameters", ErrBadProblem, len(p.Upper), n)
	}
	for i := 0; i < n; i++ {
		lo, hi := p.bounds(i)
		if lo > hi {
			return fmt.Errorf("%w: bounds [%g, %g] for parameter %d", ErrBadProblem, lo, hi, i)
		}
	}
	return nil
}
