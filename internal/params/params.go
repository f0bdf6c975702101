// Package params holds named rate constants together with the metadata an
// optimizer needs: bounds and a fixed flag.
//
// A [Set] is a plain map and is copied with [Set.Clone] before every fit, so
// an optimizer only ever mutates its own copy.
package params

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/acetylkin/internal/dynamo"
)

var ErrOutOfBounds = errors.New("params: value outside bounds")

type Param struct {
	Name   string
	Value  float64
	Min    float64
	Max    float64
	Fixed  bool
	Init   float64
	Stderr float64
}

// New returns a free, unbounded parameter.
func New(name string, value float64) Param {
	return Param{Name: name, Value: value, Min: math.Inf(-1), Max: math.Inf(1), Init: value}
}

// Bounded returns a free parameter limited to [lo, hi].
func Bounded(name string, value, lo, hi float64) Param {
	p := New(name, value)
	p.Min, p.Max = lo, hi
	return p
}

// Clip returns v limited to the parameter bounds.
func (p Param) Clip(v float64) float64 {
	return math.Max(p.Min, math.Min(p.Max, v))
}

type Set map[string]Param

// NewSet builds a set from parameters keyed by their names.
func NewSet(ps ...Param) Set {
	s := make(Set, len(ps))
	for _, p := range ps {
		s.Add(p)
	}
	return s
}

// Add stores p under its name. Bounds are kept as given; use New for an
// unbounded parameter.
func (s Set) Add(p Param) {
	s[p.Name] = p
}

func (s Set) Clone() Set {
	c := make(Set, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

func (s Set) Get(name string) (Param, bool) {
	p, ok := s[name]
	return p, ok
}

// Value returns the current value of name, or ErrMissingParameter.
func (s Set) Value(name string) (float64, error) {
	p, ok := s[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", dynamo.ErrMissingParameter, name)
	}
	return p.Value, nil
}

// SetValue updates the value of an existing parameter.
func (s Set) SetValue(name string, v float64) error {
	p, ok := s[name]
	if !ok {
		return fmt.Errorf("%w: %q", dynamo.ErrMissingParameter, name)
	}
	p.Value = v
	s[name] = p
	return nil
}

func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FreeNames returns the sorted names of non-fixed parameters. This is the
// order of the optimizer's parameter vector.
func (s Set) FreeNames() []string {
	names := make([]string, 0, len(s))
	for name, p := range s {
		if !p.Fixed {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (s Set) Vector(names []string) []float64 {
	x := make([]float64, len(names))
	for i, name := range names {
		x[i] = s[name].Value
	}
	return x
}

// Update writes x back into the named parameters.
func (s Set) Update(names []string, x []float64) {
	for i, name := range names {
		p := s[name]
		p.Value = x[i]
		s[name] = p
	}
}

func (s Set) Bounds(names []string) (lower, upper []float64) {
	lower = make([]float64, len(names))
	upper = make([]float64, len(names))
	for i, name := range names {
		lower[i], upper[i] = s[name].Min, s[name].Max
	}
	return lower, upper
}

// Validate checks that every value lies within its bounds.
func (s Set) Validate() error {
	for _, name := range s.Names() {
		p := s[name]
		if p.Min > p.Max {
			return fmt.Errorf("%w: %s has min %g > max %g", ErrOutOfBounds, name, p.Min, p.Max)
		}
		if p.Value < p.Min || p.Value > p.Max {
			return fmt.Errorf("%w: %s=%g not in [%g, %g]", ErrOutOfBounds, name, p.Value, p.Min, p.Max)
		}
	}
	return nil
}

// Values returns a plain name → value map.
func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for name, p := range s {
		out[name] = p.Value
	}
	return out
}
