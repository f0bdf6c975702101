package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// GridSearch evaluates an objective at every point of a Cartesian grid.
type GridSearch struct {
	ranges [][]float64
}

func NewGridSearch(ranges [][]float64) *GridSearch {
	return &GridSearch{ranges: ranges}
}

// Linspace returns n evenly spaced points on [lo, hi].
func Linspace(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	pts := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range pts {
		pts[i] = lo + float64(i)*step
	}
	pts[n-1] = hi
	return pts
}

// Search returns the grid point with the lowest objective value and the
// number of points evaluated. Points whose objective fails are skipped.
func (g *GridSearch) Search(
	ctx context.Context,
	objective func(x []float64) (float64, error),
) ([]float64, float64, int, error) {
	best := math.Inf(1)
	var bestX []float64
	evaluated := 0

	err := g.searchRecursive(ctx, 0, make([]float64, len(g.ranges)), objective, &best, &bestX, &evaluated)
	if err != nil {
		return nil, 0, evaluated, err
	}
	return bestX, best, evaluated, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current []float64,
	objective func([]float64) (float64, error),
	best *float64,
	bestX *[]float64,
	evaluated *int,
) error {
	if depth == len(g.ranges) {
		if err := ctx.Err(); err != nil {
			return err
		}
		*evaluated++
		val, err := objective(current)
		if err != nil {
			return nil
		}
		if val < *best {
			*best = val
			*bestX = append([]float64(nil), current...)
		}
		return nil
	}

	for _, val := range g.ranges[depth] {
		current[depth] = val
		if err := g.searchRecursive(ctx, depth+1, current, objective, best, bestX, evaluated); err != nil {
			return err
		}
	}
	return nil
}

// Brute is an exhaustive grid search over the bounds, BrutePoints points
// per parameter.
type Brute struct{}

func (b *Brute) Name() string { return "brute" }

func (b *Brute) Minimize(ctx context.Context, p Problem, s Settings) (*Result, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	n := len(p.X0)
	s = s.withDefaults(n)

	ranges := make([][]float64, n)
	for i := range ranges {
		lo, hi := p.bounds(i)
		if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			return nil, fmt.Errorf("%w: parameter %d has bounds [%g, %g]", ErrUnbounded, i, lo, hi)
		}
		ranges[i] = Linspace(lo, hi, s.BrutePoints)
	}

	e := &evaluator{fn: p.Residual}
	grid := NewGridSearch(ranges)
	bestX, _, evaluated, err := grid.Search(ctx, func(x []float64) (float64, error) {
		r, err := e.residual(x)
		if err != nil {
			return 0, err
		}
		return cost(r), nil
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Method: b.Name(), NIter: evaluated}
	if bestX == nil {
		res.Message = "no grid point could be evaluated"
		return res, nil
	}
	res.Success = true
	res.Message = fmt.Sprintf("best of %d grid points", evaluated)

	if err := finish(p, e, res, bestX, s); err != nil {
		return nil, err
	}
	Logger.WithFields(logrus.Fields{
		"method": b.Name(),
		"points": evaluated,
		"cost":   res.Cost,
	}).Debug(res.Message)
	return res, nil
}
