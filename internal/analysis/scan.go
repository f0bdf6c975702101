package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/acetylkin/internal/dynamo"
	"github.com/san-kum/acetylkin/internal/kinetics"
	"github.com/san-kum/acetylkin/internal/params"
)

// ScanPoint is the fixed point of the network at one value of the swept
// rate constant. Err is set when no fixed point exists there.
type ScanPoint struct {
	Param float64
	State dynamo.State
	Err   error
}

// SteadyStateScan sweeps name over steps evenly spaced values in
// [lo, hi] and records the network's steady state for a total peptide
// amount.
func SteadyStateScan(net *kinetics.Network, p params.Set, name string, lo, hi float64, steps int, total float64) ([]ScanPoint, error) {
	if _, ok := p.Get(name); !ok {
		return nil, fmt.Errorf("%w: %s", dynamo.ErrMissingParameter, name)
	}
	if steps < 2 {
		steps = 2
	}

	values := floats.Span(make([]float64, steps), lo, hi)
	work := p.Clone()
	points := make([]ScanPoint, 0, steps)
	for _, v := range values {
		par := work[name]
		par.Value = v
		work[name] = par

		x, err := net.SteadyState(work, total)
		points = append(points, ScanPoint{Param: v, State: x, Err: err})
	}
	return points, nil
}
