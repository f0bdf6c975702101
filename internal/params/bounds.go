package params

import "math"

// Bound transforms map a bounded parameter onto an unbounded internal
// coordinate so that unconstrained minimizers respect the bounds (the
// MINUIT convention).

// ToInternal maps an external value to the optimizer's coordinate.
func (p Param) ToInternal(v float64) float64 {
	lo, hi := !math.IsInf(p.Min, -1), !math.IsInf(p.Max, 1)
	v = p.Clip(v)
	switch {
	case lo && hi:
		if p.Max == p.Min {
			return 0
		}
		return math.Asin(2*(v-p.Min)/(p.Max-p.Min) - 1)
	case lo:
		return math.Sqrt((v-p.Min+1)*(v-p.Min+1) - 1)
	case hi:
		return math.Sqrt((p.Max-v+1)*(p.Max-v+1) - 1)
	default:
		return v
	}
}

// FromInternal maps an optimizer coordinate back to an external value.
func (p Param) FromInternal(x float64) float64 {
	lo, hi := !math.IsInf(p.Min, -1), !math.IsInf(p.Max, 1)
	switch {
	case lo && hi:
		return p.Min + (math.Sin(x)+1)*(p.Max-p.Min)/2
	case lo:
		return p.Min - 1 + math.Sqrt(x*x+1)
	case hi:
		return p.Max + 1 - math.Sqrt(x*x+1)
	default:
		return x
	}
}
