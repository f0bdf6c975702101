package metrics

import "github.com/san-kum/acetylkin/internal/dynamo"

// Admissible is how far below zero a concentration may dip before a
// sample counts as unphysical.
const Admissible = 1e-9

// Stability is the fraction of samples that are physically admissible:
// every concentration finite, no lower than -Admissible and no higher
// than ceiling.
type Stability struct {
	ceiling float64
	bad     int
	total   int
}

func NewStability(ceiling float64) *Stability {
	return &Stability{ceiling: ceiling}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) admissible(x dynamo.State) bool {
	if !x.IsValid() {
		return false
	}
	for _, c := range x {
		if c < -Admissible || c > s.ceiling {
			return false
		}
	}
	return true
}

func (s *Stability) Observe(x dynamo.State, t float64) {
	s.total++
	if !s.admissible(x) {
		s.bad++
	}
}

func (s *Stability) Value() float64 {
	if s.total == 0 {
		return 1
	}
	return float64(s.total-s.bad) / float64(s.total)
}

func (s *Stability) Reset() { s.bad, s.total = 0, 0 }

// Standard returns the metrics reported for every simulation of sys.
func Standard(sys dynamo.System) []dynamo.Metric {
	return []dynamo.Metric{
		NewPoolDrift(sys),
		NewMinConcentration(),
		NewStability(1e6),
	}
}
