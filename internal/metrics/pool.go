package metrics

import (
	"math"

	"github.com/san-kum/acetylkin/internal/dynamo"
)

// PoolDrift tracks the largest relative change of a system's conserved
// pool (total peptide for the binding networks) from its first sample.
type PoolDrift struct {
	name        string
	initialPool float64
	maxDrift    float64
	samples     int
	dyn         dynamo.System
}

func NewPoolDrift(dyn dynamo.System) *PoolDrift {
	return &PoolDrift{
		name: "pool_drift",
		dyn:  dyn,
	}
}

func (p *PoolDrift) Name() string { return p.name }

func (p *PoolDrift) Observe(x dynamo.State, t float64) {
	c, ok := p.dyn.(dynamo.Conserved)
	if !ok {
		return
	}

	pool := c.Conserved(x)
	if p.samples == 0 {
		p.initialPool = pool
	}
	p.samples++

	if p.initialPool != 0 {
		drift := math.Abs(pool-p.initialPool) / math.Abs(p.initialPool)
		p.maxDrift = math.Max(p.maxDrift, drift)
	}
}

func (p *PoolDrift) Value() float64 {
	return p.maxDrift
}

func (p *PoolDrift) Reset() {
	p.initialPool = 0
	p.maxDrift = 0
	p.samples = 0
}

// MinConcentration records the smallest state component seen. Mass-action
// kinetics started from non-negative states should never go below zero.
type MinConcentration struct {
	name    string
	min     float64
	samples int
}

func NewMinConcentration() *MinConcentration {
	return &MinConcentration{name: "min_concentration", min: math.Inf(1)}
}

func (m *MinConcentration) Name() string { return m.name }

func (m *MinConcentration) Observe(x dynamo.State, t float64) {
	for _, v := range x {
		m.min = math.Min(m.min, v)
	}
	m.samples++
}

func (m *MinConcentration) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.min
}

func (m *MinConcentration) Reset() {
	m.min = math.Inf(1)
	m.samples = 0
}
