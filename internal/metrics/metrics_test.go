package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/acetylkin/internal/dynamo"
)

// pool conserves x[0] + x[1].
type pool struct{}

func (pool) StateDim() int                                 { return 2 }
func (pool) Derive(x dynamo.State, t float64) dynamo.State { return dynamo.State{-x[0], x[0]} }
func (pool) Conserved(x dynamo.State) float64              { return x[0] + x[1] }

type open struct{}

func (open) StateDim() int                                 { return 1 }
func (open) Derive(x dynamo.State, t float64) dynamo.State { return dynamo.State{1} }

func TestPoolDrift(t *testing.T) {
	m := NewPoolDrift(pool{})

	m.Observe(dynamo.State{1, 1}, 0)
	m.Observe(dynamo.State{0.5, 1.5}, 1)
	if m.Value() != 0 {
		t.Errorf("expected zero drift, got %v", m.Value())
	}

	m.Observe(dynamo.State{0.5, 1.6}, 2)
	if math.Abs(m.Value()-0.05) > 1e-12 {
		t.Errorf("expected drift 0.05, got %v", m.Value())
	}

	m.Observe(dynamo.State{0.5, 1.5}, 3)
	if math.Abs(m.Value()-0.05) > 1e-12 {
		t.Errorf("drift should keep its maximum, got %v", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
}

func TestPoolDriftWithoutConservedPool(t *testing.T) {
	m := NewPoolDrift(open{})
	m.Observe(dynamo.State{1}, 0)
	m.Observe(dynamo.State{5}, 1)
	if m.Value() != 0 {
		t.Errorf("expected zero for a system without a pool, got %v", m.Value())
	}
}

func TestMinConcentration(t *testing.T) {
	m := NewMinConcentration()
	if m.Value() != 0 {
		t.Error("expected zero before any sample")
	}

	m.Observe(dynamo.State{0.3, 0.2}, 0)
	m.Observe(dynamo.State{0.1, -1e-9}, 1)
	if m.Value() != -1e-9 {
		t.Errorf("expected -1e-9, got %v", m.Value())
	}

	m.Reset()
	m.Observe(dynamo.State{2}, 0)
	if m.Value() != 2 {
		t.Errorf("expected 2 after reset, got %v", m.Value())
	}
}

func TestStability(t *testing.T) {
	tests := []struct {
		name   string
		states []dynamo.State
		want   float64
	}{
		{"empty", nil, 1},
		{"bounded", []dynamo.State{{1, 2}, {3, 4}}, 1},
		{"one blowup", []dynamo.State{{1, 2}, {1e9, 4}}, 0.5},
		{"nan", []dynamo.State{{math.NaN()}}, 0},
		{"negative", []dynamo.State{{1, 2}, {-0.1, 1}, {0, -1e-12}}, 2.0 / 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStability(100)
			for i, x := range tt.states {
				m.Observe(x, float64(i))
			}
			if got := m.Value(); got != tt.want {
				t.Errorf("Value() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStandard(t *testing.T) {
	names := map[string]bool{}
	for _, m := range Standard(pool{}) {
		names[m.Name()] = true
	}
	for _, want := range []string{"pool_drift", "min_concentration", "stability"} {
		if !names[want] {
			t.Errorf("missing metric %s", want)
		}
	}
}
