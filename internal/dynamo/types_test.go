package dynamo

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"zeros", State{0.0, 0.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Sum(t *testing.T) {
	tests := []struct {
		state State
		want  float64
	}{
		{State{}, 0},
		{State{1, 2, 3}, 6},
		{State{0.25, -0.25}, 0},
	}
	for _, tt := range tests {
		if got := tt.state.Sum(); got != tt.want {
			t.Errorf("Sum(%v) = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestState_CloneIsIndependent(t *testing.T) {
	src := State{1, 2, 3}
	c := src.Clone()
	c[0] = 99
	if src[0] == 99 {
		t.Error("Clone did not create independent copy")
	}
}

func TestTrajectoryMatrix(t *testing.T) {
	tr := &Trajectory{
		Times:  []float64{0, 1, 2},
		States: []State{{1, 10}, {2, 20}, {3, 30}},
	}

	m := tr.Matrix()
	r, c := m.Dims()
	if r != 3 || c != 2 {
		t.Fatalf("expected 3x2 matrix, got %dx%d", r, c)
	}
	if m.At(2, 1) != 30 {
		t.Errorf("expected 30 at (2,1), got %f", m.At(2, 1))
	}

	col := tr.Column(0)
	if col[0] != 1 || col[1] != 2 || col[2] != 3 {
		t.Errorf("Column(0) = %v", col)
	}

	empty := &Trajectory{}
	if empty.Matrix() != nil {
		t.Error("expected nil matrix for empty trajectory")
	}
	if empty.Dim() != 0 {
		t.Errorf("expected dim 0, got %d", empty.Dim())
	}
}

func TestSimulationErrorUnwrap(t *testing.T) {
	err := &SimulationError{Step: 150, Time: 1.5, Wrapped: ErrStepTooSmall}
	if !errors.Is(err, ErrStepTooSmall) {
		t.Error("expected SimulationError to unwrap to ErrStepTooSmall")
	}
	expected := fmt.Sprintf("step 150 (t=1.5000): %v", ErrStepTooSmall)
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}
