package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for model evaluation, integration and fitting.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf components.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrMissingParameter indicates a rate constant absent from a parameter set.
	ErrMissingParameter = errors.New("dynamo: missing parameter")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrStepRejected indicates an adaptive step exceeded the error tolerance.
	ErrStepRejected = errors.New("dynamo: adaptive step rejected")

	// ErrDimensionMismatch indicates mismatched state/system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrShapeMismatch indicates a simulated trajectory that does not cover
	// the observed data matrix row for row.
	ErrShapeMismatch = errors.New("dynamo: simulated and observed shapes differ")

	// ErrEmptyTimeGrid indicates a time grid with no usable points.
	ErrEmptyTimeGrid = errors.New("dynamo: empty time grid")

	// ErrNonFinite indicates a residual or objective that is NaN or Inf.
	ErrNonFinite = errors.New("dynamo: non-finite value")
)

// SimulationError wraps an error with integration context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
