package dynamo

import (
	"gonum.org/v1/gonum/mat"
)

// Status reports whether an integration reached the end of its span.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailed
)

func (s Status) String() string {
	if s == StatusSuccess {
		return "success"
	}
	return "failed"
}

// Trajectory holds states sampled at the requested evaluation times. A
// failed integration keeps the samples it reached before stopping.
type Trajectory struct {
	Times    []float64
	States   []State
	Status   Status
	Message  string
	NFev     int
	Steps    int
	Rejected int
}

func (tr *Trajectory) Len() int { return len(tr.Times) }

func (tr *Trajectory) Success() bool { return tr.Status == StatusSuccess }

// Dim returns the state dimension, or 0 for an empty trajectory.
func (tr *Trajectory) Dim() int {
	if len(tr.States) == 0 {
		return 0
	}
	return len(tr.States[0])
}

// Column returns the time series of state component i.
func (tr *Trajectory) Column(i int) []float64 {
	col := make([]float64, len(tr.States))
	for r, s := range tr.States {
		col[r] = s[i]
	}
	return col
}

// Matrix returns the samples as a (time × state) matrix, or nil when the
// trajectory is empty.
func (tr *Trajectory) Matrix() *mat.Dense {
	rows, cols := tr.Len(), tr.Dim()
	if rows == 0 || cols == 0 {
		return nil
	}
	m := mat.NewDense(rows, cols, nil)
	for r, s := range tr.States {
		m.SetRow(r, s)
	}
	return m
}
