package integrators

import (
	"testing"

	"github.com/san-kum/acetylkin/internal/dynamo"
)

// benchBinding is a two-site reversible binding network with a fixed
// donor pool, the shape of the uncorrelated acetylation models.
type benchBinding struct{}

func (b *benchBinding) StateDim() int { return 5 }
func (b *benchBinding) Derive(x dynamo.State, t float64) dynamo.State {
	const ka1, kd1, ka2, kd2 = 0.3, 0.1, 0.2, 0.05
	free := x[0]
	return dynamo.State{
		kd1*(x[1]+x[3]) + kd2*(x[2]+x[4]) - (ka1+ka2)*free,
		-kd1 * x[1],
		-kd2 * x[2],
		ka1*free - kd1*x[3],
		ka2*free - kd2*x[4],
	}
}

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	dyn := &benchBinding{}
	x := dynamo.State{1, 0, 0, 0, 0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01)
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	dyn := &benchBinding{}
	x := dynamo.State{1, 0, 0, 0, 0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01)
	}
}

func BenchmarkRK45(b *testing.B) {
	integrator := NewRK45()
	dyn := &benchBinding{}
	x := dynamo.State{1, 0, 0, 0, 0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01)
	}
}

func BenchmarkSolveIVP(b *testing.B) {
	dyn := &benchBinding{}
	x0 := dynamo.State{1, 0, 0, 0, 0}
	tEval := []float64{0, 1, 2, 5, 10, 20, 40, 60}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := SolveIVP(dyn, [2]float64{0, 60}, x0, tEval, Options{}); err != nil {
			b.Fatal(err)
		}
	}
}
