package automation

import (
	"context"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/acetylkin/internal/dynamo"
	"github.com/san-kum/acetylkin/internal/experiment"
	"github.com/san-kum/acetylkin/internal/fit"
	"github.com/san-kum/acetylkin/internal/integrators"
	"github.com/san-kum/acetylkin/internal/kinetics"
	"github.com/san-kum/acetylkin/internal/measure"
	"github.com/san-kum/acetylkin/internal/params"
	"github.com/san-kum/acetylkin/internal/storage"
)

var tight = integrators.Options{RTol: 1e-10, ATol: 1e-12}

func acetylcoa(t *testing.T) (*kinetics.Network, *measure.Matrix) {
	t.Helper()
	net, err := kinetics.Lookup(kinetics.AcetylCoA)
	require.NoError(t, err)
	sys, err := net.Bind(params.NewSet(params.New("k0", 1), params.New("k1", 1), params.New("k_de", 0.1)))
	require.NoError(t, err)

	times := optimTimes()
	traj, err := integrators.SolveIVP(sys, [2]float64{0, 10}, dynamo.State{0, 0}, times, tight)
	require.NoError(t, err)
	require.True(t, traj.Success())
	return net, &measure.Matrix{
		Times:   traj.Times,
		Columns: []string{measure.ColumnUnlabeled, measure.ColumnLabeled},
		Data:    traj.Matrix(),
	}
}

func optimTimes() []float64 {
	times := make([]float64, 20)
	for i := range times {
		times[i] = 10 * float64(i) / 19
	}
	return times
}

func request(net *kinetics.Network, k0, k1, kde float64) fit.Request {
	return fit.Request{
		Model:  net,
		Params: params.NewSet(params.New("k0", k0), params.New("k1", k1), params.New("k_de", kde)),
		Solver: tight,
	}
}

func TestRunSweep(t *testing.T) {
	net, measured := acetylcoa(t)
	sweep := ParameterSweep{ParamName: "k_de", ParamMin: 0.05, ParamMax: 0.15, NumSteps: 11}

	results, err := RunSweep(context.Background(), request(net, 1, 1, 0.5), measured, sweep)
	require.NoError(t, err)
	require.Len(t, results, 11)

	best := BestSweep(results)
	assert.Equal(t, 5, best)
	assert.InDelta(t, 0.1, results[best].ParamValue, 1e-12)
	assert.Less(t, results[best].ChiSqr, 1e-12)
	assert.Greater(t, results[0].ChiSqr, results[best].ChiSqr)
	assert.True(t, results[best].Params["k_de"].Fixed)
}

func TestRunSweepRefit(t *testing.T) {
	net, measured := acetylcoa(t)
	sweep := ParameterSweep{ParamName: "k_de", ParamMin: 0.08, ParamMax: 0.12, NumSteps: 3, Refit: true}

	results, err := RunSweep(context.Background(), request(net, 0.5, 0.5, 0.5), measured, sweep)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		require.NoError(t, r.Err)
	}

	best := BestSweep(results)
	assert.Equal(t, 1, best)
	assert.InDelta(t, 1, results[best].Params["k0"].Value, 1e-3)
	assert.Greater(t, results[0].ChiSqr, results[best].ChiSqr)
}

func TestRunSweepErrors(t *testing.T) {
	net, measured := acetylcoa(t)
	ctx := context.Background()

	_, err := RunSweep(ctx, request(net, 1, 1, 0.1), measured, ParameterSweep{ParamName: "k_a1", NumSteps: 3})
	assert.ErrorIs(t, err, dynamo.ErrMissingParameter)

	_, err = RunSweep(ctx, request(net, 1, 1, 0.1), measured, ParameterSweep{ParamName: "k0"})
	assert.Error(t, err)

	req := request(net, 1, 1, 0.1)
	req.Model = nil
	_, err = RunSweep(ctx, req, measured, ParameterSweep{ParamName: "k0", NumSteps: 2})
	assert.ErrorIs(t, err, fit.ErrNoModel)
}

func TestBestSweep(t *testing.T) {
	inf := math.Inf(1)
	tests := []struct {
		name    string
		results []SweepResult
		want    int
	}{
		{"empty", nil, -1},
		{"all failed", []SweepResult{{ChiSqr: inf}, {ChiSqr: math.NaN()}}, -1},
		{"skips errors", []SweepResult{{ChiSqr: 0, Err: dynamo.ErrNonFinite}, {ChiSqr: 2}, {ChiSqr: 1}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BestSweep(tt.results))
		})
	}
}

func TestRunMonteCarlo(t *testing.T) {
	net, measured := acetylcoa(t)
	cfg := MonteCarloConfig{NumTrials: 4, Noise: 1e-3, Seed: 3}

	results, err := RunMonteCarlo(context.Background(), request(net, 0.5, 0.5, 0.5), measured, cfg)
	require.NoError(t, err)
	require.Len(t, results, 4)

	summary, err := MonteCarloStats(results, []string{"k0", "k_de"})
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, 4, summary[0].N)
	assert.InDelta(t, 1, summary[0].Mean, 0.05)
	assert.InDelta(t, 0.1, summary[1].Mean, 0.01)
	assert.Less(t, summary[1].StdDev, 0.01)

	_, err = RunMonteCarlo(context.Background(), request(net, 1, 1, 0.1), measured, MonteCarloConfig{})
	assert.Error(t, err)
}

func TestPerturb(t *testing.T) {
	m := &measure.Matrix{
		Times:   []float64{0, 1},
		Columns: []string{"a", "b"},
		Data:    mat.NewDense(2, 2, []float64{0, math.NaN(), 0.5, 0.5}),
	}
	out := perturb(m, 0.1, rand.New(rand.NewSource(1)))

	assert.True(t, math.IsNaN(out.Data.At(0, 1)))
	assert.GreaterOrEqual(t, out.Data.At(0, 0), 0.0)
	assert.NotEqual(t, 0.5, out.Data.At(1, 0))
	assert.Equal(t, 0.5, m.Data.At(1, 0), "input must not change")
}

func TestScenario(t *testing.T) {
	_, measured := acetylcoa(t)
	dir := t.TempDir()

	matrixPath := filepath.Join(dir, "measured.csv")
	f, err := os.Create(matrixPath)
	require.NoError(t, err)
	require.NoError(t, measure.WriteCSV(f, measured))
	require.NoError(t, f.Close())

	doc := `name: pool
description: acetyl-coa pool in two configurations
base:
  model: acetylcoa
  data:
    matrix: ` + matrixPath + `
  solver:
    method: RK45
    rtol: 1.0e-10
    atol: 1.0e-12
    max_steps: 100000
steps:
  - save: true
  - preset: nonexistent
  - params:
      k0: 0.5
      k1: 0.5
      k_de: {value: 0.1, fixed: true}
`
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "pool", scenario.Name)
	assert.Equal(t, fit.DefaultCarrier, scenario.Base.Carrier)
	require.Len(t, scenario.Steps, 3)

	store := storage.New(filepath.Join(dir, "runs"))
	results, err := RunScenario(context.Background(), scenario, experiment.NewRegistry(), store)
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.NoError(t, results[0].Err)
	assert.InDelta(t, 0.1, results[0].Outcome.Params["k_de"].Value, 1e-4)
	assert.NotEmpty(t, results[0].RunID)
	_, err = store.Load(results[0].RunID)
	assert.NoError(t, err)

	assert.Error(t, results[1].Err)
	assert.Nil(t, results[1].Outcome)

	require.NoError(t, results[2].Err)
	assert.Equal(t, 2, results[2].Outcome.Stats.NVarys)
	assert.Empty(t, results[2].RunID)
}

func TestLoadScenario_NoSteps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: empty\n"), 0644))
	_, err := LoadScenario(path)
	assert.Error(t, err)
}
