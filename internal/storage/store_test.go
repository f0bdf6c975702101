package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/acetylkin/internal/dynamo"
	"github.com/san-kum/acetylkin/internal/fit"
	"github.com/san-kum/acetylkin/internal/integrators"
	"github.com/san-kum/acetylkin/internal/measure"
	"github.com/san-kum/acetylkin/internal/params"
	"github.com/san-kum/acetylkin/internal/sim"
)

func fitOutcome() *fit.Outcome {
	p := params.NewSet(params.New("k0", 1.02), params.New("k1", 0.98), params.New("k_de", 0.1))
	kde := p["k_de"]
	kde.Fixed = true
	p["k_de"] = kde

	return &fit.Outcome{
		Model:     "acetylcoa",
		Condition: measure.Condition{Carrier: "DMSO", Cells: "TSCctrl"},
		Method:    "least_squares",
		Measured: &measure.Matrix{
			Times:   []float64{0, 1, 2},
			Columns: []string{"nolabel", "label"},
			Data:    mat.NewDense(3, 2, []float64{0, 0, 0.4, math.NaN(), 0.7, 0.6}),
		},
		Params: p,
		Result: nil,
		Stats: &fit.Stats{
			Method: "least_squares", Success: true, NFev: 40, NData: 5, NVarys: 2, NFree: 3,
			ChiSqr: 1e-4, RedChi: 3.3e-5, AIC: -50, BIC: -51, RSquared: math.NaN(),
			Correlations: []fit.Correlation{{A: "k0", B: "k1", R: 0.8}},
		},
		Trajectory: &dynamo.Trajectory{
			Times:  []float64{0, 1, 2},
			States: []dynamo.State{{0, 0}, {0.41, 0.39}, {0.69, 0.61}},
		},
	}
}

func TestStoreSaveLoadFit(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.SaveFit(fitOutcome(), integrators.DefaultOptions())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "acetylcoa_") {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Kind != KindFit || meta.Model != "acetylcoa" || meta.Condition != "DMSO/TSCctrl" {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Fit == nil || meta.Fit.ChiSqr == nil || *meta.Fit.ChiSqr != 1e-4 {
		t.Fatalf("fit summary not stored: %+v", meta.Fit)
	}
	if meta.Fit.RSquared != nil {
		t.Errorf("expected NaN rsquared stored as null, got %v", *meta.Fit.RSquared)
	}
	if k, ok := meta.Params.Get("k_de"); !ok || !k.Fixed || k.Name != "k_de" {
		t.Errorf("params not round-tripped: %+v", meta.Params)
	}
	if meta.Solver.Method != integrators.MethodRK45 {
		t.Errorf("expected solver RK45, got %q", meta.Solver.Method)
	}

	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		t.Fatalf("load trajectory failed: %v", err)
	}
	if traj.Rows() != 3 || traj.Data.At(2, 1) != 0.61 {
		t.Errorf("unexpected trajectory %v", traj.Data)
	}

	measured, err := st.LoadMeasured(runID)
	if err != nil {
		t.Fatalf("load measured failed: %v", err)
	}
	if !math.IsNaN(measured.Data.At(1, 1)) {
		t.Error("expected missing cell to survive storage")
	}

	report, err := st.LoadReport(runID)
	if err != nil {
		t.Fatalf("load report failed: %v", err)
	}
	if !strings.Contains(report, "[[Fit Statistics]]") {
		t.Errorf("unexpected report:\n%s", report)
	}
}

func TestStoreSaveSimulation(t *testing.T) {
	st := New(t.TempDir())
	res := &sim.Result{
		Model:      "acetylcoa",
		StateNames: []string{"Ac", "L-Ac"},
		Trajectory: &dynamo.Trajectory{
			Times:  []float64{0, 30, 60},
			States: []dynamo.State{{0, 0}, {1, 1}, {2, 2}},
		},
		Metrics: map[string]float64{"stability": 1, "pool_drift": math.NaN()},
	}
	p := params.NewSet(params.New("k0", 1), params.New("k1", 1), params.New("k_de", 0.1))

	runID, err := st.SaveSimulation(res, p, sim.DefaultConfig())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Kind != KindSimulate || meta.Fit != nil {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if v := meta.Metrics["stability"]; v == nil || *v != 1 {
		t.Errorf("expected stability 1, got %v", v)
	}
	if meta.Metrics["pool_drift"] != nil {
		t.Error("expected NaN metric stored as null")
	}

	if _, err := st.LoadReport(runID); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected no report, got %v", err)
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	first, _ := st.SaveFit(fitOutcome(), integrators.DefaultOptions())
	second, _ := st.SaveFit(fitOutcome(), integrators.DefaultOptions())
	if first == second {
		t.Fatal("run ids collide")
	}
	// stray directories are skipped
	os.MkdirAll(filepath.Join(tmpDir, "junk"), 0755)

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Timestamp.After(runs[1].Timestamp) {
		t.Error("runs not ordered by time")
	}
}

func TestStoreLoadMissing(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := st.LoadTrajectory("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.SaveFit(fitOutcome(), integrators.DefaultOptions())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{"metadata.json", "trajectory.csv", "measured.csv", "report.txt"} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestExport(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.SaveFit(fitOutcome(), integrators.DefaultOptions())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var buf bytes.Buffer
	if err := st.WriteJSON(&buf, runID); err != nil {
		t.Fatalf("write json failed: %v", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if doc["model"] != "acetylcoa" {
		t.Errorf("expected model acetylcoa, got %v", doc["model"])
	}
	measured := doc["measured"].(map[string]interface{})
	rows := measured["rows"].([]interface{})
	if rows[1].([]interface{})[1] != nil {
		t.Error("expected missing measured cell exported as null")
	}

	buf.Reset()
	if err := st.WriteCSV(&buf, runID); err != nil {
		t.Fatalf("write csv failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "time,nolabel,label\n") {
		t.Errorf("unexpected csv:\n%s", buf.String())
	}

	path := filepath.Join(t.TempDir(), "run.json")
	if err := st.ExportJSON(path, runID); err != nil {
		t.Fatalf("export json failed: %v", err)
	}
	path = filepath.Join(t.TempDir(), "run.csv")
	if err := st.ExportCSV(path, runID); err != nil {
		t.Fatalf("export csv failed: %v", err)
	}
}
