package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/acetylkin/internal/fit"
	"github.com/san-kum/acetylkin/internal/integrators"
	"github.com/san-kum/acetylkin/internal/measure"
	"github.com/san-kum/acetylkin/internal/params"
	"github.com/san-kum/acetylkin/internal/sim"
)

const (
	KindFit      = "fit"
	KindSimulate = "simulate"

	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
	measuredFile   = "measured.csv"
	reportFile     = "report.txt"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

// FitSummary is the JSON-safe part of fit.Stats. Non-finite figures are
// stored as null.
type FitSummary struct {
	Success      bool              `json:"success"`
	Message      string            `json:"message,omitempty"`
	NFev         int               `json:"nfev"`
	NData        int               `json:"ndata"`
	NVarys       int               `json:"nvarys"`
	ChiSqr       *float64          `json:"chisqr"`
	RedChi       *float64          `json:"redchi"`
	AIC          *float64          `json:"aic"`
	BIC          *float64          `json:"bic"`
	RSquared     *float64          `json:"rsquared"`
	Correlations []fit.Correlation `json:"correlations,omitempty"`
}

type RunMetadata struct {
	ID        string              `json:"id"`
	Kind      string              `json:"kind"`
	Model     string              `json:"model"`
	Timestamp time.Time           `json:"timestamp"`
	Condition string              `json:"condition,omitempty"`
	Method    string              `json:"method,omitempty"`
	Columns   []string            `json:"columns"`
	Solver    integrators.Options `json:"solver"`
	Params    params.Set          `json:"params"`
	Fit       *FitSummary         `json:"fit,omitempty"`
	Metrics   map[string]*float64 `json:"metrics,omitempty"`
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func newRunID(model string) string {
	return fmt.Sprintf("%s_%s", model, strings.SplitN(uuid.NewString(), "-", 2)[0])
}

// SaveFit stores a finished fit: metadata, the fitted trajectory, the
// measured table it was fitted against and the text report.
func (s *Store) SaveFit(out *fit.Outcome, solver integrators.Options) (string, error) {
	st := out.Stats
	meta := RunMetadata{
		Kind:      KindFit,
		Model:     out.Model,
		Condition: out.Condition.String(),
		Method:    out.Method,
		Columns:   out.Measured.Columns,
		Solver:    solver,
		Params:    out.Params,
		Fit: &FitSummary{
			Success:      st.Success,
			Message:      st.Message,
			NFev:         st.NFev,
			NData:        st.NData,
			NVarys:       st.NVarys,
			ChiSqr:       finite(st.ChiSqr),
			RedChi:       finite(st.RedChi),
			AIC:          finite(st.AIC),
			BIC:          finite(st.BIC),
			RSquared:     finite(st.RSquared),
			Correlations: st.Correlations,
		},
	}

	files := map[string]*measure.Matrix{measuredFile: out.Measured}
	if out.Trajectory.Len() > 0 {
		files[trajectoryFile] = out.Table()
	}
	return s.save(meta, files, out.Report())
}

// SaveSimulation stores a forward simulation with its metrics.
func (s *Store) SaveSimulation(res *sim.Result, p params.Set, cfg sim.Config) (string, error) {
	meta := RunMetadata{
		Kind:    KindSimulate,
		Model:   res.Model,
		Columns: res.StateNames,
		Solver:  cfg.Solver,
		Params:  p,
		Metrics: make(map[string]*float64, len(res.Metrics)),
	}
	for name, v := range res.Metrics {
		meta.Metrics[name] = finite(v)
	}

	files := map[string]*measure.Matrix{}
	if data := res.Trajectory.Matrix(); data != nil {
		files[trajectoryFile] = &measure.Matrix{
			Times:   res.Trajectory.Times,
			Columns: res.StateNames,
			Data:    data,
		}
	}
	return s.save(meta, files, "")
}

func (s *Store) save(meta RunMetadata, tables map[string]*measure.Matrix, report string) (string, error) {
	meta.ID = newRunID(meta.Model)
	meta.Timestamp = time.Now()
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	for name, m := range tables {
		if err := writeMatrix(filepath.Join(runDir, name), m); err != nil {
			return "", err
		}
	}

	if report != "" {
		if err := os.WriteFile(filepath.Join(runDir, reportFile), []byte(report), 0644); err != nil {
			return "", err
		}
	}

	return meta.ID, nil
}

func writeMatrix(path string, m *measure.Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := measure.WriteCSV(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) readMatrix(runID, name string) (*measure.Matrix, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrRunNotFound, runID, name)
		}
		return nil, err
	}
	defer f.Close()
	return measure.ReadCSV(f)
}

// LoadTrajectory returns the fitted or simulated trajectory of a run.
func (s *Store) LoadTrajectory(runID string) (*measure.Matrix, error) {
	return s.readMatrix(runID, trajectoryFile)
}

// LoadMeasured returns the observations a fit run was fitted against.
func (s *Store) LoadMeasured(runID string) (*measure.Matrix, error) {
	return s.readMatrix(runID, measuredFile)
}

func (s *Store) LoadReport(runID string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, reportFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s has no report", ErrRunNotFound, runID)
		}
		return "", err
	}
	return string(data), nil
}
