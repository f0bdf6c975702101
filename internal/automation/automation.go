package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/acetylkin/internal/config"
	"github.com/san-kum/acetylkin/internal/dynamo"
	"github.com/san-kum/acetylkin/internal/experiment"
	"github.com/san-kum/acetylkin/internal/fit"
	"github.com/san-kum/acetylkin/internal/integrators"
	"github.com/san-kum/acetylkin/internal/measure"
	"github.com/san-kum/acetylkin/internal/optim"
	"github.com/san-kum/acetylkin/internal/params"
	"github.com/san-kum/acetylkin/internal/storage"
)

var Logger logrus.FieldLogger = logrus.StandardLogger()

// Scenario fits a sequence of conditions against one pair of tables. Each
// step overrides the base config.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Base        config.Config  `yaml:"base"`
	Steps       []ScenarioStep `yaml:"steps"`
}

type ScenarioStep struct {
	Model   string     `yaml:"model,omitempty"`
	Method  string     `yaml:"method,omitempty"`
	Carrier string     `yaml:"carrier,omitempty"`
	Cells   string     `yaml:"cells,omitempty"`
	Uncorr  *bool      `yaml:"uncorr,omitempty"`
	Preset  string     `yaml:"preset,omitempty"`
	Params  params.Set `yaml:"params,omitempty"`
	Save    bool       `yaml:"save,omitempty"`
}

// StepResult is one fitted step. Err is set when the step failed and the
// scenario continued.
type StepResult struct {
	Step    int
	Config  *config.Config
	Outcome *fit.Outcome
	RunID   string
	Err     error
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	scenario := Scenario{Base: *config.DefaultConfig()}
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

func (s ScenarioStep) apply(base config.Config) (*config.Config, error) {
	cfg := base
	if s.Model != "" {
		cfg.Model = s.Model
		cfg.Params = nil
	}
	if s.Method != "" {
		cfg.Method = s.Method
	}
	if s.Carrier != "" {
		cfg.Carrier = s.Carrier
	}
	if s.Cells != "" {
		cfg.Cells = s.Cells
	}
	if s.Uncorr != nil {
		cfg.Uncorr = *s.Uncorr
	}
	if s.Preset != "" {
		p := config.GetPreset(cfg.Model, s.Preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %s for %s", s.Preset, cfg.Model)
		}
		cfg.Params = p
	}
	if len(s.Params) > 0 {
		cfg.Params = s.Params.Clone()
	}
	return &cfg, nil
}

// RunScenario fits every step in order. Tables are loaded once from the
// base config. A failing step is recorded and the next one runs; store may
// be nil.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, store *storage.Store) ([]StepResult, error) {
	var labels []measure.LabelRow
	var areas []measure.AreaRow
	var err error
	if scenario.Base.Data.Labels != "" {
		if labels, err = measure.LoadLabelCSV(scenario.Base.Data.Labels); err != nil {
			return nil, err
		}
	}
	if scenario.Base.Data.Areas != "" {
		if areas, err = measure.LoadAreaCSV(scenario.Base.Data.Areas); err != nil {
			return nil, err
		}
	}

	results := make([]StepResult, 0, len(scenario.Steps))
	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := StepResult{Step: i + 1}
		results = append(results, res)
		r := &results[len(results)-1]

		cfg, err := step.apply(scenario.Base)
		if err != nil {
			r.Err = err
			continue
		}
		r.Config = cfg

		log := Logger.WithFields(logrus.Fields{
			"step":      r.Step,
			"model":     cfg.Model,
			"condition": measure.Condition{Carrier: cfg.Carrier, Cells: cfg.Cells}.String(),
		})
		log.Infof("fitting step %d/%d", r.Step, len(scenario.Steps))

		exp := experiment.New(cfg, registry)
		if err := exp.Setup(); err != nil {
			r.Err = err
			log.WithError(err).Warn("step setup failed")
			continue
		}
		if cfg.Data.Matrix == "" {
			exp.SetTables(labels, areas)
		}

		out, err := exp.Fit(ctx)
		if err != nil {
			r.Err = err
			log.WithError(err).Warn("step failed")
			continue
		}
		r.Outcome = out

		if step.Save && store != nil {
			id, err := store.SaveFit(out, cfg.Solver)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", r.Step, err)
			}
			r.RunID = id
		}
	}

	return results, nil
}

// ParameterSweep profiles the fit cost over one parameter. With Refit the
// remaining free parameters are re-optimised at every value; otherwise
// they stay at their given values.
type ParameterSweep struct {
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Refit     bool
}

type SweepResult struct {
	ParamValue float64
	ChiSqr     float64
	Params     params.Set
	Err        error
}

// RunSweep evaluates the sweep against an already selected matrix.
// Values whose simulation fails carry Err and an infinite ChiSqr.
func RunSweep(ctx context.Context, req fit.Request, measured *measure.Matrix, sweep ParameterSweep) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}
	if _, ok := req.Params.Get(sweep.ParamName); !ok {
		return nil, fmt.Errorf("%w: %q", dynamo.ErrMissingParameter, sweep.ParamName)
	}
	if req.Model == nil {
		return nil, fit.ErrNoModel
	}

	if measured.Rows() == 0 {
		return nil, dynamo.ErrEmptyTimeGrid
	}
	cols, err := req.FitColumns()
	if err != nil {
		return nil, err
	}
	obs, err := measured.Select(cols...)
	if err != nil {
		return nil, err
	}
	solver := req.Solver
	if solver == (integrators.Options{}) {
		solver = fit.DefaultSolver()
	}

	values := optim.Linspace(sweep.ParamMin, sweep.ParamMax, sweep.NumSteps)
	results := make([]SweepResult, 0, len(values))
	for i, v := range values {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		p := req.Params.Clone()
		par := p[sweep.ParamName]
		par.Value, par.Init, par.Fixed = v, v, true
		p[sweep.ParamName] = par

		res := SweepResult{ParamValue: v, ChiSqr: math.Inf(1)}
		if sweep.Refit && len(p.FreeNames()) > 0 {
			step := req
			step.Params = p
			out, err := fit.FitMatrix(ctx, step, measured)
			if err != nil {
				res.Err = err
			} else {
				res.ChiSqr = out.Stats.ChiSqr
				res.Params = out.Params
			}
		} else {
			r, err := fit.Residual(p, req.Model, obs.Times, dynamo.State(obs.Row(0)), obs.Data, solver)
			if err != nil {
				res.Err = err
			} else {
				res.ChiSqr = floats.Dot(r, r)
				res.Params = p
				if math.IsNaN(res.ChiSqr) {
					res.Err = dynamo.ErrNonFinite
				}
			}
		}
		results = append(results, res)

		Logger.WithFields(logrus.Fields{
			"param":  sweep.ParamName,
			"value":  v,
			"chisqr": res.ChiSqr,
		}).Debugf("sweep %d/%d", i+1, len(values))
	}
	return results, nil
}

// BestSweep returns the index of the lowest finite ChiSqr, or -1.
func BestSweep(results []SweepResult) int {
	best := -1
	for i, r := range results {
		if r.Err != nil || math.IsInf(r.ChiSqr, 0) || math.IsNaN(r.ChiSqr) {
			continue
		}
		if best < 0 || r.ChiSqr < results[best].ChiSqr {
			best = i
		}
	}
	return best
}

// MonteCarloConfig perturbs every observed value with Gaussian noise of
// standard deviation Noise and refits, NumTrials times.
type MonteCarloConfig struct {
	NumTrials int
	Noise     float64
	Seed      int64
}

type MonteCarloResult struct {
	TrialID int
	Params  params.Set
	ChiSqr  float64
	Err     error
}

// ParamSummary is the spread of one parameter over successful trials.
type ParamSummary struct {
	Name   string
	Mean   float64
	StdDev float64
	N      int
}

func RunMonteCarlo(ctx context.Context, req fit.Request, measured *measure.Matrix, cfg MonteCarloConfig) ([]MonteCarloResult, error) {
	if cfg.NumTrials < 1 {
		return nil, fmt.Errorf("monte carlo needs at least one trial, got %d", cfg.NumTrials)
	}
	if measured.Rows() == 0 {
		return nil, dynamo.ErrEmptyTimeGrid
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	results := make([]MonteCarloResult, 0, cfg.NumTrials)
	for trial := 0; trial < cfg.NumTrials; trial++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		noisy := perturb(measured, cfg.Noise, rng)
		res := MonteCarloResult{TrialID: trial}
		out, err := fit.FitMatrix(ctx, req, noisy)
		if err != nil {
			res.Err = err
		} else {
			res.Params = out.Params
			res.ChiSqr = out.Stats.ChiSqr
		}
		results = append(results, res)

		if (trial+1)%10 == 0 {
			Logger.Infof("monte carlo: %d/%d trials complete", trial+1, cfg.NumTrials)
		}
	}
	return results, nil
}

// perturb copies m with noise added to every present value. Missing
// values stay missing and negative draws are clipped at zero.
func perturb(m *measure.Matrix, sigma float64, rng *rand.Rand) *measure.Matrix {
	out, _ := m.Select(m.Columns...)
	rows, cols := out.Data.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := out.Data.At(i, j)
			if math.IsNaN(v) {
				continue
			}
			out.Data.Set(i, j, math.Max(0, v+sigma*rng.NormFloat64()))
		}
	}
	return out
}

// MonteCarloStats summarises the fitted values of names over the
// successful trials.
func MonteCarloStats(results []MonteCarloResult, names []string) ([]ParamSummary, error) {
	summaries := make([]ParamSummary, 0, len(names))
	for _, name := range names {
		var values stats.Float64Data
		for _, r := range results {
			if r.Err != nil {
				continue
			}
			if v, err := r.Params.Value(name); err == nil {
				values = append(values, v)
			}
		}
		s := ParamSummary{Name: name, N: len(values)}
		if len(values) > 0 {
			mean, err := stats.Mean(values)
			if err != nil {
				return nil, err
			}
			sd, err := stats.StandardDeviationSample(values)
			if err != nil {
				sd = math.NaN()
			}
			s.Mean, s.StdDev = mean, sd
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}
