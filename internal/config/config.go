package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/acetylkin/internal/dynamo"
	"github.com/san-kum/acetylkin/internal/fit"
	"github.com/san-kum/acetylkin/internal/integrators"
	"github.com/san-kum/acetylkin/internal/kinetics"
	"github.com/san-kum/acetylkin/internal/optim"
	"github.com/san-kum/acetylkin/internal/params"
	"github.com/san-kum/acetylkin/internal/sim"
)

const (
	DefaultModel    = kinetics.TwoSites
	DefaultPreset   = "default"
	DefaultDuration = 60.0
)

type Config struct {
	Model   string              `yaml:"model"`
	Method  string              `yaml:"method"`
	Carrier string              `yaml:"carrier"`
	Cells   string              `yaml:"cells"`
	Uncorr  bool                `yaml:"uncorr"`
	Columns []string            `yaml:"columns,omitempty"`
	Points  int                 `yaml:"points"`
	Data    DataConfig          `yaml:"data"`
	Solver  integrators.Options `yaml:"solver"`
	Optim   optim.Settings      `yaml:"optimizer"`
	Params  params.Set          `yaml:"params,omitempty"`
	Sim     SimConfig           `yaml:"simulate"`
}

// DataConfig points at the raw measurement tables.
type DataConfig struct {
	Labels string `yaml:"labels,omitempty"`
	Areas  string `yaml:"areas,omitempty"`
	// Matrix is an already aligned table as written by measure.WriteCSV.
	Matrix string `yaml:"matrix,omitempty"`
}

type SimConfig struct {
	Duration  float64   `yaml:"duration"`
	InitState []float64 `yaml:"init_state,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:   DefaultModel,
		Method:  fit.DefaultMethod,
		Carrier: fit.DefaultCarrier,
		Cells:   fit.DefaultCells,
		Points:  fit.DefaultPoints,
		Solver:  fit.DefaultSolver(),
		Sim:     SimConfig{Duration: DefaultDuration},
	}
}

// Load reads a YAML config over the defaults. Unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ResolveParams returns the configured parameters, or the model's default
// preset when none are given.
func (c *Config) ResolveParams() (params.Set, error) {
	if len(c.Params) > 0 {
		return c.Params.Clone(), nil
	}
	p := GetPreset(c.Model, DefaultPreset)
	if p == nil {
		return nil, fmt.Errorf("no parameters configured and no default preset for %s", c.Model)
	}
	return p, nil
}

// FitRequest maps the config onto a fit request. Tables are left to the
// caller.
func (c *Config) FitRequest(model kinetics.Model) (fit.Request, error) {
	p, err := c.ResolveParams()
	if err != nil {
		return fit.Request{}, err
	}
	return fit.Request{
		Model:   model,
		Params:  p,
		Carrier: c.Carrier,
		Cells:   c.Cells,
		Method:  c.Method,
		Uncorr:  c.Uncorr,
		Columns: c.Columns,
		Solver:  c.Solver,
		Optim:   c.Optim,
		Points:  c.Points,
	}, nil
}

// GetInitState returns the configured initial state, or one unit of
// non-acetylated peptide with an empty Acetyl-CoA pool.
func (c *Config) GetInitState(net *kinetics.Network) (dynamo.State, error) {
	dim := net.StateDim()
	if len(c.Sim.InitState) > 0 {
		if len(c.Sim.InitState) != dim {
			return nil, fmt.Errorf("%w: %s has %d states, init_state has %d",
				dynamo.ErrDimensionMismatch, net.Name(), dim, len(c.Sim.InitState))
		}
		return dynamo.State(c.Sim.InitState).Clone(), nil
	}

	x := make(dynamo.State, dim)
	if len(net.Sites) > 0 {
		off := 0
		if net.DynamicPool {
			off = 2
		}
		x[off] = 1
	}
	return x, nil
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Duration: c.Sim.Duration,
		Points:   c.Points,
		Solver:   c.Solver,
	}
}
