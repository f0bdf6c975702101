package sim

import (
	"github.com/san-kum/acetylkin/internal/dynamo"
	"github.com/san-kum/acetylkin/internal/integrators"
)

type Config struct {
	Start    float64             `yaml:"start" json:"start"`
	Duration float64             `yaml:"duration" json:"duration"`
	Points   int                 `yaml:"points" json:"points"`
	Solver   integrators.Options `yaml:"solver" json:"solver"`
}

func DefaultConfig() Config {
	return Config{
		Duration: 60,
		Points:   100,
		Solver:   integrators.DefaultOptions(),
	}
}

type Result struct {
	Model      string
	StateNames []string
	Trajectory *dynamo.Trajectory
	Metrics    map[string]float64
}
