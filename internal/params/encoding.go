package params

import (
	"encoding/json"
	"math"

	"gopkg.in/yaml.v3"
)

// paramDoc is the on-disk form of a Param. Infinite bounds are omitted so
// that both YAML and JSON stay readable (JSON has no Inf).
type paramDoc struct {
	Name   string   `yaml:"-" json:"name"`
	Value  float64  `yaml:"value" json:"value"`
	Min    *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max    *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	Fixed  bool     `yaml:"fixed,omitempty" json:"fixed,omitempty"`
	Init   float64  `yaml:"-" json:"init"`
	Stderr float64  `yaml:"-" json:"stderr,omitempty"`
}

func finitePtr(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func (p Param) doc() paramDoc {
	return paramDoc{
		Name:   p.Name,
		Value:  p.Value,
		Min:    finitePtr(p.Min),
		Max:    finitePtr(p.Max),
		Fixed:  p.Fixed,
		Init:   p.Init,
		Stderr: p.Stderr,
	}
}

func (d paramDoc) param() Param {
	p := Param{
		Name:   d.Name,
		Value:  d.Value,
		Min:    math.Inf(-1),
		Max:    math.Inf(1),
		Fixed:  d.Fixed,
		Init:   d.Init,
		Stderr: d.Stderr,
	}
	if d.Min != nil {
		p.Min = *d.Min
	}
	if d.Max != nil {
		p.Max = *d.Max
	}
	return p
}

func (p Param) MarshalYAML() (interface{}, error) {
	return p.doc(), nil
}

// UnmarshalYAML accepts either a bare number or a mapping with value, min,
// max and fixed keys.
func (p *Param) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var v float64
		if err := node.Decode(&v); err != nil {
			return err
		}
		*p = New(p.Name, v)
		return nil
	}

	var d paramDoc
	if err := node.Decode(&d); err != nil {
		return err
	}
	d.Name = p.Name
	d.Init = d.Value
	*p = d.param()
	return nil
}

func (p Param) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.doc())
}

func (p *Param) UnmarshalJSON(data []byte) error {
	var d paramDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	*p = d.param()
	return nil
}

// UnmarshalYAML fills each parameter's name from its mapping key.
func (s *Set) UnmarshalYAML(node *yaml.Node) error {
	raw := make(map[string]Param)
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*s = make(Set, len(raw))
	for name, p := range raw {
		p.Name = name
		(*s)[name] = p
	}
	return nil
}

func (s *Set) UnmarshalJSON(data []byte) error {
	raw := make(map[string]Param)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = make(Set, len(raw))
	for name, p := range raw {
		p.Name = name
		(*s)[name] = p
	}
	return nil
}
