package config

import (
	"sort"

	"github.com/san-kum/acetylkin/internal/kinetics"
	"github.com/san-kum/acetylkin/internal/params"
)

const rateMax = 100.0

func rate(name string, v float64) params.Param {
	return params.Bounded(name, v, 0, rateMax)
}

func fixed(name string, v float64) params.Param {
	p := params.Bounded(name, v, 0, rateMax)
	p.Fixed = true
	return p
}

func pool(k0, k1, kde float64, fix bool) []params.Param {
	if fix {
		return []params.Param{fixed("k0", k0), fixed("k1", k1), fixed("k_de", kde)}
	}
	return []params.Param{rate("k0", k0), rate("k1", k1), rate("k_de", kde)}
}

func site1() []params.Param {
	return []params.Param{rate("k_a1", 0.1), rate("k_d1", 0.01)}
}

func site2() []params.Param {
	return []params.Param{rate("k_a2", 0.05), rate("k_d2", 0.02)}
}

func join(groups ...[]params.Param) params.Set {
	s := params.NewSet()
	for _, g := range groups {
		for _, p := range g {
			s.Add(p)
		}
	}
	return s
}

// Presets maps model → preset name → starting parameters. "fixed_pool"
// holds the Acetyl-CoA constants at values from a prior acetylcoa fit so
// only the binding sites vary.
var Presets = map[string]map[string]params.Set{
	kinetics.AcetylCoA: {
		"default": join(pool(0.5, 0.5, 0.5, false)),
		"slow":    join(pool(0.05, 0.05, 0.05, false)),
	},
	kinetics.OneSiteUncorr: {
		"default": join(site1()),
	},
	kinetics.OneSite: {
		"default":    join(pool(0.5, 0.5, 0.5, false), site1()),
		"fixed_pool": join(pool(0.5, 0.5, 0.5, true), site1()),
	},
	kinetics.TwoSitesUncorr: {
		"default": join(site1(), site2()),
	},
	kinetics.TwoSites: {
		"default":    join(pool(0.5, 0.5, 0.5, false), site1(), site2()),
		"fixed_pool": join(pool(0.5, 0.5, 0.5, true), site1(), site2()),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) params.Set {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	p, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return p.Clone()
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
