package kinetics

import (
	"fmt"
)

const (
	AcetylCoA      = "acetylcoa"
	OneSiteUncorr  = "acetylation_1site_uncorr"
	OneSite        = "acetylation_1site"
	TwoSitesUncorr = "acetylation_2sites_uncorr"
	TwoSites       = "acetylation_2sites"
)

// Fully labeled tracer: the pool an uncorrelated model assumes when
// Acetyl-CoA kinetics are not simulated.
const (
	DefaultFixedAc        = 0.0
	DefaultFixedLabeledAc = 1.0
)

var (
	site1 = Site{Name: "site1", Association: "k_a1", Dissociation: "k_d1"}
	site2 = Site{Name: "site2", Association: "k_a2", Dissociation: "k_d2"}
)

var presets = map[string]func() *Network{
	AcetylCoA: func() *Network {
		return &Network{Label: AcetylCoA, DynamicPool: true}
	},
	OneSiteUncorr: func() *Network {
		return &Network{
			Label:          OneSiteUncorr,
			Sites:          []Site{site1},
			FixedAc:        DefaultFixedAc,
			FixedLabeledAc: DefaultFixedLabeledAc,
		}
	},
	OneSite: func() *Network {
		return &Network{Label: OneSite, Sites: []Site{site1}, DynamicPool: true}
	},
	TwoSitesUncorr: func() *Network {
		return &Network{
			Label:          TwoSitesUncorr,
			Sites:          []Site{site1, site2},
			FixedAc:        DefaultFixedAc,
			FixedLabeledAc: DefaultFixedLabeledAc,
		}
	},
	TwoSites: func() *Network {
		return &Network{Label: TwoSites, Sites: []Site{site1, site2}, DynamicPool: true}
	},
}

// Presets lists the named networks in increasing scope.
func Presets() []string {
	return []string{AcetylCoA, OneSiteUncorr, OneSite, TwoSitesUncorr, TwoSites}
}

// Lookup returns a fresh copy of a named network.
func Lookup(name string) (*Network, error) {
	fn, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(), nil
}

// IsUncorrelated reports whether the network holds Acetyl-CoA fixed.
func (n *Network) IsUncorrelated() bool {
	return !n.DynamicPool && len(n.Sites) > 0
}
