package kinetics

import (
	"errors"
	"fmt"

	"github.com/san-kum/acetylkin/internal/dynamo"
	"github.com/san-kum/acetylkin/internal/params"
)

const (
	ParamProduction        = "k0"
	ParamLabeledProduction = "k1"
	ParamDecay             = "k_de"
)

var ErrNoSteadyState = errors.New("kinetics: steady state undefined for zero decay or dissociation rate")

// Model is the calling convention shared by every kinetic model: a named
// state layout, the rate constants it reads, and a binding step that
// resolves those constants into an ODE system.
type Model interface {
	Name() string
	StateNames() []string
	ParamNames() []string
	Bind(p params.Set) (dynamo.System, error)
}

// Site is one reversible binding reaction between the non-acetylated
// peptide pool and Acetyl-CoA.
type Site struct {
	Name         string
	Association  string
	Dissociation string
}

type Network struct {
	Label string
	Sites []Site
	// DynamicPool simulates Ac and L-Ac; otherwise FixedAc and
	// FixedLabeledAc drive the binding reactions.
	DynamicPool    bool
	FixedAc        float64
	FixedLabeledAc float64
}

func (n *Network) Name() string { return n.Label }

func (n *Network) StateDim() int {
	dim := 0
	if n.DynamicPool {
		dim += 2
	}
	if len(n.Sites) > 0 {
		dim += 1 + 2*len(n.Sites)
	}
	return dim
}

// peptideOffset is the index of non-Ac in the state vector.
func (n *Network) peptideOffset() int {
	if n.DynamicPool {
		return 2
	}
	return 0
}

func (n *Network) StateNames() []string {
	names := make([]string, 0, n.StateDim())
	if n.DynamicPool {
		names = append(names, "Ac", "L-Ac")
	}
	if len(n.Sites) == 0 {
		return names
	}
	names = append(names, "non-Ac")
	for _, isotope := range []string{"Ac12", "Ac13"} {
		for _, s := range n.Sites {
			if len(n.Sites) == 1 {
				names = append(names, isotope)
			} else {
				names = append(names, isotope+"-"+s.Name)
			}
		}
	}
	return names
}

func (n *Network) ParamNames() []string {
	names := make([]string, 0, 3+2*len(n.Sites))
	if n.DynamicPool {
		names = append(names, ParamProduction, ParamLabeledProduction, ParamDecay)
	}
	for _, s := range n.Sites {
		names = append(names, s.Association, s.Dissociation)
	}
	return names
}

type rates struct {
	ka, kd float64
}

// Bound is a network with its rate constants resolved.
type Bound struct {
	net   *Network
	k0    float64
	k1    float64
	kde   float64
	sites []rates
}

// Bind resolves every rate constant the network reads from p.
func (n *Network) Bind(p params.Set) (dynamo.System, error) {
	return n.bind(p)
}

func (n *Network) bind(p params.Set) (*Bound, error) {
	b := &Bound{net: n, sites: make([]rates, len(n.Sites))}

	var err error
	if n.DynamicPool {
		if b.k0, err = p.Value(ParamProduction); err != nil {
			return nil, fmt.Errorf("%s: %w", n.Label, err)
		}
		if b.k1, err = p.Value(ParamLabeledProduction); err != nil {
			return nil, fmt.Errorf("%s: %w", n.Label, err)
		}
		if b.kde, err = p.Value(ParamDecay); err != nil {
			return nil, fmt.Errorf("%s: %w", n.Label, err)
		}
	}

	for i, s := range n.Sites {
		if b.sites[i].ka, err = p.Value(s.Association); err != nil {
			return nil, fmt.Errorf("%s: %w", n.Label, err)
		}
		if b.sites[i].kd, err = p.Value(s.Dissociation); err != nil {
			return nil, fmt.Errorf("%s: %w", n.Label, err)
		}
	}

	return b, nil
}

func (b *Bound) StateDim() int { return b.net.StateDim() }

// Derive evaluates the mass-action rates. t is unused by the mechanism.
func (b *Bound) Derive(x dynamo.State, t float64) dynamo.State {
	dx := make(dynamo.State, b.net.StateDim())

	ac, lac := b.net.FixedAc, b.net.FixedLabeledAc
	if b.net.DynamicPool {
		ac, lac = x[0], x[1]
		dx[0] = b.k0 - b.kde*ac
		dx[1] = b.k1 - b.kde*lac
	}

	n := len(b.sites)
	if n == 0 {
		return dx
	}

	off := b.net.peptideOffset()
	nonAc := x[off]
	release, kaSum := 0.0, 0.0
	for s, r := range b.sites {
		i12, i13 := off+1+s, off+1+n+s
		release += r.kd * (x[i12] + x[i13])
		kaSum += r.ka
		dx[i12] = r.ka*nonAc*ac - r.kd*x[i12]
		dx[i13] = r.ka*nonAc*lac - r.kd*x[i13]
	}
	dx[off] = release - kaSum*nonAc*(ac+lac)

	return dx
}

// Conserved returns the total peptide pool (non-Ac plus every bound
// species), which mass-action binding leaves unchanged.
func (b *Bound) Conserved(x dynamo.State) float64 {
	return b.net.TotalPeptide(x)
}

func (n *Network) TotalPeptide(x dynamo.State) float64 {
	if len(n.Sites) == 0 {
		return 0
	}
	off := n.peptideOffset()
	return x[off : off+1+2*len(n.Sites)].Sum()
}

// SteadyState returns the fixed point holding total peptide in the
// binding network. The Acetyl-CoA pool sits at k0/k_de and k1/k_de when
// simulated, or at the fixed levels otherwise.
func (n *Network) SteadyState(p params.Set, total float64) (dynamo.State, error) {
	b, err := n.bind(p)
	if err != nil {
		return nil, err
	}

	x := make(dynamo.State, n.StateDim())
	ac, lac := n.FixedAc, n.FixedLabeledAc
	if n.DynamicPool {
		if b.kde == 0 {
			return nil, ErrNoSteadyState
		}
		ac, lac = b.k0/b.kde, b.k1/b.kde
		x[0], x[1] = ac, lac
	}

	sites := len(b.sites)
	if sites == 0 {
		return x, nil
	}

	affinity := 0.0
	for _, r := range b.sites {
		if r.kd == 0 {
			return nil, ErrNoSteadyState
		}
		affinity += r.ka / r.kd
	}

	off := n.peptideOffset()
	nonAc := total / (1 + (ac+lac)*affinity)
	x[off] = nonAc
	for s, r := range b.sites {
		x[off+1+s] = r.ka * nonAc * ac / r.kd
		x[off+1+sites+s] = r.ka * nonAc * lac / r.kd
	}
	return x, nil
}

// Derivative evaluates model m at (t, y) with parameters p.
func Derivative(m Model, t float64, y dynamo.State, p params.Set) (dynamo.State, error) {
	sys, err := m.Bind(p)
	if err != nil {
		return nil, err
	}
	if len(y) != sys.StateDim() {
		return nil, fmt.Errorf("%w: %s expects %d states, got %d",
			dynamo.ErrDimensionMismatch, m.Name(), sys.StateDim(), len(y))
	}
	return sys.Derive(y, t), nil
}
