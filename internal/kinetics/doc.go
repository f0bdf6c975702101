// Package kinetics implements the isotope-tracer reaction networks for
// histone acetylation.
//
// A [Network] is declarative: a list of reversible binding sites on a
// histone peptide plus an Acetyl-CoA pool that is either simulated
// (production k0/k1, first-order decay k_de) or held at fixed levels. All
// rate laws are mass action: bimolecular association, unimolecular
// dissociation.
//
// Five configurations are provided as named presets:
//
//   - acetylcoa: [Ac, L-Ac]
//   - acetylation_1site_uncorr: [non-Ac, Ac12, Ac13]
//   - acetylation_1site: [Ac, L-Ac, non-Ac, Ac12, Ac13]
//   - acetylation_2sites_uncorr: [non-Ac, Ac12-site1, Ac12-site2, Ac13-site1, Ac13-site2]
//   - acetylation_2sites: [Ac, L-Ac, non-Ac, Ac12-site1, Ac12-site2, Ac13-site1, Ac13-site2]
//
// The "uncorr" variants treat the tracer pool as an external input
// (FixedAc, FixedLabeledAc) so the site kinetics can be fitted on their own.
//
// # Binding
//
// Rate constants are resolved once by [Network.Bind]. A parameter set that
// lacks a required key fails there with [dynamo.ErrMissingParameter]; the
// bound system's Derive never fails.
//
//	net, _ := kinetics.Lookup("acetylation_1site")
//	sys, err := net.Bind(p)
//	dx := sys.Derive(x, 0)
package kinetics
