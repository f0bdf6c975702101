// Package analysis characterises a kinetic model around a parameter set.
//
//   - [Sensitivity]: local trajectory sensitivity to each free rate
//     constant, from paired forward runs
//   - [SteadyStateScan]: the analytical fixed point as one rate constant
//     is swept
//
// Both work on bound [kinetics.Model] values and never modify the
// parameter set they are given.
//
//	res, err := analysis.Sensitivity(model, p, x0, grid, opts, 1e-4)
//	for _, name := range res.Params {
//	    fmt.Println(name, res.Score(name))
//	}
package analysis
