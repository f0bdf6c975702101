// Package dynamo provides the core primitives shared by the kinetic models,
// the integrators and the fitting pipeline.
//
// The package defines the fundamental interfaces and types for numerical
// simulation of ordinary differential equations (ODEs):
//
//   - [State]: ordered vector of concentration-like scalars
//   - [System]: interface for ODE right-hand sides (dX/dt = f(X, t))
//   - [Integrator]: fixed-step numerical integrator
//   - [AdaptiveIntegrator]: error-controlled integrator
//   - [Trajectory]: states sampled at requested time points
//
// # Example
//
//	net, _ := kinetics.Lookup("acetylcoa")
//	sys, _ := net.Bind(p)
//	traj, _ := integrators.SolveIVP(sys, [2]float64{0, 10}, x0, grid, integrators.Options{})
//
// # State Order
//
// The order of a [State] is a contract between a model and its caller:
// initial conditions must be supplied, and outputs interpreted, in the order
// reported by the model's state names.
package dynamo
