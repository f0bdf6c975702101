// Package fit calibrates a kinetic model against measured tracer data.
//
// [Residual] is the quantity minimized: the model integrated from the
// first observed row and sampled at exactly the observed times, minus the
// observations. [Fit] builds the observed matrix from the raw tables,
// minimizes the residual with a named optimizer method, and re-simulates
// the fitted model on a uniform grid for reporting.
package fit
