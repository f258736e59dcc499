// Package opf formulates and solves per-step optimal power flow problems.
// A Formulator turns a network model, one profile step and the ramp anchor
// into a linear program; a Solver runs a backend on it and maps the outcome
// to an OPF status. The default backend is gonum's simplex implementation.
package opf
