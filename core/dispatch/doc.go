// Package dispatch drives the rolling per-step dispatch loop. The
// controller owns the state carried between steps (previous committed
// outputs, relaxation counters), formulates and solves one OPF per step,
// applies the relaxation and failure policies, and stitches the committed
// steps into a chronic.
package dispatch
