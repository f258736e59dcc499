package opf

import (
	"errors"
	"fmt"
)

// ErrInfeasible indicates the solver proved that no dispatch satisfies the
// current constraint set.
var ErrInfeasible = errors.New("opf: no feasible dispatch")

// SolverError wraps a numerical failure or timeout of the backend. It is
// distinct from ErrInfeasible: the problem may well have a solution.
type SolverError struct {
	Cause error
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("opf: solver failure: %v", e.Cause)
}

func (e *SolverError) Unwrap() error { return e.Cause }
