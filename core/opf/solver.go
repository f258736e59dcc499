package opf

import "context"

// Status classifies the outcome of a solve.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusSolverError
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusSolverError:
		return "solver_error"
	default:
		return "unknown"
	}
}

// Result carries a solved dispatch. Output and Flows are only populated
// when Status is StatusOptimal.
type Result struct {
	Status     Status
	Output     map[string]float64
	Flows      map[string]float64
	Cost       float64
	UnservedMW float64
}

// Solver runs a numerical backend on a formulated problem. Implementations
// must be solver-agnostic at this boundary: a proven-infeasible problem
// yields ErrInfeasible, any numerical failure or timeout a *SolverError.
// Retry policy belongs to the caller, never to the adapter.
type Solver interface {
	Solve(ctx context.Context, p *Problem) (Result, error)
}
