package opf

import (
	"context"
	"errors"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const defaultSolveTimeout = 30 * time.Second

// SimplexSolver solves dispatch problems with gonum's simplex
// implementation. The solve runs in its own goroutine so a wedged or
// slow factorization is bounded by the configured timeout instead of
// hanging the dispatch loop.
type SimplexSolver struct {
	Timeout time.Duration
}

// NewSimplexSolver returns a solver with the given timeout. A zero or
// negative timeout falls back to the default.
func NewSimplexSolver(timeout time.Duration) *SimplexSolver {
	if timeout <= 0 {
		timeout = defaultSolveTimeout
	}
	return &SimplexSolver{Timeout: timeout}
}

// runSimplex converts the general-form LP to standard form and runs the
// simplex. The original variables are reconstructed from the split
// positive/negative parts of the standard form.
func runSimplex(cost []float64, g *mat.Dense, h []float64, a *mat.Dense, b []float64) ([]float64, error) {
	nv := len(cost)
	cStd, aStd, bStd := lp.Convert(cost, g, h, a, b)
	_, sol, err := lp.Simplex(cStd, aStd, bStd, 1e-10, nil)
	if err != nil {
		return nil, err
	}
	x := make([]float64, nv)
	for i := range x {
		x[i] = sol[i] - sol[nv+i]
	}
	return x, nil
}

// lpSolve points to the function used to solve the LP. Tests override it
// to simulate solver failures and timeouts.
var lpSolve = runSimplex

type solveOut struct {
	x   []float64
	err error
}

// Solve implements Solver.
func (s *SimplexSolver) Solve(ctx context.Context, p *Problem) (Result, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultSolveTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan solveOut, 1)
	go func() {
		x, err := lpSolve(p.cost, p.g, p.h, p.a, p.b)
		ch <- solveOut{x: x, err: err}
	}()

	select {
	case <-ctx.Done():
		return Result{Status: StatusSolverError}, &SolverError{Cause: ctx.Err()}
	case out := <-ch:
		if out.err != nil {
			if errors.Is(out.err, lp.ErrInfeasible) {
				return Result{Status: StatusInfeasible}, ErrInfeasible
			}
			return Result{Status: StatusSolverError}, &SolverError{Cause: out.err}
		}
		return p.result(out.x), nil
	}
}
