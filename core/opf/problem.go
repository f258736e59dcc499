package opf

import (
	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/gridchronics/core/model"
)

// Problem is a single-step dispatch LP. It is built fresh for every time
// step and discarded after solving; nothing in it aliases controller state.
//
// Decision variables are one output segment per generator (several when a
// quadratic cost curve is linearized) plus, when shedding is enabled, one
// unserved-power variable per loaded injection point. All variables are
// expressed as non-negative offsets so the LP backend sees
//
//	minimize  c'x   s.t.  Gx <= h, Ax = b.
type Problem struct {
	net  *model.NetworkModel
	flow *FlowModel
	step model.ProfileStep

	lo     []float64 // effective lower bound per generator
	varGen []int     // variable -> generator index, -1 for shedding vars
	varCap []float64
	varBus []string
	shed   []string // injection IDs carrying a shedding variable

	cost []float64
	g    *mat.Dense
	h    []float64
	a    *mat.Dense
	b    []float64
}

// NumVars returns the number of decision variables.
func (p *Problem) NumVars() int { return len(p.cost) }

// result maps a raw solution vector back to the dispatch domain. Outputs
// are snapped onto their bounds to strip solver round-off.
func (p *Problem) result(x []float64) Result {
	const snap = 1e-9

	output := make(map[string]float64, len(p.net.Generators))
	for i, g := range p.net.Generators {
		output[g.ID] = p.lo[i]
	}
	var unserved float64
	shedAt := make(map[string]float64)
	for v, gi := range p.varGen {
		val := x[v]
		if val < 0 {
			val = 0
		}
		if val > p.varCap[v] {
			val = p.varCap[v]
		}
		if gi >= 0 {
			output[p.net.Generators[gi].ID] += val
			continue
		}
		unserved += val
		shedAt[p.varBus[v]] += val
	}
	for i, g := range p.net.Generators {
		if out := output[g.ID]; out-p.lo[i] < snap {
			output[g.ID] = p.lo[i]
		}
	}

	inj := BusInjections(p.net, p.step, output)
	for bus, u := range shedAt {
		inj[bus] += u
	}
	return Result{
		Status:     StatusOptimal,
		Output:     output,
		Flows:      p.flow.Flows(inj),
		Cost:       DispatchCost(p.net, output),
		UnservedMW: unserved,
	}
}
