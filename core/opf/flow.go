package opf

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/gridchronics/core/model"
)

// FlowModel computes DC branch flows from bus injections through a PTDF
// matrix. The first bus of the network acts as the slack; the matrix is
// built once per run and shared by all formulations.
type FlowModel struct {
	net    *model.NetworkModel
	busIdx map[string]int
	ptdf   *mat.Dense // nBranches x nBuses, slack column stays zero
}

// NewFlowModel factorizes the reduced susceptance matrix of the network.
// A singular matrix means the grid is islanded and is reported as a model
// error.
func NewFlowModel(net *model.NetworkModel) (*FlowModel, error) {
	n := len(net.Buses)
	busIdx := make(map[string]int, n)
	for i, b := range net.Buses {
		busIdx[b.ID] = i
	}
	f := &FlowModel{net: net, busIdx: busIdx}
	m := len(net.Branches)
	if m == 0 || n < 2 {
		return f, nil
	}

	red := mat.NewDense(n-1, n-1, nil)
	for _, br := range net.Branches {
		b := 1 / br.Reactance
		fi := busIdx[br.From]
		ti := busIdx[br.To]
		if fi > 0 {
			red.Set(fi-1, fi-1, red.At(fi-1, fi-1)+b)
		}
		if ti > 0 {
			red.Set(ti-1, ti-1, red.At(ti-1, ti-1)+b)
		}
		if fi > 0 && ti > 0 {
			red.Set(fi-1, ti-1, red.At(fi-1, ti-1)-b)
			red.Set(ti-1, fi-1, red.At(ti-1, fi-1)-b)
		}
	}
	var inv mat.Dense
	if err := inv.Inverse(red); err != nil {
		return nil, &model.ModelError{Ref: "network", Reason: "singular susceptance matrix, grid has isolated buses"}
	}

	ptdf := mat.NewDense(m, n, nil)
	for l, br := range net.Branches {
		b := 1 / br.Reactance
		fi := busIdx[br.From]
		ti := busIdx[br.To]
		for j := 1; j < n; j++ {
			var xf, xt float64
			if fi > 0 {
				xf = inv.At(fi-1, j-1)
			}
			if ti > 0 {
				xt = inv.At(ti-1, j-1)
			}
			ptdf.Set(l, j, b*(xf-xt))
		}
	}
	f.ptdf = ptdf
	return f, nil
}

// Sensitivity returns the flow induced on the l-th branch by one MW
// injected at the given bus and withdrawn at the slack.
func (f *FlowModel) Sensitivity(l int, bus string) float64 {
	if f.ptdf == nil {
		return 0
	}
	j, ok := f.busIdx[bus]
	if !ok {
		return 0
	}
	return f.ptdf.At(l, j)
}

// Flows computes every branch flow for the given bus injection vector.
// Keys are iterated in sorted order so results are reproducible bit for bit.
func (f *FlowModel) Flows(busInjections map[string]float64) map[string]float64 {
	flows := make(map[string]float64, len(f.net.Branches))
	buses := sortedKeys(busInjections)
	for l, br := range f.net.Branches {
		var fl float64
		for _, bus := range buses {
			fl += f.Sensitivity(l, bus) * busInjections[bus]
		}
		flows[br.ID] = fl
	}
	return flows
}

// BusInjections aggregates a profile step and a dispatch vector into net
// per-bus injections.
func BusInjections(net *model.NetworkModel, step model.ProfileStep, output map[string]float64) map[string]float64 {
	inj := make(map[string]float64, len(net.Buses))
	for _, b := range net.Buses {
		inj[b.ID] = 0
	}
	for _, p := range net.Injections {
		if v, ok := step[p.ID]; ok {
			inj[p.Bus] += v
		}
	}
	for _, g := range net.Generators {
		if v, ok := output[g.ID]; ok {
			inj[g.Bus] += v
		}
	}
	return inj
}

// DispatchCost evaluates the cost curves of the network on a dispatch
// vector.
func DispatchCost(net *model.NetworkModel, output map[string]float64) float64 {
	var cost float64
	for _, g := range net.Generators {
		p := output[g.ID]
		cost += g.MarginalCost*p + g.CostQuad*p*p
	}
	return cost
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
