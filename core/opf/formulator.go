package opf

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/gridchronics/core/model"
)

// Mode selects the power-flow approximation used for branch limits.
type Mode string

const (
	// ModeDC constrains branch flows through the linear PTDF model.
	ModeDC Mode = "dc"
	// ModeAC approximates AC operation on top of the DC model: demand is
	// inflated by the loss factor and branch limits derated by the same
	// amount to leave reactive headroom.
	ModeAC Mode = "ac"
)

// Config holds the formulation parameters fixed for a whole run.
type Config struct {
	Mode       Mode    `json:"mode"`
	Segments   int     `json:"segments"`    // piecewise segments for quadratic cost curves
	LossFactor float64 `json:"loss_factor"` // fraction of demand lost in transport, used by ModeAC
}

// BuildOptions carries the per-step inputs owned by the caller.
type BuildOptions struct {
	// Previous anchors the ramp bounds. A nil map leaves ramp bounds out
	// entirely, as for the first step of a horizon.
	Previous map[string]float64
	// RampFactor scales the ramp widths. Values <= 0 drop the ramp bounds.
	RampFactor float64
	// Shedding adds one penalized unserved-power variable per loaded
	// injection so a best-effort dispatch stays solvable.
	Shedding     bool
	SheddingCost float64
}

// Formulator builds per-step dispatch problems against one network model.
type Formulator struct {
	net  *model.NetworkModel
	cfg  Config
	flow *FlowModel
}

// NewFormulator validates the network and precomputes its flow model.
func NewFormulator(net *model.NetworkModel, cfg Config) (*Formulator, error) {
	if err := net.Validate(); err != nil {
		return nil, err
	}
	if len(net.Generators) == 0 {
		return nil, &model.ModelError{Ref: "network", Reason: "no dispatchable generators"}
	}
	switch cfg.Mode {
	case ModeDC, ModeAC:
	case "":
		cfg.Mode = ModeDC
	default:
		return nil, &model.ModelError{Ref: "config", Reason: fmt.Sprintf("unknown formulation mode %q", cfg.Mode)}
	}
	if cfg.Segments < 1 {
		cfg.Segments = 1
	}
	flow, err := NewFlowModel(net)
	if err != nil {
		return nil, err
	}
	return &Formulator{net: net, cfg: cfg, flow: flow}, nil
}

// StepFlows computes the branch flows a fixed dispatch produces against a
// profile step. Used when a held dispatch is carried forward.
func (f *Formulator) StepFlows(step model.ProfileStep, output map[string]float64) map[string]float64 {
	return f.flow.Flows(BusInjections(f.net, step, output))
}

// Build constructs the LP for one step. It is pure: no state is retained
// and the returned problem is independent of any later Build call.
func (f *Formulator) Build(step model.ProfileStep, opts BuildOptions) (*Problem, error) {
	for _, id := range sortedKeys(step) {
		if !f.net.HasInjection(id) {
			return nil, &model.ModelError{Ref: id, Reason: "profile references an unknown injection point"}
		}
	}

	p := &Problem{net: f.net, flow: f.flow, step: step}

	// Generator bounds, intersected with ramp bounds when anchored.
	nGen := len(f.net.Generators)
	p.lo = make([]float64, nGen)
	hi := make([]float64, nGen)
	for i, g := range f.net.Generators {
		lo, up := g.PMinMW, g.PMaxMW
		if opts.Previous != nil && opts.RampFactor > 0 {
			prev := opts.Previous[g.ID]
			lo = math.Max(lo, prev-opts.RampFactor*g.RampDownMW)
			up = math.Min(up, prev+opts.RampFactor*g.RampUpMW)
		}
		p.lo[i] = lo
		hi[i] = up
	}

	// Segment variables per generator.
	for i, g := range f.net.Generators {
		segs := 1
		if g.CostQuad != 0 {
			segs = f.cfg.Segments
		}
		width := (hi[i] - p.lo[i]) / float64(segs)
		for k := 0; k < segs; k++ {
			p.varGen = append(p.varGen, i)
			p.varCap = append(p.varCap, width)
			p.varBus = append(p.varBus, g.Bus)
			// Marginal cost of the segment at its midpoint.
			mid := p.lo[i] + (float64(k)+0.5)*width
			p.cost = append(p.cost, g.MarginalCost+2*g.CostQuad*mid)
		}
	}

	// Shedding variables, one per loaded injection point.
	if opts.Shedding {
		for _, inj := range f.net.Injections {
			v, ok := step[inj.ID]
			if !ok || v >= 0 {
				continue
			}
			p.varGen = append(p.varGen, -1)
			p.varCap = append(p.varCap, -v)
			p.varBus = append(p.varBus, inj.Bus)
			p.cost = append(p.cost, opts.SheddingCost)
			p.shed = append(p.shed, inj.ID)
		}
	}
	nv := len(p.cost)

	demand := -fixedInjectionSum(step)
	if f.cfg.Mode == ModeAC {
		demand *= 1 + f.cfg.LossFactor
	}

	// Inequalities: non-negativity, segment caps, then two rows per branch.
	nBranch := len(f.net.Branches)
	rows := 2*nv + 2*nBranch
	g := mat.NewDense(rows, nv, nil)
	h := make([]float64, rows)
	for v := 0; v < nv; v++ {
		g.Set(v, v, -1)
		h[v] = 0
		g.Set(nv+v, v, 1)
		h[nv+v] = p.varCap[v]
	}

	fixed := f.flow.Flows(BusInjections(f.net, step, nil))
	for l, br := range f.net.Branches {
		limit := br.LimitMW
		if f.cfg.Mode == ModeAC {
			limit *= 1 - f.cfg.LossFactor
		}
		base := fixed[br.ID]
		for i := range f.net.Generators {
			base += f.flow.Sensitivity(l, f.net.Generators[i].Bus) * p.lo[i]
		}
		up := 2*nv + 2*l
		dn := up + 1
		for v := 0; v < nv; v++ {
			coeff := f.flow.Sensitivity(l, p.varBus[v])
			g.Set(up, v, coeff)
			g.Set(dn, v, -coeff)
		}
		h[up] = limit - base
		h[dn] = limit + base
	}

	// Power balance: total output plus unserved power meets demand.
	a := mat.NewDense(1, nv, nil)
	for v := 0; v < nv; v++ {
		a.Set(0, v, 1)
	}
	rhs := demand
	for i := range f.net.Generators {
		rhs -= p.lo[i]
	}

	p.g, p.h = g, h
	p.a, p.b = a, []float64{rhs}
	return p, nil
}

// fixedInjectionSum totals the signed profile injections in key order so
// float accumulation stays reproducible.
func fixedInjectionSum(step model.ProfileStep) float64 {
	var sum float64
	for _, id := range sortedKeys(step) {
		sum += step[id]
	}
	return sum
}
