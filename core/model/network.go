package model

import "fmt"

// Bus is a node of the transmission network.
type Bus struct {
	ID string `json:"id"`
}

// Branch connects two buses. Reactance is expressed in per-unit and
// LimitMW is the thermal limit of the line in either direction.
type Branch struct {
	ID        string  `json:"id"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Reactance float64 `json:"reactance"`
	LimitMW   float64 `json:"limit_mw"`
}

// Generator is a dispatchable unit. Ramp limits bound the output change
// between two consecutive steps. CostQuad is optional; when non-zero the
// cost curve is MarginalCost*p + CostQuad*p^2.
type Generator struct {
	ID           string  `json:"id"`
	Bus          string  `json:"bus"`
	PMinMW       float64 `json:"pmin_mw"`
	PMaxMW       float64 `json:"pmax_mw"`
	RampUpMW     float64 `json:"ramp_up_mw"`
	RampDownMW   float64 `json:"ramp_down_mw"`
	MarginalCost float64 `json:"marginal_cost"`
	CostQuad     float64 `json:"cost_quad"`
}

// Injection is a non-dispatchable injection point: a load or a renewable
// plant. Its per-step value comes from the profile source, negative for
// consumption and positive for production.
type Injection struct {
	ID  string `json:"id"`
	Bus string `json:"bus"`
}

// NetworkModel is the read-only grid description shared by all steps of a
// run. It must pass Validate before the first step is formulated.
type NetworkModel struct {
	Buses      []Bus       `json:"buses"`
	Branches   []Branch    `json:"branches"`
	Generators []Generator `json:"generators"`
	Injections []Injection `json:"injections"`
}

// Generator returns the generator with the given ID.
func (n *NetworkModel) Generator(id string) (Generator, bool) {
	for _, g := range n.Generators {
		if g.ID == id {
			return g, true
		}
	}
	return Generator{}, false
}

// Branch returns the branch with the given ID.
func (n *NetworkModel) Branch(id string) (Branch, bool) {
	for _, b := range n.Branches {
		if b.ID == id {
			return b, true
		}
	}
	return Branch{}, false
}

// HasInjection reports whether the network defines the injection point.
func (n *NetworkModel) HasInjection(id string) bool {
	for _, inj := range n.Injections {
		if inj.ID == id {
			return true
		}
	}
	return false
}

// Validate checks referential integrity and limit sanity. It returns a
// *ModelError describing the first inconsistency found.
func (n *NetworkModel) Validate() error {
	if len(n.Buses) == 0 {
		return &ModelError{Ref: "network", Reason: "no buses defined"}
	}
	buses := make(map[string]struct{}, len(n.Buses))
	for _, b := range n.Buses {
		if b.ID == "" {
			return &ModelError{Ref: "bus", Reason: "empty bus id"}
		}
		if _, dup := buses[b.ID]; dup {
			return &ModelError{Ref: b.ID, Reason: "duplicate bus id"}
		}
		buses[b.ID] = struct{}{}
	}
	for _, br := range n.Branches {
		if _, ok := buses[br.From]; !ok {
			return &ModelError{Ref: br.ID, Reason: fmt.Sprintf("unknown from bus %q", br.From)}
		}
		if _, ok := buses[br.To]; !ok {
			return &ModelError{Ref: br.ID, Reason: fmt.Sprintf("unknown to bus %q", br.To)}
		}
		if br.From == br.To {
			return &ModelError{Ref: br.ID, Reason: "branch connects a bus to itself"}
		}
		if br.Reactance <= 0 {
			return &ModelError{Ref: br.ID, Reason: "reactance must be positive"}
		}
		if br.LimitMW < 0 {
			return &ModelError{Ref: br.ID, Reason: "negative flow limit"}
		}
	}
	seenGen := make(map[string]struct{}, len(n.Generators))
	for _, g := range n.Generators {
		if _, dup := seenGen[g.ID]; dup {
			return &ModelError{Ref: g.ID, Reason: "duplicate generator id"}
		}
		seenGen[g.ID] = struct{}{}
		if _, ok := buses[g.Bus]; !ok {
			return &ModelError{Ref: g.ID, Reason: fmt.Sprintf("unknown bus %q", g.Bus)}
		}
		if g.PMaxMW < g.PMinMW {
			return &ModelError{Ref: g.ID, Reason: "pmax below pmin"}
		}
		if g.RampUpMW < 0 || g.RampDownMW < 0 {
			return &ModelError{Ref: g.ID, Reason: "negative ramp limit"}
		}
	}
	seenInj := make(map[string]struct{}, len(n.Injections))
	for _, inj := range n.Injections {
		if _, dup := seenInj[inj.ID]; dup {
			return &ModelError{Ref: inj.ID, Reason: "duplicate injection id"}
		}
		seenInj[inj.ID] = struct{}{}
		if _, ok := buses[inj.Bus]; !ok {
			return &ModelError{Ref: inj.ID, Reason: fmt.Sprintf("unknown bus %q", inj.Bus)}
		}
	}
	return nil
}
