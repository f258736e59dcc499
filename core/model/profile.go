package model

// ProfileStep is one time step of exogenous injections, keyed by injection
// point ID. Loads are negative, renewable production is positive. Steps are
// produced outside the engine and must not be mutated once handed over.
type ProfileStep map[string]float64

// NetDemand returns the total power the dispatchable fleet must supply:
// the sum of loads minus the renewable production.
func (p ProfileStep) NetDemand() float64 {
	var net float64
	for _, v := range p {
		net -= v
	}
	return net
}
