package dispatch

import "github.com/kilianp07/gridchronics/core/model"

// DispatchState is the ramp anchor carried between steps. It is owned
// exclusively by the controller of one run and never shared.
type DispatchState struct {
	Step     int
	Previous map[string]float64 // committed output at the last solved step
	Relaxed  int
	Held     int
	prior    bool // false until the first step commits
}

// NewDispatchState seeds the state with a nominal mid-range output per
// generator. The nominal values never constrain step 0: ramp bounds are
// only anchored once a step has actually committed.
func NewDispatchState(net *model.NetworkModel) *DispatchState {
	prev := make(map[string]float64, len(net.Generators))
	for _, g := range net.Generators {
		prev[g.ID] = (g.PMinMW + g.PMaxMW) / 2
	}
	return &DispatchState{Previous: prev}
}

// anchor returns the ramp anchor for the next formulation, nil while no
// step has committed yet.
func (s *DispatchState) anchor() map[string]float64 {
	if !s.prior {
		return nil
	}
	return s.Previous
}

// commit records a committed step output as the next ramp anchor.
func (s *DispatchState) commit(output map[string]float64, status model.StepStatus) {
	for id, p := range output {
		s.Previous[id] = p
	}
	switch status {
	case model.StatusRelaxed:
		s.Relaxed++
	case model.StatusHeld:
		s.Held++
	}
	s.prior = true
	s.Step++
}
