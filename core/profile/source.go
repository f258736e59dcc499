// Package profile supplies the exogenous load and renewable time series a
// dispatch run consumes. Sources are finite and fully ordered; the engine
// never generates or validates the statistical properties of the values.
package profile

import (
	"fmt"

	"github.com/kilianp07/gridchronics/core/model"
)

// Source yields one ProfileStep per simulation time index over a finite
// horizon.
type Source interface {
	Horizon() int
	Step(t int) (model.ProfileStep, error)
}

// SliceSource serves an in-memory sequence of steps.
type SliceSource []model.ProfileStep

// Horizon implements Source.
func (s SliceSource) Horizon() int { return len(s) }

// Step implements Source.
func (s SliceSource) Step(t int) (model.ProfileStep, error) {
	if t < 0 || t >= len(s) {
		return nil, fmt.Errorf("profile: step %d out of horizon %d", t, len(s))
	}
	return s[t], nil
}
