package model

// StepStatus records how a committed step was obtained.
type StepStatus int

const (
	// StatusOptimal marks a step solved under the full constraint set.
	StatusOptimal StepStatus = iota
	// StatusRelaxed marks a step committed after the ramp bounds were
	// widened or a shedding slack was introduced.
	StatusRelaxed
	// StatusHeld marks a step where the previous dispatch was carried
	// forward because no solution could be committed.
	StatusHeld
)

// String returns a human-readable representation of the status.
func (s StepStatus) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusRelaxed:
		return "relaxed"
	case StatusHeld:
		return "held"
	default:
		return "unknown"
	}
}

// CommittedStep is one finalized step of a chronic.
type CommittedStep struct {
	Index      int                `json:"index"`
	Status     StepStatus         `json:"status"`
	Output     map[string]float64 `json:"output"`
	Flows      map[string]float64 `json:"flows"`
	Cost       float64            `json:"cost"`
	UnservedMW float64            `json:"unserved_mw"`
}

// Chronic is the final artifact of a run: the committed dispatch per step
// together with the profile that produced it. Steps are ordered by time
// index and, on success, cover the whole horizon.
type Chronic struct {
	Steps   []CommittedStep `json:"steps"`
	Profile []ProfileStep   `json:"profile"`
}

// Horizon returns the number of committed steps.
func (c *Chronic) Horizon() int { return len(c.Steps) }
