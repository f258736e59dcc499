package dispatch

import "github.com/kilianp07/gridchronics/core/model"

// StepEvent is published on the event bus after each committed step.
type StepEvent struct {
	Index      int
	Status     model.StepStatus
	Cost       float64
	UnservedMW float64
}

// StepFailedEvent is published when a step exhausts its relaxation attempt.
type StepFailedEvent struct {
	Index int
	Err   error
}

// RunFinishedEvent is published once a chronic is finalized.
type RunFinishedEvent struct {
	Steps   int
	Relaxed int
	Held    int
}
