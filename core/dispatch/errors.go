package dispatch

import "fmt"

// FatalError identifies the step and cause of an unrecoverable abort. A
// run that returns a FatalError never produced a chronic claiming full
// validity.
type FatalError struct {
	Step  int
	Cause error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("dispatch: step %d: %v", e.Step, e.Cause)
}

func (e *FatalError) Unwrap() error { return e.Cause }
