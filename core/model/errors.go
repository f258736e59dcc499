package model

import "fmt"

// ModelError reports a malformed or inconsistent network model or profile
// reference. It is never retried: the run aborts before any step is solved.
type ModelError struct {
	Ref    string
	Reason string
}

func (e *ModelError) Error() string {
	if e.Ref == "" {
		return "model: " + e.Reason
	}
	return fmt.Sprintf("model: %s: %s", e.Ref, e.Reason)
}
