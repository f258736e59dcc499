package metrics

import coremetrics "github.com/kilianp07/gridchronics/core/metrics"

// MultiSink fans step records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSteps forwards the records to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordSteps(records []coremetrics.StepRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordSteps(records); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun forwards run summaries to sinks that support them.
func (m *MultiSink) RecordRun(rec coremetrics.RunRecord) error {
	for _, s := range m.Sinks {
		if rr, ok := s.(coremetrics.RunRecorder); ok {
			if err := rr.RecordRun(rec); err != nil {
				return err
			}
		}
	}
	return nil
}
