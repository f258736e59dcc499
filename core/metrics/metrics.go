package metrics

import (
	"time"

	"github.com/kilianp07/gridchronics/core/model"
)

// StepRecord represents one committed dispatch step to be recorded.
type StepRecord struct {
	Scenario   string
	RunID      string
	Index      int
	Status     model.StepStatus
	Cost       float64
	UnservedMW float64
	Time       time.Time
}

// Sink records committed steps for observability purposes.
type Sink interface {
	RecordSteps(records []StepRecord) error
}

// RunRecord summarizes a finished scenario run.
type RunRecord struct {
	Scenario   string
	RunID      string
	Steps      int
	Relaxed    int
	Held       int
	Violations int
	Elapsed    time.Duration
	Time       time.Time
}

// RunRecorder is implemented by sinks able to record run summaries.
type RunRecorder interface {
	RecordRun(rec RunRecord) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordSteps([]StepRecord) error { return nil }

// Ensure NopSink implements RunRecorder.
func (NopSink) RecordRun(RunRecord) error { return nil }

// Config defines the metrics sinks to instantiate.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    int    `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}
