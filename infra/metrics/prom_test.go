package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/gridchronics/core/metrics"
	"github.com/kilianp07/gridchronics/core/model"
)

func TestPromSink_RecordSteps(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)

	err = sink.RecordSteps([]coremetrics.StepRecord{
		{Scenario: "base", Status: model.StatusOptimal, Cost: 400},
		{Scenario: "base", Status: model.StatusRelaxed, Cost: 600, UnservedMW: 30},
	})
	require.NoError(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(sink.steps.WithLabelValues("base", "optimal")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(sink.steps.WithLabelValues("base", "relaxed")), 1e-9)
	assert.InDelta(t, 30, testutil.ToFloat64(sink.unserved.WithLabelValues("base")), 1e-9)
	assert.InDelta(t, 1000, testutil.ToFloat64(sink.cost.WithLabelValues("base")), 1e-9)
}

func TestPromSink_RecordRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordRun(coremetrics.RunRecord{Scenario: "base", Steps: 3}))
	require.NoError(t, sink.RecordRun(coremetrics.RunRecord{Scenario: "base", Steps: 3, Violations: 2}))

	assert.InDelta(t, 1, testutil.ToFloat64(sink.runs.WithLabelValues("clean")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(sink.runs.WithLabelValues("violations")), 1e-9)
}

func TestPromSink_Reregister(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
	second, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)

	// Both sinks share the collectors already registered.
	require.NoError(t, first.RecordSteps([]coremetrics.StepRecord{{Scenario: "s", Status: model.StatusOptimal}}))
	require.NoError(t, second.RecordSteps([]coremetrics.StepRecord{{Scenario: "s", Status: model.StatusOptimal}}))
	assert.InDelta(t, 2, testutil.ToFloat64(first.steps.WithLabelValues("s", "optimal")), 1e-9)
}
