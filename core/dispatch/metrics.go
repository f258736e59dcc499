package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	solveLatency   prometheus.Histogram
	stepsCommitted *prometheus.CounterVec
	stepFailures   prometheus.Counter
	unservedPower  prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Histogram, *prometheus.CounterVec, prometheus.Counter, prometheus.Counter) {
	lat := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "opf_solve_duration_seconds",
			Help:    "Duration of OPF solver invocations",
			Buckets: prometheus.DefBuckets,
		},
	)
	steps := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_steps_committed_total",
			Help: "Number of committed dispatch steps",
		},
		[]string{"status"},
	)
	fail := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_step_failures_total",
			Help: "Number of steps that exhausted their relaxation attempt",
		},
	)
	shed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_unserved_power_mw_total",
			Help: "Unserved power accumulated over relaxed steps",
		},
	)
	return lat, steps, fail, shed
}

func init() {
	solveLatency, stepsCommitted, stepFailures, unservedPower = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(solveLatency, stepsCommitted, stepFailures, unservedPower)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	solveLatency, stepsCommitted, stepFailures, unservedPower = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
