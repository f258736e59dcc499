package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/gridchronics/core/metrics"
)

// PromSink records committed steps and run summaries in Prometheus
// metrics.
type PromSink struct {
	steps    *prometheus.CounterVec
	unserved *prometheus.CounterVec
	cost     *prometheus.CounterVec
	runs     *prometheus.CounterVec
}

// NewPromSink registers metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	steps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chronic_steps_total",
		Help: "Committed chronic steps by scenario and status",
	}, []string{"scenario", "status"})
	unserved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chronic_unserved_power_mw_total",
		Help: "Unserved power accumulated per scenario",
	}, []string{"scenario"})
	cost := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chronic_dispatch_cost_total",
		Help: "Dispatch cost accumulated per scenario",
	}, []string{"scenario"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chronic_runs_total",
		Help: "Finished scenario runs by validation outcome",
	}, []string{"outcome"})

	var err error
	if steps, err = registerCounterVec(reg, steps); err != nil {
		return nil, err
	}
	if unserved, err = registerCounterVec(reg, unserved); err != nil {
		return nil, err
	}
	if cost, err = registerCounterVec(reg, cost); err != nil {
		return nil, err
	}
	if runs, err = registerCounterVec(reg, runs); err != nil {
		return nil, err
	}
	return &PromSink{steps: steps, unserved: unserved, cost: cost, runs: runs}, nil
}

// registerCounterVec registers the collector, reusing an already
// registered twin when tests rebuild sinks on the default registry.
func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.CounterVec), nil
		}
		return nil, err
	}
	return c, nil
}

// RecordSteps implements coremetrics.Sink.
func (s *PromSink) RecordSteps(records []coremetrics.StepRecord) error {
	for _, r := range records {
		s.steps.WithLabelValues(r.Scenario, r.Status.String()).Inc()
		if r.UnservedMW > 0 {
			s.unserved.WithLabelValues(r.Scenario).Add(r.UnservedMW)
		}
		if r.Cost > 0 {
			s.cost.WithLabelValues(r.Scenario).Add(r.Cost)
		}
	}
	return nil
}

// RecordRun implements coremetrics.RunRecorder.
func (s *PromSink) RecordRun(rec coremetrics.RunRecord) error {
	outcome := "clean"
	if rec.Violations > 0 {
		outcome = "violations"
	}
	s.runs.WithLabelValues(outcome).Inc()
	return nil
}
