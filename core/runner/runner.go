// Package runner executes independent dispatch runs across scenarios.
// The dispatch loop is sequential along the time axis; parallelism only
// exists between scenarios, each owning its own controller, state and
// chronic.
package runner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/gridchronics/core/dispatch"
	"github.com/kilianp07/gridchronics/core/logger"
	"github.com/kilianp07/gridchronics/core/metrics"
	"github.com/kilianp07/gridchronics/core/model"
	"github.com/kilianp07/gridchronics/core/profile"
	"github.com/kilianp07/gridchronics/core/validate"
)

// Scenario pairs a name with the profile sequence to dispatch.
type Scenario struct {
	Name   string
	Source profile.Source
}

// Result is the outcome of one scenario run.
type Result struct {
	Scenario string
	RunID    string
	Chronic  *model.Chronic
	Report   validate.Report
	Elapsed  time.Duration
	Err      error
}

// Runner fans scenarios out over a bounded number of workers.
type Runner struct {
	net      *model.NetworkModel
	dcfg     dispatch.Config
	vcfg     validate.Config
	parallel int
	log      logger.Logger
	sink     metrics.Sink
}

// New builds a runner. Parallelism below 1 is treated as sequential.
func New(net *model.NetworkModel, dcfg dispatch.Config, vcfg validate.Config, parallel int, log logger.Logger, sink metrics.Sink) *Runner {
	if parallel < 1 {
		parallel = 1
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if vcfg.LossFactor == 0 {
		vcfg.LossFactor = dcfg.Losses()
	}
	return &Runner{net: net, dcfg: dcfg, vcfg: vcfg, parallel: parallel, log: log, sink: sink}
}

// Run dispatches every scenario and returns results in scenario order.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) []Result {
	results := make([]Result, len(scenarios))
	sem := make(chan struct{}, r.parallel)
	var wg sync.WaitGroup
	for i, sc := range scenarios {
		wg.Add(1)
		go func(i int, sc Scenario) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = r.runOne(ctx, sc)
		}(i, sc)
	}
	wg.Wait()
	return results
}

func (r *Runner) runOne(ctx context.Context, sc Scenario) Result {
	res := Result{Scenario: sc.Name, RunID: uuid.New().String()}
	start := time.Now()

	ctrl, err := dispatch.NewController(r.net, nil, r.dcfg, r.log, r.sink, nil)
	if err != nil {
		res.Err = err
		return res
	}
	ctrl.SetLabel(sc.Name, res.RunID)

	r.log.Infof("scenario %s: dispatching %d steps", sc.Name, sc.Source.Horizon())
	chronic, err := ctrl.Run(ctx, sc.Source)
	res.Chronic = chronic
	res.Elapsed = time.Since(start)
	if err != nil {
		res.Err = err
		return res
	}

	report, err := validate.Check(r.net, chronic, r.vcfg)
	if err != nil {
		res.Err = err
		return res
	}
	res.Report = report
	if !report.OK() {
		r.log.Warnf("scenario %s: %s", sc.Name, report)
		if r.vcfg.Strict {
			res.Err = report.AsError()
		}
	}
	r.recordRun(res)
	return res
}

func (r *Runner) recordRun(res Result) {
	rr, ok := r.sink.(metrics.RunRecorder)
	if !ok || res.Chronic == nil {
		return
	}
	var relaxed, held int
	for _, s := range res.Chronic.Steps {
		switch s.Status {
		case model.StatusRelaxed:
			relaxed++
		case model.StatusHeld:
			held++
		}
	}
	rec := metrics.RunRecord{
		Scenario:   res.Scenario,
		RunID:      res.RunID,
		Steps:      len(res.Chronic.Steps),
		Relaxed:    relaxed,
		Held:       held,
		Violations: len(res.Report.Violations),
		Elapsed:    res.Elapsed,
		Time:       time.Now(),
	}
	if err := rr.RecordRun(rec); err != nil {
		r.log.Errorf("run metrics error: %v", err)
	}
}
