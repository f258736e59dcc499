package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/gridchronics/core/logger"
	"github.com/kilianp07/gridchronics/core/metrics"
	"github.com/kilianp07/gridchronics/core/model"
	"github.com/kilianp07/gridchronics/core/opf"
	"github.com/kilianp07/gridchronics/core/profile"
	"github.com/kilianp07/gridchronics/internal/eventbus"
)

// stepState tracks one step through the dispatch loop.
type stepState int

const (
	statePending stepState = iota
	stateFormulated
	stateSolved
	stateInfeasible
	stateFailed
)

// Controller owns the rolling dispatch loop of one run. It is not safe
// for concurrent use: parallelism belongs across runs, each with its own
// controller, state and chronic.
type Controller struct {
	net      *model.NetworkModel
	form     *opf.Formulator
	solver   opf.Solver
	cfg      Config
	log      logger.Logger
	sink     metrics.Sink
	bus      eventbus.EventBus
	state    *DispatchState
	scenario string
	runID    string
}

// NewController builds a controller for one run. A nil solver selects the
// simplex backend bounded by the configured timeout. A nil sink or bus
// disables the corresponding reporting.
func NewController(net *model.NetworkModel, solver opf.Solver, cfg Config, log logger.Logger, sink metrics.Sink, bus eventbus.EventBus) (*Controller, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	form, err := opf.NewFormulator(net, cfg.formulation())
	if err != nil {
		return nil, err
	}
	if solver == nil {
		solver = opf.NewSimplexSolver(time.Duration(cfg.SolverTimeoutSeconds) * time.Second)
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Controller{
		net:    net,
		form:   form,
		solver: solver,
		cfg:    cfg,
		log:    log,
		sink:   sink,
		bus:    bus,
		state:  NewDispatchState(net),
	}, nil
}

// SetLabel tags metric records with the scenario name and run ID.
func (c *Controller) SetLabel(scenario, runID string) {
	c.scenario = scenario
	c.runID = runID
}

// Run walks the profile source step by step and assembles the chronic.
// Cancellation is honored at step boundaries so the committed prefix can
// be preserved by the caller. The returned error, if any, is a
// *FatalError naming the offending step.
func (c *Controller) Run(ctx context.Context, src profile.Source) (*model.Chronic, error) {
	horizon := src.Horizon()
	chronic := &model.Chronic{
		Steps:   make([]model.CommittedStep, 0, horizon),
		Profile: make([]model.ProfileStep, 0, horizon),
	}
	for t := 0; t < horizon; t++ {
		if err := ctx.Err(); err != nil {
			return chronic, &FatalError{Step: t, Cause: err}
		}
		step, err := src.Step(t)
		if err != nil {
			return chronic, &FatalError{Step: t, Cause: err}
		}
		committed, err := c.runStep(ctx, t, step)
		if err != nil {
			return chronic, err
		}
		c.state.commit(committed.Output, committed.Status)
		chronic.Steps = append(chronic.Steps, committed)
		chronic.Profile = append(chronic.Profile, step)
		c.afterCommit(committed)
	}
	if c.bus != nil {
		c.bus.Publish(RunFinishedEvent{Steps: len(chronic.Steps), Relaxed: c.state.Relaxed, Held: c.state.Held})
	}
	c.log.Infof("run complete: %d steps, %d relaxed, %d held", len(chronic.Steps), c.state.Relaxed, c.state.Held)
	return chronic, nil
}

// runStep drives one step through the
// Pending -> Formulated -> Solved | Infeasible | Failed machine.
func (c *Controller) runStep(ctx context.Context, t int, step model.ProfileStep) (model.CommittedStep, error) {
	st := statePending

	strict := opf.BuildOptions{Previous: c.state.anchor(), RampFactor: 1}
	res, err := c.solveAttempt(ctx, step, strict, &st)
	var merr *model.ModelError
	if errors.As(err, &merr) {
		return model.CommittedStep{}, &FatalError{Step: t, Cause: err}
	}
	if err == nil {
		st = stateSolved
		return committedFrom(t, model.StatusOptimal, res), nil
	}

	// One relaxation attempt covers both proven infeasibility and solver
	// failures: widen the ramp bounds and, when allowed, let the problem
	// shed load at a penalty.
	if errors.Is(err, opf.ErrInfeasible) {
		st = stateInfeasible
		c.log.Warnf("step %d infeasible, relaxing ramp bounds (factor %.2f)", t, c.cfg.RelaxFactor)
	} else {
		c.log.Warnf("step %d solver failure: %v, retrying relaxed", t, err)
	}
	relaxed := opf.BuildOptions{
		Previous:     c.state.anchor(),
		RampFactor:   c.cfg.RelaxFactor,
		Shedding:     !c.cfg.DisableShedding,
		SheddingCost: c.cfg.SheddingCost,
	}
	if c.cfg.RelaxFactor < 0 {
		relaxed.RampFactor = 0 // drop ramp bounds for this step
	}
	res, err = c.solveAttempt(ctx, step, relaxed, &st)
	if errors.As(err, &merr) {
		return model.CommittedStep{}, &FatalError{Step: t, Cause: err}
	}
	if err == nil {
		st = stateSolved
		unservedPower.Add(res.UnservedMW)
		return committedFrom(t, model.StatusRelaxed, res), nil
	}

	st = stateFailed
	stepFailures.Inc()
	if c.bus != nil {
		c.bus.Publish(StepFailedEvent{Index: t, Err: err})
	}
	if c.cfg.FailurePolicy == PolicyAbort {
		return model.CommittedStep{}, &FatalError{Step: t, Cause: err}
	}

	// Hold-last: carry the previous committed dispatch forward. Before
	// any commit this is the nominal mid-range seed of the state.
	c.log.Warnf("step %d failed (%v), holding previous dispatch", t, err)
	held := make(map[string]float64, len(c.state.Previous))
	for id, p := range c.state.Previous {
		held[id] = p
	}
	return model.CommittedStep{
		Index:  t,
		Status: model.StatusHeld,
		Output: held,
		Flows:  c.form.StepFlows(step, held),
		Cost:   opf.DispatchCost(c.net, held),
	}, nil
}

// solveAttempt formulates and solves one problem, timing the solver call.
func (c *Controller) solveAttempt(ctx context.Context, step model.ProfileStep, opts opf.BuildOptions, st *stepState) (opf.Result, error) {
	prob, err := c.form.Build(step, opts)
	if err != nil {
		return opf.Result{}, err
	}
	*st = stateFormulated
	start := time.Now()
	res, err := c.solver.Solve(ctx, prob)
	solveLatency.Observe(time.Since(start).Seconds())
	return res, err
}

func committedFrom(t int, status model.StepStatus, res opf.Result) model.CommittedStep {
	return model.CommittedStep{
		Index:      t,
		Status:     status,
		Output:     res.Output,
		Flows:      res.Flows,
		Cost:       res.Cost,
		UnservedMW: res.UnservedMW,
	}
}

// afterCommit publishes the step on the bus and records it on the sink.
func (c *Controller) afterCommit(step model.CommittedStep) {
	stepsCommitted.WithLabelValues(step.Status.String()).Inc()
	if c.bus != nil {
		c.bus.Publish(StepEvent{Index: step.Index, Status: step.Status, Cost: step.Cost, UnservedMW: step.UnservedMW})
	}
	if c.sink == nil {
		return
	}
	rec := metrics.StepRecord{
		Scenario:   c.scenario,
		RunID:      c.runID,
		Index:      step.Index,
		Status:     step.Status,
		Cost:       step.Cost,
		UnservedMW: step.UnservedMW,
		Time:       time.Now(),
	}
	if err := c.sink.RecordSteps([]metrics.StepRecord{rec}); err != nil {
		c.log.Errorf("metrics error: %v", err)
	}
}
