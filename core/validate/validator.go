// Package validate post-checks an assembled chronic against the network
// model: power balance, branch limits and ramp continuity. Validation is
// idempotent and never mutates its inputs.
package validate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kilianp07/gridchronics/core/model"
	"github.com/kilianp07/gridchronics/core/opf"
)

// Kind classifies a violation.
type Kind string

const (
	KindBalance Kind = "power_balance"
	KindFlow    Kind = "branch_flow"
	KindRamp    Kind = "ramp"
)

// Violation is one invariant breach found in a chronic.
type Violation struct {
	Step      int     `json:"step"`
	Kind      Kind    `json:"kind"`
	Ref       string  `json:"ref"` // branch or generator ID, empty for balance
	Magnitude float64 `json:"magnitude"`
}

// Report lists every violation found, ordered by step.
type Report struct {
	Violations []Violation `json:"violations"`
}

// OK reports whether the chronic passed all checks.
func (r Report) OK() bool { return len(r.Violations) == 0 }

// String summarizes the report for logging.
func (r Report) String() string {
	if r.OK() {
		return "chronic accepted, no violations"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d violations:", len(r.Violations))
	for _, v := range r.Violations {
		fmt.Fprintf(&b, " [step %d %s %s %.3f]", v.Step, v.Kind, v.Ref, v.Magnitude)
	}
	return b.String()
}

// AsError converts a non-empty report into an error for strict runs.
func (r Report) AsError() error {
	if r.OK() {
		return nil
	}
	return &ValidationError{Report: r}
}

// ValidationError escalates a non-empty report under strict configuration.
type ValidationError struct {
	Report Report
}

func (e *ValidationError) Error() string {
	return "validate: " + e.Report.String()
}

// Config tunes the validator.
type Config struct {
	// Tolerance is the numerical slack applied to every check, in MW.
	Tolerance float64 `json:"tolerance"`
	// Strict escalates a non-empty report to a fatal run error.
	Strict bool `json:"strict"`
	// LossFactor is the transport loss fraction the dispatch applied on
	// top of raw demand. The balance check expects committed outputs to
	// cover demand scaled by 1+LossFactor; zero for a lossless run.
	LossFactor float64 `json:"loss_factor"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Tolerance <= 0 {
		c.Tolerance = 1e-4
	}
}

// Check walks every committed step of the chronic. Branch flows are
// recomputed from the network model rather than trusted from the chronic.
// Relaxed steps are exempt from flow checks, relaxed and held steps from
// ramp checks; power balance is reported for every step so held or shed
// steps surface in the report.
func Check(net *model.NetworkModel, chronic *model.Chronic, cfg Config) (Report, error) {
	cfg.SetDefaults()
	if len(chronic.Profile) != len(chronic.Steps) {
		return Report{}, fmt.Errorf("validate: %d committed steps but %d profile steps", len(chronic.Steps), len(chronic.Profile))
	}
	flow, err := opf.NewFlowModel(net)
	if err != nil {
		return Report{}, err
	}

	var report Report
	for i, step := range chronic.Steps {
		profile := chronic.Profile[i]

		if v, ok := balanceViolation(net, step, profile, cfg); ok {
			report.Violations = append(report.Violations, Violation{Step: step.Index, Kind: KindBalance, Magnitude: v})
		}
		if step.Status != model.StatusRelaxed {
			report.Violations = append(report.Violations, flowViolations(net, flow, step, profile, cfg.Tolerance)...)
		}
		if i > 0 && step.Status == model.StatusOptimal {
			report.Violations = append(report.Violations, rampViolations(net, chronic.Steps[i-1], step, cfg.Tolerance)...)
		}
	}
	return report, nil
}

// balanceViolation returns the absolute balance residual when it exceeds
// the tolerance. The residual excludes any shedding slack so a shortfall
// on a relaxed step is surfaced, not hidden. Profile injections are
// scaled by the loss factor so a loss-compensated dispatch balances.
func balanceViolation(net *model.NetworkModel, step model.CommittedStep, profile model.ProfileStep, cfg Config) (float64, bool) {
	var residual float64
	for _, g := range net.Generators {
		residual += step.Output[g.ID]
	}
	for _, id := range sortedKeys(profile) {
		residual += (1 + cfg.LossFactor) * profile[id]
	}
	if math.Abs(residual) > cfg.Tolerance {
		return math.Abs(residual), true
	}
	return 0, false
}

func flowViolations(net *model.NetworkModel, flow *opf.FlowModel, step model.CommittedStep, profile model.ProfileStep, tol float64) []Violation {
	flows := flow.Flows(opf.BusInjections(net, profile, step.Output))
	var out []Violation
	for _, br := range net.Branches {
		if over := math.Abs(flows[br.ID]) - br.LimitMW; over > tol {
			out = append(out, Violation{Step: step.Index, Kind: KindFlow, Ref: br.ID, Magnitude: over})
		}
	}
	return out
}

func rampViolations(net *model.NetworkModel, prev, step model.CommittedStep, tol float64) []Violation {
	var out []Violation
	for _, g := range net.Generators {
		delta := step.Output[g.ID] - prev.Output[g.ID]
		if delta > g.RampUpMW+tol {
			out = append(out, Violation{Step: step.Index, Kind: KindRamp, Ref: g.ID, Magnitude: delta - g.RampUpMW})
		} else if -delta > g.RampDownMW+tol {
			out = append(out, Violation{Step: step.Index, Kind: KindRamp, Ref: g.ID, Magnitude: -delta - g.RampDownMW})
		}
	}
	return out
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
