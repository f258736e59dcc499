package dispatch

import (
	"fmt"

	"github.com/kilianp07/gridchronics/core/opf"
)

// FailurePolicy decides what happens to a step that cannot be solved even
// after relaxation.
type FailurePolicy string

const (
	// PolicyAbort fails the whole run on the first unsolvable step.
	PolicyAbort FailurePolicy = "abort"
	// PolicyHoldLast carries the previous dispatch forward and flags the
	// step as held.
	PolicyHoldLast FailurePolicy = "hold-last"
)

// Config defines the dispatch loop settings.
type Config struct {
	// Mode selects the power-flow approximation: "dc" or "ac".
	Mode string `json:"mode"`
	// Segments is the piecewise linearization depth for quadratic cost
	// curves.
	Segments int `json:"segments"`
	// LossFactor is the transport loss fraction applied in "ac" mode.
	LossFactor float64 `json:"loss_factor"`
	// RelaxFactor scales the ramp widths on the relaxation attempt. A
	// negative value drops the ramp bounds entirely for that step. At the
	// default of 1 the ramp stays intact and the shedding slack alone
	// recovers feasibility, keeping committed outputs ramp-continuous.
	RelaxFactor float64 `json:"relax_factor"`
	// DisableShedding turns off the load-shedding slack on the relaxation
	// attempt. Infeasible steps then fall through to the failure policy
	// unless the widened ramp alone recovers them.
	DisableShedding bool `json:"disable_shedding"`
	// SheddingCost is the penalty per MW of unserved power.
	SheddingCost float64 `json:"shedding_cost"`
	// FailurePolicy is "abort" or "hold-last".
	FailurePolicy FailurePolicy `json:"failure_policy"`
	// SolverTimeoutSeconds bounds each call into the numerical backend.
	SolverTimeoutSeconds int `json:"solver_timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Mode == "" {
		c.Mode = string(opf.ModeDC)
	}
	if c.Segments <= 0 {
		c.Segments = 3
	}
	if c.RelaxFactor == 0 {
		c.RelaxFactor = 1
	}
	if c.SheddingCost <= 0 {
		c.SheddingCost = 10000
	}
	if c.FailurePolicy == "" {
		c.FailurePolicy = PolicyHoldLast
	}
	if c.SolverTimeoutSeconds <= 0 {
		c.SolverTimeoutSeconds = 30
	}
}

// Validate checks the configured enumerations.
func (c Config) Validate() error {
	switch opf.Mode(c.Mode) {
	case opf.ModeDC, opf.ModeAC:
	default:
		return fmt.Errorf("unknown formulation mode %q", c.Mode)
	}
	switch c.FailurePolicy {
	case PolicyAbort, PolicyHoldLast:
	default:
		return fmt.Errorf("unknown failure policy %q", c.FailurePolicy)
	}
	if c.LossFactor < 0 || c.LossFactor >= 1 {
		return fmt.Errorf("loss factor must be in [0,1)")
	}
	return nil
}

// Losses returns the loss fraction the formulation effectively applies:
// the configured factor in "ac" mode, zero otherwise.
func (c Config) Losses() float64 {
	if opf.Mode(c.Mode) == opf.ModeAC {
		return c.LossFactor
	}
	return 0
}

func (c Config) formulation() opf.Config {
	return opf.Config{
		Mode:       opf.Mode(c.Mode),
		Segments:   c.Segments,
		LossFactor: c.LossFactor,
	}
}
