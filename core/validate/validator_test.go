package validate

import (
	"math"
	"reflect"
	"testing"

	"github.com/kilianp07/gridchronics/core/model"
)

func valNetwork() *model.NetworkModel {
	return &model.NetworkModel{
		Buses:    []model.Bus{{ID: "b1"}, {ID: "b2"}},
		Branches: []model.Branch{{ID: "l1", From: "b1", To: "b2", Reactance: 0.1, LimitMW: 50}},
		Generators: []model.Generator{
			{ID: "g1", Bus: "b1", PMinMW: 0, PMaxMW: 100, RampUpMW: 20, RampDownMW: 20, MarginalCost: 10},
		},
		Injections: []model.Injection{
			{ID: "d1", Bus: "b1"},
			{ID: "d2", Bus: "b2"},
		},
	}
}

func committed(idx int, status model.StepStatus, output float64) model.CommittedStep {
	return model.CommittedStep{Index: idx, Status: status, Output: map[string]float64{"g1": output}}
}

func TestCheck_CleanChronic(t *testing.T) {
	chronic := &model.Chronic{
		Steps: []model.CommittedStep{
			committed(0, model.StatusOptimal, 40),
			committed(1, model.StatusOptimal, 50),
		},
		Profile: []model.ProfileStep{
			{"d1": -40},
			{"d1": -50},
		},
	}
	report, err := Check(valNetwork(), chronic, Config{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !report.OK() {
		t.Fatalf("expected clean report, got %s", report)
	}
	if report.AsError() != nil {
		t.Fatalf("clean report must not escalate")
	}
}

func TestCheck_Idempotent(t *testing.T) {
	chronic := &model.Chronic{
		Steps:   []model.CommittedStep{committed(0, model.StatusOptimal, 40)},
		Profile: []model.ProfileStep{{"d1": -45}},
	}
	first, err := Check(valNetwork(), chronic, Config{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	second, err := Check(valNetwork(), chronic, Config{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated checks diverged")
	}
}

func TestCheck_BalanceViolation(t *testing.T) {
	chronic := &model.Chronic{
		Steps:   []model.CommittedStep{committed(0, model.StatusOptimal, 40)},
		Profile: []model.ProfileStep{{"d1": -45}},
	}
	report, err := Check(valNetwork(), chronic, Config{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(report.Violations) != 1 {
		t.Fatalf("expected one violation, got %s", report)
	}
	v := report.Violations[0]
	if v.Kind != KindBalance || math.Abs(v.Magnitude-5) > 1e-9 {
		t.Fatalf("unexpected violation %+v", v)
	}
	if report.AsError() == nil {
		t.Fatalf("expected an escalatable error")
	}
}

func TestCheck_LossCompensatedBalance(t *testing.T) {
	// Outputs carry a 5% loss margin over raw demand.
	chronic := &model.Chronic{
		Steps: []model.CommittedStep{
			committed(0, model.StatusOptimal, 42),
			committed(1, model.StatusOptimal, 52.5),
		},
		Profile: []model.ProfileStep{
			{"d1": -40},
			{"d1": -50},
		},
	}

	report, err := Check(valNetwork(), chronic, Config{LossFactor: 0.05})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !report.OK() {
		t.Fatalf("loss-compensated dispatch must balance, got %s", report)
	}

	// Without the loss factor the same chronic shows the margin as a
	// residual on every step.
	report, err = Check(valNetwork(), chronic, Config{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(report.Violations) != 2 {
		t.Fatalf("expected residuals on both steps, got %s", report)
	}
	if v := report.Violations[0]; v.Kind != KindBalance || math.Abs(v.Magnitude-2) > 1e-9 {
		t.Fatalf("unexpected violation %+v", v)
	}
	if v := report.Violations[1]; v.Kind != KindBalance || math.Abs(v.Magnitude-2.5) > 1e-9 {
		t.Fatalf("unexpected violation %+v", v)
	}
}

func TestCheck_RampViolation(t *testing.T) {
	chronic := &model.Chronic{
		Steps: []model.CommittedStep{
			committed(0, model.StatusOptimal, 40),
			committed(1, model.StatusOptimal, 80),
		},
		Profile: []model.ProfileStep{
			{"d1": -40},
			{"d1": -80},
		},
	}
	report, err := Check(valNetwork(), chronic, Config{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(report.Violations) != 1 {
		t.Fatalf("expected one violation, got %s", report)
	}
	v := report.Violations[0]
	if v.Kind != KindRamp || v.Ref != "g1" || v.Step != 1 {
		t.Fatalf("unexpected violation %+v", v)
	}
	if math.Abs(v.Magnitude-20) > 1e-9 {
		t.Fatalf("expected 20 MW over the ramp, got %v", v.Magnitude)
	}
}

func TestCheck_FlowViolation(t *testing.T) {
	// The whole 60 MW load sits across the 50 MW line.
	chronic := &model.Chronic{
		Steps:   []model.CommittedStep{committed(0, model.StatusOptimal, 60)},
		Profile: []model.ProfileStep{{"d2": -60}},
	}
	report, err := Check(valNetwork(), chronic, Config{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(report.Violations) != 1 {
		t.Fatalf("expected one violation, got %s", report)
	}
	v := report.Violations[0]
	if v.Kind != KindFlow || v.Ref != "l1" {
		t.Fatalf("unexpected violation %+v", v)
	}
	if math.Abs(v.Magnitude-10) > 1e-9 {
		t.Fatalf("expected 10 MW overload, got %v", v.Magnitude)
	}
}

func TestCheck_RelaxedStepExemptions(t *testing.T) {
	// A shed step is exempt from the flow check but its shortfall still
	// surfaces as a balance residual.
	chronic := &model.Chronic{
		Steps: []model.CommittedStep{
			{Index: 0, Status: model.StatusRelaxed, Output: map[string]float64{"g1": 60}, UnservedMW: 30},
		},
		Profile: []model.ProfileStep{{"d2": -90}},
	}
	report, err := Check(valNetwork(), chronic, Config{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(report.Violations) != 1 {
		t.Fatalf("expected only the balance residual, got %s", report)
	}
	v := report.Violations[0]
	if v.Kind != KindBalance || math.Abs(v.Magnitude-30) > 1e-9 {
		t.Fatalf("unexpected violation %+v", v)
	}
}

func TestCheck_HeldStepSkipsRamp(t *testing.T) {
	chronic := &model.Chronic{
		Steps: []model.CommittedStep{
			committed(0, model.StatusOptimal, 40),
			committed(1, model.StatusHeld, 90),
		},
		Profile: []model.ProfileStep{
			{"d1": -40},
			{"d1": -90},
		},
	}
	report, err := Check(valNetwork(), chronic, Config{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	for _, v := range report.Violations {
		if v.Kind == KindRamp {
			t.Fatalf("held step must be exempt from the ramp check: %+v", v)
		}
	}
}

func TestCheck_Tolerance(t *testing.T) {
	chronic := &model.Chronic{
		Steps:   []model.CommittedStep{committed(0, model.StatusOptimal, 40.00005)},
		Profile: []model.ProfileStep{{"d1": -40}},
	}
	report, err := Check(valNetwork(), chronic, Config{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !report.OK() {
		t.Fatalf("residual below tolerance must pass, got %s", report)
	}

	report, err = Check(valNetwork(), chronic, Config{Tolerance: 1e-6})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if report.OK() {
		t.Fatalf("tightened tolerance must flag the residual")
	}
}

func TestCheck_LengthMismatch(t *testing.T) {
	chronic := &model.Chronic{
		Steps:   []model.CommittedStep{committed(0, model.StatusOptimal, 40)},
		Profile: nil,
	}
	if _, err := Check(valNetwork(), chronic, Config{}); err == nil {
		t.Fatalf("expected error for mismatched lengths")
	}
}
