package compiler

import (
	"math"
	"testing"

	"strategy-lab/internal/domain"
)

func envFor(closes []float64) *evalEnv {
	return &evalEnv{window: makeWindow(closes)}
}

func betweenCond(low, high float64) domain.ConditionSpec {
	return domain.ConditionSpec{
		Operator: domain.OperatorBetween,
		Left:     domain.Ref(domain.ColumnClose),
		Low:      &low,
		High:     &high,
	}
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEvalBetween_MidpointPeaksAtOne(t *testing.T) {
	env := envFor([]float64{10, 15})

	out := evalCondition(betweenCond(10, 20), env)
	if !out.satisfied {
		t.Fatal("value at midpoint should satisfy between")
	}
	if !closeEnough(out.strength, 1.0) {
		t.Errorf("midpoint strength = %f, want 1.0", out.strength)
	}
}

func TestEvalBetween_BoundSatisfiedWithZeroStrength(t *testing.T) {
	for _, bound := range []float64{10, 20} {
		env := envFor([]float64{15, bound})

		out := evalCondition(betweenCond(10, 20), env)
		if !out.satisfied {
			t.Errorf("value %f at bound should satisfy between", bound)
		}
		if !closeEnough(out.strength, 0) {
			t.Errorf("bound %f strength = %f, want 0", bound, out.strength)
		}
	}
}

func TestEvalBetween_LinearDecay(t *testing.T) {
	// Halfway between midpoint 15 and bound 20.
	env := envFor([]float64{15, 17.5})

	out := evalCondition(betweenCond(10, 20), env)
	if !out.satisfied || !closeEnough(out.strength, 0.5) {
		t.Errorf("got satisfied=%v strength=%f, want satisfied with strength 0.5", out.satisfied, out.strength)
	}
}

func TestEvalBetween_OutsideBounds(t *testing.T) {
	for _, value := range []float64{9.99, 20.01} {
		env := envFor([]float64{15, value})

		if out := evalCondition(betweenCond(10, 20), env); out.satisfied {
			t.Errorf("value %f outside [10, 20] should not satisfy between", value)
		}
	}
}

func TestEvalBetween_DegenerateAndInvertedBounds(t *testing.T) {
	env := envFor([]float64{15, 15})

	out := evalCondition(betweenCond(15, 15), env)
	if !out.satisfied || !closeEnough(out.strength, 1.0) {
		t.Errorf("collapsed bounds at the value: got satisfied=%v strength=%f", out.satisfied, out.strength)
	}

	if out := evalCondition(betweenCond(20, 10), env); out.satisfied {
		t.Error("inverted bounds should never satisfy")
	}
}

func TestEvalSlopePositive_RisingSeries(t *testing.T) {
	env := envFor([]float64{1, 2, 3, 4, 5, 6})
	cond := domain.ConditionSpec{
		Operator: domain.OperatorSlopePositive,
		Left:     domain.Ref(domain.ColumnClose),
		Lookback: 5,
	}

	out := evalCondition(cond, env)
	if !out.satisfied {
		t.Fatal("rising series should satisfy slope_positive")
	}
	// Last 5 closes are 2..6: slope 1, mean abs 4.
	if !closeEnough(out.strength, 0.25) {
		t.Errorf("strength = %f, want 0.25", out.strength)
	}
}

func TestEvalSlopePositive_FallingSeries(t *testing.T) {
	env := envFor([]float64{6, 5, 4, 3, 2, 1})
	cond := domain.ConditionSpec{
		Operator: domain.OperatorSlopePositive,
		Left:     domain.Ref(domain.ColumnClose),
		Lookback: 5,
	}

	if out := evalCondition(cond, env); out.satisfied {
		t.Error("falling series should not satisfy slope_positive")
	}
}

func TestEvalSlopePositive_SkipsLeadingNaN(t *testing.T) {
	nan := math.NaN()
	env := envFor([]float64{1, 1, 1, 1, 1, 1})
	env.values = map[string][]float64{
		"ind": {nan, nan, nan, 2, 4, 6},
	}
	cond := domain.ConditionSpec{
		Operator: domain.OperatorSlopePositive,
		Left:     domain.Ref("ind"),
		Lookback: 5,
	}

	// Only three defined points exist; the fit uses those and rises.
	out := evalCondition(cond, env)
	if !out.satisfied {
		t.Error("rising defined tail behind leading NaNs should satisfy slope_positive")
	}
}

func TestEvalSlopePositive_TooFewDefinedPoints(t *testing.T) {
	nan := math.NaN()
	env := envFor([]float64{1, 1, 1})
	env.values = map[string][]float64{
		"ind": {nan, nan, 5},
	}
	cond := domain.ConditionSpec{
		Operator: domain.OperatorSlopePositive,
		Left:     domain.Ref("ind"),
		Lookback: 5,
	}

	if out := evalCondition(cond, env); out.satisfied {
		t.Error("a single defined point cannot establish a slope")
	}
}

func TestEvalPercentChange_ExceedsThreshold(t *testing.T) {
	threshold := 0.02
	env := envFor([]float64{100, 105})
	cond := domain.ConditionSpec{
		Operator:  domain.OperatorPercentChange,
		Left:      domain.Ref(domain.ColumnClose),
		Lookback:  1,
		Threshold: &threshold,
	}

	out := evalCondition(cond, env)
	if !out.satisfied {
		t.Fatal("5% move over a 2% threshold should satisfy percent_change")
	}
	// Strength is the excess over the threshold.
	if !closeEnough(out.strength, 0.03) {
		t.Errorf("strength = %f, want 0.03", out.strength)
	}
}

func TestEvalPercentChange_ExactThresholdNotSatisfied(t *testing.T) {
	threshold := 0.05
	env := envFor([]float64{100, 105})
	cond := domain.ConditionSpec{
		Operator:  domain.OperatorPercentChange,
		Left:      domain.Ref(domain.ColumnClose),
		Lookback:  1,
		Threshold: &threshold,
	}

	if out := evalCondition(cond, env); out.satisfied {
		t.Error("change equal to the threshold should not satisfy percent_change")
	}
}

func TestEvalPercentChange_LookbackOutOfRange(t *testing.T) {
	env := envFor([]float64{100, 105})
	cond := domain.ConditionSpec{
		Operator: domain.OperatorPercentChange,
		Left:     domain.Ref(domain.ColumnClose),
		Lookback: 5,
	}

	if out := evalCondition(cond, env); out.satisfied {
		t.Error("lookback beyond the window should not satisfy percent_change")
	}
}

func TestEvalPercentChange_ZeroReference(t *testing.T) {
	env := envFor([]float64{0, 5})
	cond := domain.ConditionSpec{
		Operator: domain.OperatorPercentChange,
		Left:     domain.Ref(domain.ColumnClose),
		Lookback: 1,
	}

	if out := evalCondition(cond, env); out.satisfied {
		t.Error("a zero reference value should not satisfy percent_change")
	}
}

func TestEvalPercentChange_StrengthCappedAtOne(t *testing.T) {
	env := envFor([]float64{100, 350})
	cond := domain.ConditionSpec{
		Operator: domain.OperatorPercentChange,
		Left:     domain.Ref(domain.ColumnClose),
		Lookback: 1,
	}

	out := evalCondition(cond, env)
	if !out.satisfied || !closeEnough(out.strength, 1.0) {
		t.Errorf("got satisfied=%v strength=%f, want strength capped at 1.0", out.satisfied, out.strength)
	}
}
