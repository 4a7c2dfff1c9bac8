package compiler

import (
	"math"

	"strategy-lab/internal/domain"
)

// outcome is the result of evaluating one condition or composite:
// a satisfied flag plus a strength in [0, 1].
type outcome struct {
	satisfied bool
	strength  float64
}

var notSatisfied = outcome{}

// evalEnv holds the data a condition evaluates against: the window and
// the memoized indicator values.
type evalEnv struct {
	window domain.Series
	values map[string][]float64
}

// at resolves an operand at a bar index. ok is false for an undefined
// value (NaN, unknown key, out of range).
func (e *evalEnv) at(op domain.Operand, idx int) (float64, bool) {
	if op.IsConstant() {
		return *op.Value, true
	}
	if idx < 0 || idx >= len(e.window) {
		return 0, false
	}

	var v float64
	if series, ok := e.values[op.Key]; ok {
		v = series[idx]
	} else if domain.IsPriceColumn(op.Key) {
		v = priceAt(e.window[idx], op.Key)
	} else {
		return 0, false
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// series resolves an operand as a full aligned series, or nil.
func (e *evalEnv) series(op domain.Operand) []float64 {
	if op.IsConstant() {
		out := make([]float64, len(e.window))
		for i := range out {
			out[i] = *op.Value
		}
		return out
	}
	if s, ok := e.values[op.Key]; ok {
		return s
	}
	if domain.IsPriceColumn(op.Key) {
		return e.window.Column(op.Key)
	}
	return nil
}

func priceAt(bar domain.Bar, column string) float64 {
	switch column {
	case domain.ColumnOpen:
		return bar.Open
	case domain.ColumnHigh:
		return bar.High
	case domain.ColumnLow:
		return bar.Low
	case domain.ColumnClose:
		return bar.Close
	case domain.ColumnVolume:
		return bar.Volume
	}
	return math.NaN()
}

// evalComposite evaluates ALL_OF/ANY_OF logic recursively (one level of
// nesting). An empty condition list is never satisfied. Strength is the
// mean of the satisfied children's strengths.
func evalComposite(cc domain.CompositeCondition, env *evalEnv, allowNested bool) outcome {
	total := len(cc.Conditions)
	if allowNested {
		total += len(cc.Nested)
	}
	if total == 0 {
		return notSatisfied
	}

	outcomes := make([]outcome, 0, total)
	for _, cond := range cc.Conditions {
		outcomes = append(outcomes, evalCondition(cond, env))
	}
	if allowNested {
		for _, nested := range cc.Nested {
			outcomes = append(outcomes, evalComposite(nested, env, false))
		}
	}

	satisfiedCount := 0
	strengthSum := 0.0
	for _, out := range outcomes {
		if out.satisfied {
			satisfiedCount++
			strengthSum += out.strength
		}
	}

	switch cc.Logic {
	case domain.LogicAllOf:
		if satisfiedCount != len(outcomes) {
			return notSatisfied
		}
	case domain.LogicAnyOf:
		if satisfiedCount == 0 {
			return notSatisfied
		}
	default:
		return notSatisfied
	}

	return outcome{satisfied: true, strength: strengthSum / float64(satisfiedCount)}
}

// evalCondition evaluates one condition. A fault inside the evaluation is
// caught and treated as "not satisfied" for that condition only.
func evalCondition(cond domain.ConditionSpec, env *evalEnv) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = notSatisfied
		}
	}()

	switch cond.Operator {
	case domain.OperatorCrossAbove:
		return evalCross(cond, env, true)
	case domain.OperatorCrossBelow:
		return evalCross(cond, env, false)
	case domain.OperatorGreaterThan:
		return evalComparison(cond, env, true)
	case domain.OperatorLessThan:
		return evalComparison(cond, env, false)
	case domain.OperatorBetween:
		return evalBetween(cond, env)
	case domain.OperatorSlopePositive:
		return evalSlopePositive(cond, env)
	case domain.OperatorPercentChange:
		return evalPercentChange(cond, env)
	}
	return notSatisfied
}

// relativeStrength scales with the gap between value and reference,
// floored at 0.5 when the reference is exactly zero.
func relativeStrength(value, reference float64) float64 {
	if reference == 0 {
		return 0.5
	}
	return math.Min(1.0, math.Abs(value-reference)/math.Abs(reference))
}

// evalCross checks whether the ordering of the two operands flips between
// the previous and current bar. Both operands must be defined on both bars.
func evalCross(cond domain.ConditionSpec, env *evalEnv, above bool) outcome {
	n := len(env.window)
	prevL, ok1 := env.at(cond.Left, n-2)
	prevR, ok2 := env.at(cond.Right, n-2)
	curL, ok3 := env.at(cond.Left, n-1)
	curR, ok4 := env.at(cond.Right, n-1)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return notSatisfied
	}

	crossed := false
	if above {
		crossed = prevL <= prevR && curL > curR
	} else {
		crossed = prevL >= prevR && curL < curR
	}
	if !crossed {
		return notSatisfied
	}

	return outcome{satisfied: true, strength: relativeStrength(curL, curR)}
}

// evalComparison is a single-bar greater_than / less_than check.
func evalComparison(cond domain.ConditionSpec, env *evalEnv, greater bool) outcome {
	n := len(env.window)
	left, ok1 := env.at(cond.Left, n-1)
	right, ok2 := env.at(cond.Right, n-1)
	if !ok1 || !ok2 {
		return notSatisfied
	}

	if greater && left <= right {
		return notSatisfied
	}
	if !greater && left >= right {
		return notSatisfied
	}

	return outcome{satisfied: true, strength: relativeStrength(left, right)}
}

// evalBetween checks low <= value <= high; strength peaks at 1.0 at the
// midpoint and decays linearly to 0 at the bounds.
func evalBetween(cond domain.ConditionSpec, env *evalEnv) outcome {
	if cond.Low == nil || cond.High == nil {
		return notSatisfied
	}
	low, high := *cond.Low, *cond.High
	if high < low {
		return notSatisfied
	}

	value, ok := env.at(cond.Left, len(env.window)-1)
	if !ok || value < low || value > high {
		return notSatisfied
	}

	if high == low {
		return outcome{satisfied: true, strength: 1.0}
	}
	mid := (low + high) / 2
	half := (high - low) / 2
	return outcome{satisfied: true, strength: 1.0 - math.Abs(value-mid)/half}
}

// evalSlopePositive fits a least-squares slope over the last lookback
// defined points of the left operand. Strength is the slope magnitude
// normalized by the segment's mean absolute value, capped at 1.
func evalSlopePositive(cond domain.ConditionSpec, env *evalEnv) outcome {
	lookback := cond.Lookback
	if lookback <= 1 {
		lookback = 5
	}

	series := env.series(cond.Left)
	if series == nil {
		return notSatisfied
	}

	var segment []float64
	for i := len(series) - 1; i >= 0 && len(segment) < lookback; i-- {
		if !math.IsNaN(series[i]) && !math.IsInf(series[i], 0) {
			segment = append([]float64{series[i]}, segment...)
		}
	}
	if len(segment) < 2 {
		return notSatisfied
	}

	slope := leastSquaresSlope(segment)
	if slope <= 0 {
		return notSatisfied
	}

	meanAbs := 0.0
	for _, v := range segment {
		meanAbs += math.Abs(v)
	}
	meanAbs /= float64(len(segment))
	if meanAbs == 0 {
		return outcome{satisfied: true, strength: 0.5}
	}

	return outcome{satisfied: true, strength: math.Min(1.0, slope/meanAbs)}
}

// leastSquaresSlope fits y = a + b*x over x = 0..n-1 and returns b.
func leastSquaresSlope(values []float64) float64 {
	n := float64(len(values))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// evalPercentChange compares the left operand's current value to its
// value lookback bars back. Satisfied iff the fractional change exceeds
// the threshold; strength is the excess over the threshold, capped at 1.
func evalPercentChange(cond domain.ConditionSpec, env *evalEnv) outcome {
	lookback := cond.Lookback
	if lookback <= 0 {
		lookback = 1
	}
	threshold := 0.0
	if cond.Threshold != nil {
		threshold = *cond.Threshold
	}

	n := len(env.window)
	current, ok1 := env.at(cond.Left, n-1)
	past, ok2 := env.at(cond.Left, n-1-lookback)
	if !ok1 || !ok2 || past == 0 {
		return notSatisfied
	}

	change := (current - past) / math.Abs(past)
	if change <= threshold {
		return notSatisfied
	}

	return outcome{satisfied: true, strength: math.Min(1.0, change-threshold)}
}
