// Package compiler turns a validated strategy specification into an
// executable decision procedure: an indicator dependency graph plus
// condition-tree evaluation producing trade signals.
package compiler

import (
	"fmt"
	"math"
	"strings"

	"strategy-lab/internal/domain"
	"strategy-lab/internal/indicator"
)

// Action is the kind of signal a strategy emits.
type Action string

// Signal actions.
const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Signal is one trade signal produced over a data window.
type Signal struct {
	Action   Action
	Strength float64
	Reason   string
}

// CompiledStrategy owns one validated specification. It is stateless
// across calls; the specification is immutable once compiled.
type CompiledStrategy struct {
	spec *domain.StrategySpecification
}

// Compile validates the specification and builds an executable strategy.
// This is the single enforcement gate for spec well-formedness: it fails
// immediately on any validation error, and downstream components may
// assume a compiled spec is well-formed.
func Compile(spec *domain.StrategySpecification) (*CompiledStrategy, error) {
	if errs := Validate(spec); len(errs) > 0 {
		return nil, fmt.Errorf("invalid specification %q: %s", specName(spec), strings.Join(errs, "; "))
	}
	return &CompiledStrategy{spec: spec}, nil
}

func specName(spec *domain.StrategySpecification) string {
	if spec == nil {
		return ""
	}
	return spec.Name
}

// Name returns the strategy name.
func (c *CompiledStrategy) Name() string {
	return c.spec.Name
}

// Spec returns the owned specification.
func (c *CompiledStrategy) Spec() *domain.StrategySpecification {
	return c.spec
}

// GenerateSignal evaluates the strategy over a data window and returns at
// most one signal: a buy if entry conditions are satisfied, else a sell if
// exit conditions are, else nil. Entry has priority over exit on the same
// bar. Never panics for a well-formed window; windows shorter than two
// bars yield nil.
func (c *CompiledStrategy) GenerateSignal(window domain.Series) *Signal {
	if len(window) < 2 {
		return nil
	}

	values := c.computeIndicators(window)
	env := &evalEnv{window: window, values: values}

	if out := evalComposite(c.spec.EntryConditions, env, true); out.satisfied {
		return &Signal{Action: ActionBuy, Strength: clampStrength(out.strength), Reason: "entry conditions satisfied"}
	}
	if out := evalComposite(c.spec.ExitConditions, env, true); out.satisfied {
		return &Signal{Action: ActionSell, Strength: clampStrength(out.strength), Reason: "exit conditions satisfied"}
	}
	return nil
}

// clampStrength clamps an emitted strength to (0.01, 1.0].
func clampStrength(s float64) float64 {
	if math.IsNaN(s) || s < 0.01 {
		return 0.01
	}
	if s > 1.0 {
		return 1.0
	}
	return s
}

// computeIndicators computes every declared indicator, memoized by output
// key, in two passes: base indicators first, then those sourcing another
// indicator's output (exactly one hop of nesting). A failing indicator is
// substituted with an all-NaN series rather than propagating.
func (c *CompiledStrategy) computeIndicators(window domain.Series) map[string][]float64 {
	values := make(map[string][]float64)

	var deferred []domain.IndicatorSpec
	for _, ind := range c.spec.Indicators {
		if ind.Source != "" && !domain.IsPriceColumn(ind.Source) {
			deferred = append(deferred, ind)
			continue
		}
		c.computeOne(ind, window, values)
	}
	for _, ind := range deferred {
		c.computeOne(ind, window, values)
	}

	return values
}

// computeOne runs a single indicator and stores its outputs under their
// expanded keys. Faults are isolated to this indicator.
func (c *CompiledStrategy) computeOne(ind domain.IndicatorSpec, window domain.Series, values map[string][]float64) {
	entry, ok := indicator.Lookup(ind.Name)
	if !ok {
		// Unreachable after validation; keep the substitution contract.
		c.substituteNaN(ind, len(window), values)
		return
	}

	source := c.resolveSource(ind, window, values)
	outputs := safeCompute(entry.Compute, window, source, ind.Params)
	if outputs == nil {
		c.substituteNaN(ind, len(window), values)
		return
	}

	if !entry.MultiOutput() {
		values[ind.OutputKey] = outputs[""]
		return
	}
	for _, suffix := range entry.Suffixes {
		values[ind.OutputKey+"_"+suffix] = outputs[suffix]
	}
}

// resolveSource returns the series an indicator reads from: the close
// column by default, a named price column, or another indicator's
// memoized output.
func (c *CompiledStrategy) resolveSource(ind domain.IndicatorSpec, window domain.Series, values map[string][]float64) []float64 {
	switch {
	case ind.Source == "":
		return window.Column(domain.ColumnClose)
	case domain.IsPriceColumn(ind.Source):
		return window.Column(ind.Source)
	default:
		if resolved, ok := values[ind.Source]; ok {
			return resolved
		}
		return nanSeries(len(window))
	}
}

func (c *CompiledStrategy) substituteNaN(ind domain.IndicatorSpec, n int, values map[string][]float64) {
	for _, key := range indicator.ExpandOutputKeys(ind.Name, ind.OutputKey) {
		values[key] = nanSeries(n)
	}
	if !indicator.IsRegistered(ind.Name) {
		values[ind.OutputKey] = nanSeries(n)
	}
}

// safeCompute isolates a panicking indicator, returning nil so the caller
// substitutes an undefined series.
func safeCompute(fn indicator.Func, window domain.Series, source []float64, params map[string]float64) (outputs map[string][]float64) {
	defer func() {
		if r := recover(); r != nil {
			outputs = nil
		}
	}()
	return fn(window, source, params)
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
