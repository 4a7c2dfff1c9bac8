// Package indicator provides pure technical-indicator functions over
// OHLCV series plus the static registry consulted by both specification
// validation and the template compiler.
package indicator

import (
	"strategy-lab/internal/domain"
)

// Func computes an indicator. The returned map is keyed by output suffix:
// single-output indicators use the empty suffix, multi-output indicators
// use the suffixes declared in their registry entry. Every returned slice
// is aligned with the input series; insufficient history yields leading
// NaN values, never an error.
//
// source is the resolved source series (defaults to close); indicators
// that require full OHLCV ignore it and read columns from series directly.
type Func func(series domain.Series, source []float64, params map[string]float64) map[string][]float64

// Entry describes one registered indicator.
type Entry struct {
	Compute  Func
	Suffixes []string // non-empty for multi-output indicators
}

// MultiOutput reports whether the indicator expands into suffixed keys.
func (e Entry) MultiOutput() bool {
	return len(e.Suffixes) > 0
}

// registry maps indicator names to their implementations.
// Static: populated once, read-only afterwards.
var registry = map[string]Entry{
	"sma":        {Compute: computeSMA},
	"ema":        {Compute: computeEMA},
	"rsi":        {Compute: computeRSI},
	"momentum":   {Compute: computeMomentum},
	"atr":        {Compute: computeATR},
	"obv":        {Compute: computeOBV},
	"volume_sma": {Compute: computeVolumeSMA},
	"macd":       {Compute: computeMACD, Suffixes: []string{"macd", "signal", "hist"}},
	"bollinger":  {Compute: computeBollinger, Suffixes: []string{"upper", "middle", "lower"}},
	"stochastic": {Compute: computeStochastic, Suffixes: []string{"k", "d"}},
}

// Lookup returns the registry entry for name.
func Lookup(name string) (Entry, bool) {
	e, ok := registry[name]
	return e, ok
}

// IsRegistered reports whether name is a known indicator.
func IsRegistered(name string) bool {
	_, ok := registry[name]
	return ok
}

// ExpandOutputKeys returns the full list of output keys an indicator spec
// declares: the output key itself for single-output indicators, or one
// suffixed key per output line for multi-output ones. Returns nil for an
// unregistered name.
func ExpandOutputKeys(name, outputKey string) []string {
	e, ok := registry[name]
	if !ok {
		return nil
	}
	if !e.MultiOutput() {
		return []string{outputKey}
	}
	keys := make([]string, len(e.Suffixes))
	for i, suffix := range e.Suffixes {
		keys[i] = outputKey + "_" + suffix
	}
	return keys
}
