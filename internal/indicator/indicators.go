package indicator

import (
	"math"

	"strategy-lab/internal/domain"
)

// paramInt reads an integer parameter with a default.
func paramInt(params map[string]float64, key string, def int) int {
	if v, ok := params[key]; ok && v > 0 {
		return int(v)
	}
	return def
}

// paramFloat reads a float parameter with a default.
func paramFloat(params map[string]float64, key string, def float64) float64 {
	if v, ok := params[key]; ok {
		return v
	}
	return def
}

// nanSlice returns a slice of n NaN values.
func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func single(values []float64) map[string][]float64 {
	return map[string][]float64{"": values}
}

// sma computes a simple moving average of values over period.
// First period-1 entries are NaN.
func sma(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// ema computes an exponential moving average by span, seeded with the
// simple average of the first span values. First span-1 entries are NaN.
func ema(values []float64, span int) []float64 {
	out := nanSlice(len(values))
	if span <= 0 || len(values) < span {
		return out
	}

	seed := 0.0
	for i := 0; i < span; i++ {
		seed += values[i]
	}
	seed /= float64(span)
	out[span-1] = seed

	alpha := 2.0 / (float64(span) + 1.0)
	prev := seed
	for i := span; i < len(values); i++ {
		prev = alpha*values[i] + (1-alpha)*prev
		out[i] = prev
	}
	return out
}

func computeSMA(_ domain.Series, source []float64, params map[string]float64) map[string][]float64 {
	return single(sma(source, paramInt(params, "period", 20)))
}

func computeEMA(_ domain.Series, source []float64, params map[string]float64) map[string][]float64 {
	return single(ema(source, paramInt(params, "span", 20)))
}

// computeRSI computes the bounded oscillator with Wilder smoothing.
// First period entries are NaN.
func computeRSI(_ domain.Series, source []float64, params map[string]float64) map[string][]float64 {
	period := paramInt(params, "period", 14)
	out := nanSlice(len(source))
	if len(source) < period+1 {
		return single(out)
	}

	avgGain := 0.0
	avgLoss := 0.0
	for i := 1; i <= period; i++ {
		delta := source[i] - source[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss += -delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(source); i++ {
		delta := source[i] - source[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return single(out)
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// computeMomentum computes the difference from the value period bars back.
func computeMomentum(_ domain.Series, source []float64, params map[string]float64) map[string][]float64 {
	period := paramInt(params, "period", 10)
	out := nanSlice(len(source))
	for i := period; i < len(source); i++ {
		out[i] = source[i] - source[i-period]
	}
	return single(out)
}

// computeMACD computes the moving average convergence/divergence lines.
func computeMACD(_ domain.Series, source []float64, params map[string]float64) map[string][]float64 {
	fast := paramInt(params, "fast", 12)
	slow := paramInt(params, "slow", 26)
	signalSpan := paramInt(params, "signal", 9)

	fastEMA := ema(source, fast)
	slowEMA := ema(source, slow)

	macd := nanSlice(len(source))
	for i := range source {
		if !math.IsNaN(fastEMA[i]) && !math.IsNaN(slowEMA[i]) {
			macd[i] = fastEMA[i] - slowEMA[i]
		}
	}

	// Signal line smooths the defined portion of the MACD line.
	signal := nanSlice(len(source))
	defined := firstDefined(macd)
	if defined >= 0 {
		smoothed := ema(macd[defined:], signalSpan)
		copy(signal[defined:], smoothed)
	}

	hist := nanSlice(len(source))
	for i := range source {
		if !math.IsNaN(macd[i]) && !math.IsNaN(signal[i]) {
			hist[i] = macd[i] - signal[i]
		}
	}

	return map[string][]float64{"macd": macd, "signal": signal, "hist": hist}
}

// computeBollinger computes the three-band envelope around a simple average.
func computeBollinger(_ domain.Series, source []float64, params map[string]float64) map[string][]float64 {
	period := paramInt(params, "period", 20)
	numStd := paramFloat(params, "num_std", 2.0)

	middle := sma(source, period)
	upper := nanSlice(len(source))
	lower := nanSlice(len(source))

	for i := period - 1; i < len(source); i++ {
		if math.IsNaN(middle[i]) {
			continue
		}
		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := source[j] - middle[i]
			variance += d * d
		}
		std := math.Sqrt(variance / float64(period))
		upper[i] = middle[i] + numStd*std
		lower[i] = middle[i] - numStd*std
	}

	return map[string][]float64{"upper": upper, "middle": middle, "lower": lower}
}

// computeATR computes the Wilder-smoothed average true range.
func computeATR(series domain.Series, _ []float64, params map[string]float64) map[string][]float64 {
	period := paramInt(params, "period", 14)
	out := nanSlice(len(series))
	if len(series) < period+1 {
		return single(out)
	}

	tr := make([]float64, len(series))
	tr[0] = series[0].High - series[0].Low
	for i := 1; i < len(series); i++ {
		hl := series[i].High - series[i].Low
		hc := math.Abs(series[i].High - series[i-1].Close)
		lc := math.Abs(series[i].Low - series[i-1].Close)
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	atr := 0.0
	for i := 1; i <= period; i++ {
		atr += tr[i]
	}
	atr /= float64(period)
	out[period] = atr

	for i := period + 1; i < len(series); i++ {
		atr = (atr*float64(period-1) + tr[i]) / float64(period)
		out[i] = atr
	}
	return single(out)
}

// computeOBV computes on-balance volume: cumulative volume signed by the
// close-to-close direction. Defined from the first bar.
func computeOBV(series domain.Series, _ []float64, _ map[string]float64) map[string][]float64 {
	out := make([]float64, len(series))
	if len(series) == 0 {
		return single(out)
	}

	obv := 0.0
	for i := 1; i < len(series); i++ {
		switch {
		case series[i].Close > series[i-1].Close:
			obv += series[i].Volume
		case series[i].Close < series[i-1].Close:
			obv -= series[i].Volume
		}
		out[i] = obv
	}
	return single(out)
}

func computeVolumeSMA(series domain.Series, _ []float64, params map[string]float64) map[string][]float64 {
	return single(sma(series.Column(domain.ColumnVolume), paramInt(params, "period", 20)))
}

// computeStochastic computes the %K/%D oscillator over high/low ranges.
func computeStochastic(series domain.Series, _ []float64, params map[string]float64) map[string][]float64 {
	kPeriod := paramInt(params, "k_period", 14)
	dPeriod := paramInt(params, "d_period", 3)

	k := nanSlice(len(series))
	for i := kPeriod - 1; i < len(series); i++ {
		lowest := math.Inf(1)
		highest := math.Inf(-1)
		for j := i - kPeriod + 1; j <= i; j++ {
			lowest = math.Min(lowest, series[j].Low)
			highest = math.Max(highest, series[j].High)
		}
		if highest == lowest {
			k[i] = 50
			continue
		}
		k[i] = 100 * (series[i].Close - lowest) / (highest - lowest)
	}

	d := nanSlice(len(series))
	defined := firstDefined(k)
	if defined >= 0 {
		smoothed := sma(k[defined:], dPeriod)
		copy(d[defined:], smoothed)
	}

	return map[string][]float64{"k": k, "d": d}
}

// firstDefined returns the index of the first non-NaN value, or -1.
func firstDefined(values []float64) int {
	for i, v := range values {
		if !math.IsNaN(v) {
			return i
		}
	}
	return -1
}
