package indicator

import (
	"math"
	"testing"
	"time"

	"strategy-lab/internal/domain"
)

// makeSeries builds a daily series from close prices.
// High/low bracket the close, volume is constant.
func makeSeries(closes []float64) domain.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make(domain.Series, len(closes))
	for i, c := range closes {
		series[i] = domain.Bar{
			Ticker: "TEST",
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1000,
		}
	}
	return series
}

func TestSMA_Values(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	out := sma(closes, 3)

	for i := 0; i < 2; i++ {
		if !math.IsNaN(out[i]) {
			t.Errorf("index %d: expected NaN, got %f", i, out[i])
		}
	}

	expected := []float64{2, 3, 4}
	for i, want := range expected {
		got := out[i+2]
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("index %d: expected %f, got %f", i+2, want, got)
		}
	}
}

func TestSMA_InsufficientHistory(t *testing.T) {
	out := sma([]float64{1, 2}, 5)
	for i, v := range out {
		if !math.IsNaN(v) {
			t.Errorf("index %d: expected NaN for short input, got %f", i, v)
		}
	}
}

func TestEMA_SeededWithSimpleAverage(t *testing.T) {
	closes := []float64{2, 4, 6, 8, 10}
	out := ema(closes, 3)

	if !math.IsNaN(out[0]) || !math.IsNaN(out[1]) {
		t.Error("expected NaN before the seed index")
	}
	if math.Abs(out[2]-4.0) > 1e-9 {
		t.Errorf("expected seed 4.0, got %f", out[2])
	}

	// alpha = 0.5 for span 3
	want := 0.5*8 + 0.5*4.0
	if math.Abs(out[3]-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, out[3])
	}
}

func TestRSI_AllGains(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	result := computeRSI(nil, closes, map[string]float64{"period": 5})
	out := result[""]

	for i := 0; i <= 4; i++ {
		if !math.IsNaN(out[i]) {
			t.Errorf("index %d: expected NaN, got %f", i, out[i])
		}
	}
	for i := 5; i < len(out); i++ {
		if out[i] != 100 {
			t.Errorf("index %d: strictly rising series should give RSI 100, got %f", i, out[i])
		}
	}
}

func TestMACD_OutputsAligned(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	result := computeMACD(nil, closes, map[string]float64{"fast": 5, "slow": 10, "signal": 3})

	for _, suffix := range []string{"macd", "signal", "hist"} {
		if len(result[suffix]) != len(closes) {
			t.Fatalf("%s: expected length %d, got %d", suffix, len(closes), len(result[suffix]))
		}
	}

	last := len(closes) - 1
	if math.IsNaN(result["macd"][last]) || math.IsNaN(result["signal"][last]) {
		t.Error("expected defined MACD/signal at the final bar")
	}
	// Constant slope: fast EMA sits above slow EMA.
	if result["macd"][last] <= 0 {
		t.Errorf("expected positive MACD on rising series, got %f", result["macd"][last])
	}
}

func TestBollinger_BandsBracketMiddle(t *testing.T) {
	closes := []float64{10, 11, 9, 12, 10, 11, 13, 9, 10, 12}
	result := computeBollinger(nil, closes, map[string]float64{"period": 5, "num_std": 2})

	for i := 4; i < len(closes); i++ {
		upper := result["upper"][i]
		middle := result["middle"][i]
		lower := result["lower"][i]
		if upper < middle || middle < lower {
			t.Errorf("index %d: bands out of order: %f %f %f", i, upper, middle, lower)
		}
	}
}

func TestATR_PositiveAfterWarmup(t *testing.T) {
	series := makeSeries([]float64{10, 10.5, 10.2, 10.8, 10.4, 11, 10.9, 11.2, 11.5, 11.1})
	result := computeATR(series, nil, map[string]float64{"period": 5})
	out := result[""]

	for i := 0; i < 5; i++ {
		if !math.IsNaN(out[i]) {
			t.Errorf("index %d: expected NaN during warmup, got %f", i, out[i])
		}
	}
	for i := 5; i < len(out); i++ {
		if out[i] <= 0 {
			t.Errorf("index %d: expected positive ATR, got %f", i, out[i])
		}
	}
}

func TestOBV_SignsVolume(t *testing.T) {
	series := makeSeries([]float64{10, 11, 10.5, 10.5, 12})
	result := computeOBV(series, nil, nil)
	out := result[""]

	expected := []float64{0, 1000, 0, 0, 1000}
	for i, want := range expected {
		if out[i] != want {
			t.Errorf("index %d: expected %f, got %f", i, want, out[i])
		}
	}
}

func TestStochastic_FlatRangeIsMidline(t *testing.T) {
	series := make(domain.Series, 10)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range series {
		series[i] = domain.Bar{Date: start.AddDate(0, 0, i), Open: 10, High: 10, Low: 10, Close: 10, Volume: 100}
	}
	result := computeStochastic(series, nil, map[string]float64{"k_period": 5, "d_period": 3})

	if result["k"][9] != 50 {
		t.Errorf("flat range should give %%K=50, got %f", result["k"][9])
	}
}

func TestRegistry_Lookup(t *testing.T) {
	for _, name := range []string{"sma", "ema", "rsi", "macd", "bollinger", "atr", "obv", "volume_sma", "stochastic", "momentum"} {
		if !IsRegistered(name) {
			t.Errorf("expected %s to be registered", name)
		}
	}
	if IsRegistered("unknown_indicator") {
		t.Error("unknown name should not be registered")
	}
}

func TestExpandOutputKeys(t *testing.T) {
	keys := ExpandOutputKeys("sma", "sma_20")
	if len(keys) != 1 || keys[0] != "sma_20" {
		t.Errorf("single-output expansion wrong: %v", keys)
	}

	keys = ExpandOutputKeys("macd", "m")
	want := []string{"m_macd", "m_signal", "m_hist"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(keys))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d: expected %s, got %s", i, want[i], keys[i])
		}
	}

	if ExpandOutputKeys("nope", "x") != nil {
		t.Error("unregistered name should expand to nil")
	}
}
