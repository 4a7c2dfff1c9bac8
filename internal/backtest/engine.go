// Package backtest rolls a compiled strategy over historical data in
// successive train/test windows, simulating fills with slippage and
// commission, and produces a trade ledger, equity curve and performance
// summary.
package backtest

import (
	"strategy-lab/internal/compiler"
	"strategy-lab/internal/domain"
)

// Config holds walk-forward and execution-cost parameters.
type Config struct {
	TrainWindowDays    int     `yaml:"train_window_days"`
	TestWindowDays     int     `yaml:"test_window_days"`
	StepDays           int     `yaml:"step_days"`
	SlippagePct        float64 `yaml:"slippage_pct"`
	CommissionPerTrade float64 `yaml:"commission_per_trade"`
	InitialCapital     float64 `yaml:"initial_capital"`
	RiskFreeRate       float64 `yaml:"risk_free_rate"`
}

// DefaultConfig returns the standard walk-forward parameters.
func DefaultConfig() Config {
	return Config{
		TrainWindowDays:    180,
		TestWindowDays:     60,
		StepDays:           60,
		SlippagePct:        0.001,
		CommissionPerTrade: 1.0,
		InitialCapital:     100_000,
		RiskFreeRate:       0.02,
	}
}

// window is one (train, test) pair of index ranges into the series.
type window struct {
	trainStart int
	testStart  int // == trainStart + train days
	testEnd    int // exclusive
}

// position is the single open position the engine tracks.
type position struct {
	entryDate  int // bar index
	entryPrice float64
	quantity   float64
}

// Engine is the walk-forward backtester. Stateless across runs.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with the given configuration.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Run executes the walk-forward simulation of one compiled strategy over
// a single historical series. A series shorter than train+test yields
// zero windows and an empty result.
func (e *Engine) Run(strategy *compiler.CompiledStrategy, series domain.Series) *domain.BacktestResult {
	windows := e.partition(len(series))

	var trades []*domain.Trade
	var equity []domain.EquityPoint
	realized := 0.0

	for _, w := range windows {
		var open *position

		for i := w.testStart; i < w.testEnd; i++ {
			visible := series[w.trainStart : i+1]
			if len(visible) < 2 {
				continue
			}

			signal := strategy.GenerateSignal(visible)
			bar := series[i]

			switch {
			case signal != nil && signal.Action == compiler.ActionBuy && open == nil:
				fill := e.buyFill(bar.Close)
				open = &position{
					entryDate:  i,
					entryPrice: fill,
					quantity:   e.cfg.InitialCapital / fill,
				}
			case signal != nil && signal.Action == compiler.ActionSell && open != nil:
				trade := e.closePosition(series, open, i)
				trades = append(trades, trade)
				realized += trade.PnL
				open = nil
			}
			// A sell with no open position, or a buy while holding,
			// is a no-op.

			equity = append(equity, domain.EquityPoint{
				Date:  bar.Date,
				Value: e.cfg.InitialCapital + realized,
			})
		}

		// Force-close at the test window's final bar.
		if open != nil {
			trade := e.closePosition(series, open, w.testEnd-1)
			trades = append(trades, trade)
			realized += trade.PnL
			if len(equity) > 0 {
				equity[len(equity)-1].Value = e.cfg.InitialCapital + realized
			}
		}
	}

	return &domain.BacktestResult{
		Metrics:     computeMetrics(trades, equity, e.cfg),
		Trades:      trades,
		EquityCurve: equity,
		WindowsUsed: len(windows),
	}
}

// partition splits n bars into successive (train, test) windows advancing
// by step days.
func (e *Engine) partition(n int) []window {
	train, test, step := e.cfg.TrainWindowDays, e.cfg.TestWindowDays, e.cfg.StepDays
	if train <= 0 || test <= 0 || step <= 0 {
		return nil
	}

	var windows []window
	for start := 0; start+train+test <= n; start += step {
		windows = append(windows, window{
			trainStart: start,
			testStart:  start + train,
			testEnd:    start + train + test,
		})
	}
	return windows
}

// buyFill applies slippage against the buyer.
func (e *Engine) buyFill(price float64) float64 {
	return price * (1 + e.cfg.SlippagePct)
}

// sellFill applies slippage against the seller.
func (e *Engine) sellFill(price float64) float64 {
	return price * (1 - e.cfg.SlippagePct)
}

// closePosition fills the exit at bar index i and appends the commission
// for the round trip.
func (e *Engine) closePosition(series domain.Series, open *position, i int) *domain.Trade {
	exitFill := e.sellFill(series[i].Close)
	pnl := (exitFill-open.entryPrice)*open.quantity - e.cfg.CommissionPerTrade

	return &domain.Trade{
		Ticker:     series[i].Ticker,
		EntryDate:  series[open.entryDate].Date,
		ExitDate:   series[i].Date,
		Side:       domain.SideLong,
		Quantity:   open.quantity,
		EntryPrice: open.entryPrice,
		ExitPrice:  exitFill,
		PnL:        pnl,
		ReturnPct:  (exitFill - open.entryPrice) / open.entryPrice * 100,
	}
}
