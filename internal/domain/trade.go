package domain

import "time"

// Trade sides.
const (
	SideLong = "long"
)

// Trade represents one closed round-trip position.
// Created when the backtester closes an open position; immutable thereafter.
type Trade struct {
	Ticker     string    `json:"ticker"`
	EntryDate  time.Time `json:"entry_date"`
	ExitDate   time.Time `json:"exit_date"`
	Side       string    `json:"side"`
	Quantity   float64   `json:"quantity"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	PnL        float64   `json:"pnl"`
	ReturnPct  float64   `json:"return_pct"`
}

// EquityPoint is one sample of the running account value.
type EquityPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// PerformanceMetrics summarizes a backtest run.
type PerformanceMetrics struct {
	SharpeRatio    float64 `json:"sharpe_ratio"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	WinRate        float64 `json:"win_rate"`
	TotalPnL       float64 `json:"total_pnl"`
	GrossProfit    float64 `json:"gross_profit"`
	GrossLoss      float64 `json:"gross_loss"`
	TotalReturnPct float64 `json:"total_return_pct"`
	NumTrades      int     `json:"num_trades"`
	CommissionPaid float64 `json:"commission_paid"`
}

// BacktestResult holds the output of one walk-forward run.
// Created once per run, owned by the caller.
type BacktestResult struct {
	Metrics     PerformanceMetrics `json:"metrics"`
	Trades      []*Trade           `json:"trades"`
	EquityCurve []EquityPoint      `json:"equity_curve"`
	WindowsUsed int                `json:"windows_used"`
}
