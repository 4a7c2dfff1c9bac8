package backtest

import (
	"math"

	"strategy-lab/internal/domain"
)

// tradingDaysPerYear is the annualization factor for daily returns.
const tradingDaysPerYear = 252

// computeMetrics summarizes a trade ledger and equity curve.
func computeMetrics(trades []*domain.Trade, equity []domain.EquityPoint, cfg Config) domain.PerformanceMetrics {
	m := domain.PerformanceMetrics{
		NumTrades:      len(trades),
		CommissionPaid: float64(len(trades)) * cfg.CommissionPerTrade,
	}

	wins := 0
	for _, t := range trades {
		m.TotalPnL += t.PnL
		if t.PnL > 0 {
			wins++
			m.GrossProfit += t.PnL
		} else {
			m.GrossLoss += -t.PnL
		}
	}
	if len(trades) > 0 {
		m.WinRate = float64(wins) / float64(len(trades))
	}
	if cfg.InitialCapital > 0 {
		m.TotalReturnPct = m.TotalPnL / cfg.InitialCapital * 100
	}

	m.SharpeRatio = sharpeRatio(dailyReturns(equity), cfg.RiskFreeRate)
	m.MaxDrawdown = maxDrawdown(equity)

	return m
}

// dailyReturns derives fractional day-over-day returns from the equity curve.
func dailyReturns(equity []domain.EquityPoint) []float64 {
	if len(equity) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Value
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (equity[i].Value-prev)/prev)
	}
	return returns
}

// sharpeRatio annualizes mean excess daily return over its standard
// deviation. Zero-variance curves score 0.
func sharpeRatio(returns []float64, annualRiskFree float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	dailyRiskFree := annualRiskFree / tradingDaysPerYear
	mean := 0.0
	for _, r := range returns {
		mean += r - dailyRiskFree
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := (r - dailyRiskFree) - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)
	if variance == 0 {
		return 0
	}

	return mean / math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear)
}

// maxDrawdown is the largest peak-to-trough fractional decline of the
// equity curve.
func maxDrawdown(equity []domain.EquityPoint) float64 {
	if len(equity) == 0 {
		return 0
	}

	peak := equity[0].Value
	worst := 0.0
	for _, p := range equity {
		if p.Value > peak {
			peak = p.Value
		}
		if peak > 0 {
			dd := (peak - p.Value) / peak
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
