// Package reporting renders tournament and backtest results for humans.
package reporting

import (
	"fmt"
	"strings"
	"time"

	"strategy-lab/internal/domain"
)

// RenderMarkdown renders a tournament result as a Markdown string.
func RenderMarkdown(result *domain.TournamentResult, generatedAt time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Tournament Report: Cycle %d\n\n", result.CycleNumber))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", generatedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Strategies: %d | Survivors: %d | Eliminated: %d\n\n",
		len(result.AllResults), len(result.Survivors), len(result.Eliminated)))

	sb.WriteString("## Ranking\n\n")
	if len(result.AllResults) > 0 {
		sb.WriteString("| Rank | Strategy | Composite | Status | Reason |\n")
		sb.WriteString("|------|----------|-----------|--------|--------|\n")
		for i, r := range result.AllResults {
			status := "qualified"
			if r.Disqualified {
				status = "disqualified"
			}
			sb.WriteString(fmt.Sprintf("| %d | %s | %.4f | %s | %s |\n",
				i+1, r.StrategyName, r.CompositeScore, status, r.DisqualificationReason))
		}
	} else {
		sb.WriteString("No strategies evaluated.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Survivors\n\n")
	if len(result.Survivors) > 0 {
		for _, r := range result.Survivors {
			sb.WriteString(fmt.Sprintf("- **%s** (composite %.4f)\n", r.StrategyName, r.CompositeScore))
			for _, pr := range r.PeriodResults {
				if pr.Result == nil {
					continue
				}
				m := pr.Result.Metrics
				sb.WriteString(fmt.Sprintf("  - %s: sharpe %.2f, max drawdown %.2f%%, win rate %.2f%%, %d trades\n",
					pr.Period.Name, m.SharpeRatio, m.MaxDrawdown*100, m.WinRate*100, m.NumTrades))
			}
		}
	} else {
		sb.WriteString("No survivors this cycle.\n")
	}
	sb.WriteString("\n")

	disqualified := 0
	for _, r := range result.AllResults {
		if r.Disqualified {
			disqualified++
		}
	}
	if disqualified > 0 {
		sb.WriteString("## Disqualifications\n\n")
		for _, r := range result.AllResults {
			if r.Disqualified {
				sb.WriteString(fmt.Sprintf("- %s: %s\n", r.StrategyName, r.DisqualificationReason))
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// RenderBacktestMarkdown renders one backtest summary as Markdown.
func RenderBacktestMarkdown(name string, result *domain.BacktestResult, generatedAt time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Backtest Report: %s\n\n", name))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", generatedAt.Format(time.RFC3339)))

	m := result.Metrics
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Windows Used | %d |\n", result.WindowsUsed))
	sb.WriteString(fmt.Sprintf("| Trades | %d |\n", m.NumTrades))
	sb.WriteString(fmt.Sprintf("| Sharpe Ratio | %.4f |\n", m.SharpeRatio))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %.2f%% |\n", m.MaxDrawdown*100))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.2f%% |\n", m.WinRate*100))
	sb.WriteString(fmt.Sprintf("| Total P&L | %.2f |\n", m.TotalPnL))
	sb.WriteString(fmt.Sprintf("| Total Return | %.2f%% |\n", m.TotalReturnPct))
	sb.WriteString(fmt.Sprintf("| Commission Paid | %.2f |\n", m.CommissionPaid))
	sb.WriteString("\n")

	return sb.String()
}
