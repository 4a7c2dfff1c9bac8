package reporting

import (
	"fmt"
	"strings"

	"strategy-lab/internal/domain"
)

// RenderTradeCSV renders a trade ledger as a CSV string.
func RenderTradeCSV(trades []*domain.Trade) string {
	var sb strings.Builder

	sb.WriteString("ticker,entry_date,exit_date,side,quantity,entry_price,exit_price,pnl,return_pct\n")

	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%.6f,%.6f,%.6f,%.6f,%.6f\n",
			t.Ticker,
			t.EntryDate.Format("2006-01-02"),
			t.ExitDate.Format("2006-01-02"),
			t.Side,
			t.Quantity,
			t.EntryPrice,
			t.ExitPrice,
			t.PnL,
			t.ReturnPct,
		))
	}

	return sb.String()
}

// RenderEquityCSV renders an equity curve as a CSV string.
func RenderEquityCSV(curve []domain.EquityPoint) string {
	var sb strings.Builder

	sb.WriteString("date,equity\n")
	for _, p := range curve {
		sb.WriteString(fmt.Sprintf("%s,%.6f\n", p.Date.Format("2006-01-02"), p.Value))
	}
	return sb.String()
}
