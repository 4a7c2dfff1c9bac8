package domain

import "time"

// PeriodConfig names one historical evaluation window and its weight in
// the composite score.
type PeriodConfig struct {
	Name   string    `json:"name" yaml:"name"`
	Start  time.Time `json:"start" yaml:"start"`
	End    time.Time `json:"end" yaml:"end"`
	Weight float64   `json:"weight" yaml:"weight"`
}

// PeriodResult is the outcome of backtesting one period.
type PeriodResult struct {
	Period      PeriodConfig    `json:"period"`
	Result      *BacktestResult `json:"backtest_result,omitempty"`
	PassedFloor bool            `json:"passed_floor"`
}

// MultiPeriodResult aggregates per-period results for one strategy.
// CompositeScore stays 0 and Disqualified is true if any period fails its
// floor or its data is unavailable; there is no partial credit.
type MultiPeriodResult struct {
	StrategyName           string          `json:"strategy_name"`
	PeriodResults          []*PeriodResult `json:"period_results"`
	CompositeScore         float64         `json:"composite_score"`
	PassedAllFloors        bool            `json:"passed_all_floors"`
	Disqualified           bool            `json:"disqualified"`
	DisqualificationReason string          `json:"disqualification_reason,omitempty"`
}

// TournamentResult holds the ranked outcome of one evolution cycle.
type TournamentResult struct {
	AllResults  []*MultiPeriodResult `json:"all_results"`
	Survivors   []*MultiPeriodResult `json:"survivors"`
	Eliminated  []*MultiPeriodResult `json:"eliminated"`
	CycleNumber int                  `json:"cycle_number"`
}

// StrategyScore is one persisted spec+score row produced per cycle.
type StrategyScore struct {
	Fingerprint    string                 `json:"fingerprint"`
	StrategyName   string                 `json:"strategy_name"`
	CycleNumber    int                    `json:"cycle_number"`
	Spec           *StrategySpecification `json:"spec"`
	CompositeScore float64                `json:"composite_score"`
	Disqualified   bool                   `json:"disqualified"`
	Reason         string                 `json:"reason,omitempty"`
	CreatedAt      int64                  `json:"created_at"`
}
