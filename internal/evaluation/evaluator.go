// Package evaluation scores strategies across multiple historical
// periods and runs tournament selection over candidate batches.
package evaluation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"strategy-lab/internal/backtest"
	"strategy-lab/internal/compiler"
	"strategy-lab/internal/domain"
	"strategy-lab/internal/marketdata"
)

// EvaluatorOptions configures a multi-period evaluator.
type EvaluatorOptions struct {
	Provider       marketdata.Provider
	BacktestConfig backtest.Config
	MinSharpeFloor float64
}

// Evaluator reruns the backtester over several named historical periods,
// applies a minimum-performance floor per period, and computes a weighted
// composite score.
type Evaluator struct {
	provider marketdata.Provider
	engine   *backtest.Engine
	floor    float64
}

// NewEvaluator creates a multi-period evaluator.
func NewEvaluator(opts EvaluatorOptions) *Evaluator {
	return &Evaluator{
		provider: opts.Provider,
		engine:   backtest.NewEngine(opts.BacktestConfig),
		floor:    opts.MinSharpeFloor,
	}
}

// Evaluate runs one strategy over every configured period. Any data-fetch
// failure or floor failure disqualifies the whole strategy with a
// human-readable reason and a composite score of 0; there is no partial
// credit. Otherwise the composite score is the weight-normalized mean of
// per-period Sharpe ratios.
func (e *Evaluator) Evaluate(ctx context.Context, strategy *compiler.CompiledStrategy, ticker string, periods []domain.PeriodConfig) *domain.MultiPeriodResult {
	result := &domain.MultiPeriodResult{
		StrategyName: strategy.Name(),
	}

	weightedSum := 0.0
	totalWeight := 0.0

	for _, period := range periods {
		series, err := e.provider.GetBars(ctx, ticker, period.Start, period.End)
		if err != nil {
			// Missing history disqualifies outright rather than
			// skip-and-continue; it would otherwise skew the
			// composite toward whatever periods happen to exist.
			result.Disqualified = true
			result.DisqualificationReason = fmt.Sprintf("period %s: data unavailable: %v", period.Name, err)
			result.CompositeScore = 0
			return result
		}

		backtestResult := e.engine.Run(strategy, series)
		sharpe := backtestResult.Metrics.SharpeRatio
		passed := sharpe >= e.floor

		result.PeriodResults = append(result.PeriodResults, &domain.PeriodResult{
			Period:      period,
			Result:      backtestResult,
			PassedFloor: passed,
		})

		if !passed && !result.Disqualified {
			result.Disqualified = true
			result.DisqualificationReason = fmt.Sprintf(
				"period %s: sharpe %.4f below floor %.4f", period.Name, sharpe, e.floor)
		}

		weightedSum += period.Weight * sharpe
		totalWeight += period.Weight
	}

	if result.Disqualified {
		result.CompositeScore = 0
		return result
	}

	result.PassedAllFloors = true
	if totalWeight > 0 {
		result.CompositeScore = weightedSum / totalWeight
	}

	log.Debug().
		Str("strategy", strategy.Name()).
		Float64("composite_score", result.CompositeScore).
		Int("periods", len(periods)).
		Msg("strategy evaluated")

	return result
}
