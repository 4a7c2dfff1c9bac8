package evaluation

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"

	"strategy-lab/internal/compiler"
	"strategy-lab/internal/domain"
)

// Tournament ranks a batch of candidate specifications by composite score
// and splits them into survivors and eliminated.
type Tournament struct {
	evaluator     *Evaluator
	survivorCount int
}

// NewTournament creates a tournament over the given evaluator.
func NewTournament(evaluator *Evaluator, survivorCount int) *Tournament {
	return &Tournament{
		evaluator:     evaluator,
		survivorCount: survivorCount,
	}
}

// Run evaluates every candidate, ranks them, and splits into the top
// survivorCount survivors and the rest eliminated. A candidate whose
// evaluation panics is converted into a disqualified result, so one
// broken candidate never aborts the batch: the tournament always returns
// one result per input spec.
func (t *Tournament) Run(ctx context.Context, specs []*domain.StrategySpecification, ticker string, periods []domain.PeriodConfig, cycle int) *domain.TournamentResult {
	results := make([]*domain.MultiPeriodResult, 0, len(specs))
	for _, spec := range specs {
		results = append(results, t.evaluateOne(ctx, spec, ticker, periods))
	}

	ranked := Rank(results)

	cut := t.survivorCount
	if cut > len(ranked) {
		cut = len(ranked)
	}
	if cut < 0 {
		cut = 0
	}

	result := &domain.TournamentResult{
		AllResults:  ranked,
		Survivors:   ranked[:cut],
		Eliminated:  ranked[cut:],
		CycleNumber: cycle,
	}

	log.Info().
		Int("cycle", cycle).
		Int("candidates", len(specs)).
		Int("survivors", len(result.Survivors)).
		Msg("tournament complete")

	return result
}

// evaluateOne compiles and evaluates a single candidate, converting any
// compile error or panic into a disqualified result.
func (t *Tournament) evaluateOne(ctx context.Context, spec *domain.StrategySpecification, ticker string, periods []domain.PeriodConfig) (result *domain.MultiPeriodResult) {
	name := ""
	if spec != nil {
		name = spec.Name
	}

	defer func() {
		if r := recover(); r != nil {
			log.Warn().Str("strategy", name).Interface("panic", r).Msg("candidate evaluation panicked")
			result = &domain.MultiPeriodResult{
				StrategyName:           name,
				Disqualified:           true,
				DisqualificationReason: "backtest raised an exception",
			}
		}
	}()

	strategy, err := compiler.Compile(spec)
	if err != nil {
		return &domain.MultiPeriodResult{
			StrategyName:           name,
			Disqualified:           true,
			DisqualificationReason: "specification failed to compile: " + err.Error(),
		}
	}

	return t.evaluator.Evaluate(ctx, strategy, ticker, periods)
}

// Rank orders results by (not disqualified, composite score) descending,
// stably for ties: every non-disqualified result outranks every
// disqualified one regardless of residual score. The input slice is not
// modified.
func Rank(results []*domain.MultiPeriodResult) []*domain.MultiPeriodResult {
	ranked := make([]*domain.MultiPeriodResult, len(results))
	copy(ranked, results)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Disqualified != ranked[j].Disqualified {
			return !ranked[i].Disqualified
		}
		return ranked[i].CompositeScore > ranked[j].CompositeScore
	})
	return ranked
}
