package evaluation

import (
	"context"
	"testing"
	"time"

	"strategy-lab/internal/domain"
)

func TestRank_NonDisqualifiedFirst(t *testing.T) {
	results := []*domain.MultiPeriodResult{
		{StrategyName: "dq-high", Disqualified: true, CompositeScore: 0},
		{StrategyName: "live-low", CompositeScore: 0.1},
		{StrategyName: "dq-2", Disqualified: true},
		{StrategyName: "live-high", CompositeScore: 1.5},
	}

	ranked := Rank(results)

	wantOrder := []string{"live-high", "live-low", "dq-high", "dq-2"}
	for i, want := range wantOrder {
		if ranked[i].StrategyName != want {
			t.Errorf("rank %d: expected %s, got %s", i, want, ranked[i].StrategyName)
		}
	}

	// Input untouched.
	if results[0].StrategyName != "dq-high" {
		t.Error("Rank must not modify its input")
	}
}

func TestRank_StableForTies(t *testing.T) {
	results := []*domain.MultiPeriodResult{
		{StrategyName: "a", CompositeScore: 1.0},
		{StrategyName: "b", CompositeScore: 1.0},
		{StrategyName: "c", CompositeScore: 1.0},
	}

	ranked := Rank(results)
	for i, want := range []string{"a", "b", "c"} {
		if ranked[i].StrategyName != want {
			t.Errorf("tied rank %d: expected %s, got %s", i, want, ranked[i].StrategyName)
		}
	}
}

func tournamentFixture(t *testing.T) (*Tournament, []domain.PeriodConfig) {
	t.Helper()
	periods := twoPeriods()
	provider := &stubProvider{series: map[time.Time]domain.Series{
		periods[0].Start: makeSeries(flatCloses(15), periods[0].Start),
		periods[1].Start: makeSeries(flatCloses(15), periods[1].Start),
	}}
	evaluator := NewEvaluator(EvaluatorOptions{
		Provider:       provider,
		BacktestConfig: smallConfig(),
		MinSharpeFloor: -1,
	})
	return NewTournament(evaluator, 2), periods
}

func TestTournament_SplitsSurvivors(t *testing.T) {
	tournament, periods := tournamentFixture(t)

	specs := []*domain.StrategySpecification{
		passiveSpec("s1"), passiveSpec("s2"), passiveSpec("s3"),
	}

	result := tournament.Run(context.Background(), specs, "TEST", periods, 7)

	if len(result.AllResults) != 3 {
		t.Fatalf("expected one result per input, got %d", len(result.AllResults))
	}
	if len(result.Survivors) != 2 || len(result.Eliminated) != 1 {
		t.Errorf("expected 2 survivors / 1 eliminated, got %d / %d",
			len(result.Survivors), len(result.Eliminated))
	}
	if result.CycleNumber != 7 {
		t.Errorf("cycle number not carried: got %d", result.CycleNumber)
	}
}

func TestTournament_InvalidSpecDisqualifiedNotFatal(t *testing.T) {
	tournament, periods := tournamentFixture(t)

	broken := &domain.StrategySpecification{
		Name: "broken",
		Indicators: []domain.IndicatorSpec{
			{Name: "no_such_indicator", OutputKey: "x"},
		},
		EntryConditions: domain.CompositeCondition{Logic: domain.LogicAllOf},
		ExitConditions:  domain.CompositeCondition{Logic: domain.LogicAllOf},
	}
	specs := []*domain.StrategySpecification{passiveSpec("ok"), broken}

	result := tournament.Run(context.Background(), specs, "TEST", periods, 1)

	if len(result.AllResults) != 2 {
		t.Fatalf("batch must return one result per input, got %d", len(result.AllResults))
	}

	var brokenResult *domain.MultiPeriodResult
	for _, r := range result.AllResults {
		if r.StrategyName == "broken" {
			brokenResult = r
		}
	}
	if brokenResult == nil || !brokenResult.Disqualified {
		t.Fatal("broken spec should yield a disqualified result")
	}
	// Disqualified ranks behind the valid candidate.
	if result.AllResults[len(result.AllResults)-1].StrategyName != "broken" {
		t.Error("disqualified result should rank last")
	}
}

func TestTournament_PanicConvertedToDisqualification(t *testing.T) {
	periods := twoPeriods()
	evaluator := NewEvaluator(EvaluatorOptions{
		Provider:       &stubProvider{panics: true},
		BacktestConfig: smallConfig(),
		MinSharpeFloor: -1,
	})
	tournament := NewTournament(evaluator, 1)

	result := tournament.Run(context.Background(), []*domain.StrategySpecification{passiveSpec("s1")}, "TEST", periods, 1)

	if len(result.AllResults) != 1 {
		t.Fatalf("expected 1 result, got %d", len(result.AllResults))
	}
	r := result.AllResults[0]
	if !r.Disqualified || r.DisqualificationReason != "backtest raised an exception" {
		t.Errorf("expected panic converted to disqualification, got %+v", r)
	}
}
