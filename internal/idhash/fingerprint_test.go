package idhash

import (
	"testing"

	"strategy-lab/internal/domain"
)

func TestSpecFingerprint_Deterministic(t *testing.T) {
	spec := &domain.StrategySpecification{
		Name: "fp-test",
		Indicators: []domain.IndicatorSpec{
			{Name: "sma", Params: map[string]float64{"period": 10}, OutputKey: "sma_10"},
		},
	}

	first := SpecFingerprint(spec)
	second := SpecFingerprint(spec)
	if first != second {
		t.Errorf("fingerprint not deterministic: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(first))
	}
}

func TestSpecFingerprint_DistinguishesSpecs(t *testing.T) {
	a := &domain.StrategySpecification{Name: "a"}
	b := &domain.StrategySpecification{Name: "b"}
	if SpecFingerprint(a) == SpecFingerprint(b) {
		t.Error("different specs should hash differently")
	}
}
