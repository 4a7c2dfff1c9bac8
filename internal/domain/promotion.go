package domain

import "time"

// PromotionStatus is the lifecycle state of a named strategy.
type PromotionStatus string

// Lifecycle states. Transitions are one-directional except retire,
// which is reachable from any non-retired state.
const (
	StatusCandidate    PromotionStatus = "candidate"
	StatusPaperTesting PromotionStatus = "paper_testing"
	StatusPromoted     PromotionStatus = "promoted"
	StatusRetired      PromotionStatus = "retired"
)

// PromotionRecord is the persisted lifecycle state of one named strategy.
// Keyed by strategy name; outlives any single process.
type PromotionRecord struct {
	Name             string                 `json:"name"`
	Spec             *StrategySpecification `json:"spec"`
	Status           PromotionStatus        `json:"status"`
	CompositeScore   float64                `json:"composite_score"`
	CreatedAt        time.Time              `json:"created_at"`
	TestingStartedAt *time.Time             `json:"testing_started_at,omitempty"`
	PromotedAt       *time.Time             `json:"promoted_at,omitempty"`
	RetiredAt        *time.Time             `json:"retired_at,omitempty"`
	SignalsGenerated int                    `json:"signals_generated"`
	Notes            string                 `json:"notes,omitempty"`
}
