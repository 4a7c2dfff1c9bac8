package storage

import (
	"context"
	"time"

	"strategy-lab/internal/domain"
)

// PromotionStore persists lifecycle records keyed by strategy name.
// Every mutation is one atomic read-modify-write committed before the
// call returns; concurrent callers are linearized by the store itself.
type PromotionStore interface {
	// Get retrieves a record by strategy name. Returns ErrNotFound if
	// it does not exist.
	Get(ctx context.Context, name string) (*domain.PromotionRecord, error)

	// Create inserts a new record. Returns ErrDuplicateKey if a record
	// with the same name exists.
	Create(ctx context.Context, record *domain.PromotionRecord) error

	// Replace overwrites an existing record wholesale. Returns
	// ErrNotFound if it does not exist.
	Replace(ctx context.Context, record *domain.PromotionRecord) error

	// Update applies fn to the named record inside one transactional
	// unit of work and persists the mutated record. If fn returns an
	// error the update is rolled back and that error is returned.
	// Returns ErrNotFound if the record does not exist.
	Update(ctx context.Context, name string, fn func(*domain.PromotionRecord) error) error

	// ListByStatus retrieves all records with the given status,
	// ordered by name ASC.
	ListByStatus(ctx context.Context, status domain.PromotionStatus) ([]*domain.PromotionRecord, error)
}

// StrategyScoreStore persists per-cycle spec+score rows produced by the
// tournament for the outer orchestrator.
type StrategyScoreStore interface {
	// Insert adds a new score row. Returns ErrDuplicateKey if
	// (fingerprint, cycle_number) exists.
	Insert(ctx context.Context, score *domain.StrategyScore) error

	// GetByCycle retrieves all rows for a cycle, ordered by
	// composite_score DESC.
	GetByCycle(ctx context.Context, cycle int) ([]*domain.StrategyScore, error)
}

// BarStore persists OHLCV history per ticker.
type BarStore interface {
	// InsertBulk adds bars. Fails the entire batch on a duplicate
	// (ticker, date).
	InsertBulk(ctx context.Context, bars []domain.Bar) error

	// GetByTickerRange retrieves bars for a ticker with date in
	// [start, end] (inclusive), ordered by date ASC.
	GetByTickerRange(ctx context.Context, ticker string, start, end time.Time) (domain.Series, error)
}
