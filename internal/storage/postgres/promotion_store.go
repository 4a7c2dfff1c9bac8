package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"strategy-lab/internal/domain"
	"strategy-lab/internal/storage"
)

// PromotionStore implements storage.PromotionStore using PostgreSQL.
// Each Update runs inside one transaction with a row lock, so concurrent
// transitions on the same strategy are serialized by the database.
type PromotionStore struct {
	pool *Pool
}

// NewPromotionStore creates a new PromotionStore.
func NewPromotionStore(pool *Pool) *PromotionStore {
	return &PromotionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PromotionStore = (*PromotionStore)(nil)

const promotionColumns = `
	name, spec, status, composite_score, created_at,
	testing_started_at, promoted_at, retired_at, signals_generated, notes
`

// Get retrieves a record by strategy name. Returns ErrNotFound if it
// does not exist.
func (s *PromotionStore) Get(ctx context.Context, name string) (*domain.PromotionRecord, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotion_records WHERE name = $1`

	record, err := scanPromotionRecord(s.pool.QueryRow(ctx, query, name))
	if err != nil {
		return nil, mapStoreError("get promotion record", err)
	}
	return record, nil
}

// Create inserts a new record. Returns ErrDuplicateKey if the name exists.
func (s *PromotionStore) Create(ctx context.Context, record *domain.PromotionRecord) error {
	if record == nil || record.Name == "" {
		return storage.ErrInvalidInput
	}

	specJSON, err := json.Marshal(record.Spec)
	if err != nil {
		return fmt.Errorf("encode spec: %w", err)
	}

	query := `
		INSERT INTO promotion_records (` + promotionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.pool.Exec(ctx, query,
		record.Name, specJSON, record.Status, record.CompositeScore, record.CreatedAt,
		record.TestingStartedAt, record.PromotedAt, record.RetiredAt,
		record.SignalsGenerated, record.Notes,
	)
	if err != nil {
		return mapStoreError("insert promotion record", err)
	}
	return nil
}

// Replace overwrites an existing record. Returns ErrNotFound if it does
// not exist.
func (s *PromotionStore) Replace(ctx context.Context, record *domain.PromotionRecord) error {
	if record == nil || record.Name == "" {
		return storage.ErrInvalidInput
	}

	specJSON, err := json.Marshal(record.Spec)
	if err != nil {
		return fmt.Errorf("encode spec: %w", err)
	}

	tag, err := s.pool.Exec(ctx, updatePromotionQuery,
		record.Name, specJSON, record.Status, record.CompositeScore, record.CreatedAt,
		record.TestingStartedAt, record.PromotedAt, record.RetiredAt,
		record.SignalsGenerated, record.Notes,
	)
	if err != nil {
		return fmt.Errorf("replace promotion record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

const updatePromotionQuery = `
	UPDATE promotion_records SET
		spec = $2, status = $3, composite_score = $4, created_at = $5,
		testing_started_at = $6, promoted_at = $7, retired_at = $8,
		signals_generated = $9, notes = $10
	WHERE name = $1
`

// Update applies fn to the named record inside one transaction, holding a
// row lock across the read-modify-write.
func (s *PromotionStore) Update(ctx context.Context, name string, fn func(*domain.PromotionRecord) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + promotionColumns + ` FROM promotion_records WHERE name = $1 FOR UPDATE`
	record, err := scanPromotionRecord(tx.QueryRow(ctx, query, name))
	if err != nil {
		return mapStoreError("lock promotion record", err)
	}

	if err := fn(record); err != nil {
		return err
	}

	specJSON, err := json.Marshal(record.Spec)
	if err != nil {
		return fmt.Errorf("encode spec: %w", err)
	}

	_, err = tx.Exec(ctx, updatePromotionQuery,
		record.Name, specJSON, record.Status, record.CompositeScore, record.CreatedAt,
		record.TestingStartedAt, record.PromotedAt, record.RetiredAt,
		record.SignalsGenerated, record.Notes,
	)
	if err != nil {
		return fmt.Errorf("update promotion record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ListByStatus retrieves all records with the given status, ordered by
// name ASC.
func (s *PromotionStore) ListByStatus(ctx context.Context, status domain.PromotionStatus) ([]*domain.PromotionRecord, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotion_records WHERE status = $1 ORDER BY name ASC`

	rows, err := s.pool.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("list promotion records: %w", err)
	}
	defer rows.Close()

	var result []*domain.PromotionRecord
	for rows.Next() {
		record, err := scanPromotionRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan promotion record: %w", err)
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

// rowScanner abstracts pgx.Row and pgx.Rows for scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPromotionRecord(row rowScanner) (*domain.PromotionRecord, error) {
	var record domain.PromotionRecord
	var specJSON []byte
	var status string
	var createdAt time.Time

	err := row.Scan(
		&record.Name, &specJSON, &status, &record.CompositeScore, &createdAt,
		&record.TestingStartedAt, &record.PromotedAt, &record.RetiredAt,
		&record.SignalsGenerated, &record.Notes,
	)
	if err != nil {
		return nil, err
	}

	record.Status = domain.PromotionStatus(status)
	record.CreatedAt = createdAt
	if len(specJSON) > 0 {
		if err := json.Unmarshal(specJSON, &record.Spec); err != nil {
			return nil, fmt.Errorf("decode spec: %w", err)
		}
	}
	return &record, nil
}
