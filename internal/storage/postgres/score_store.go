package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"strategy-lab/internal/domain"
	"strategy-lab/internal/storage"
)

// ScoreStore implements storage.StrategyScoreStore using PostgreSQL.
type ScoreStore struct {
	pool *Pool
}

// NewScoreStore creates a new ScoreStore.
func NewScoreStore(pool *Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

// Compile-time interface check.
var _ storage.StrategyScoreStore = (*ScoreStore)(nil)

// Insert adds a new score row. Returns ErrDuplicateKey if
// (fingerprint, cycle_number) exists.
func (s *ScoreStore) Insert(ctx context.Context, score *domain.StrategyScore) error {
	if score == nil || score.Fingerprint == "" {
		return storage.ErrInvalidInput
	}

	specJSON, err := json.Marshal(score.Spec)
	if err != nil {
		return fmt.Errorf("encode spec: %w", err)
	}

	query := `
		INSERT INTO strategy_scores (
			fingerprint, strategy_name, cycle_number, spec,
			composite_score, disqualified, reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.pool.Exec(ctx, query,
		score.Fingerprint, score.StrategyName, score.CycleNumber, specJSON,
		score.CompositeScore, score.Disqualified, score.Reason, score.CreatedAt,
	)
	if err != nil {
		return mapStoreError("insert strategy score", err)
	}
	return nil
}

// GetByCycle retrieves all rows for a cycle, ordered by composite_score DESC.
func (s *ScoreStore) GetByCycle(ctx context.Context, cycle int) ([]*domain.StrategyScore, error) {
	query := `
		SELECT fingerprint, strategy_name, cycle_number, spec,
		       composite_score, disqualified, reason, created_at
		FROM strategy_scores
		WHERE cycle_number = $1
		ORDER BY composite_score DESC, fingerprint ASC
	`

	rows, err := s.pool.Query(ctx, query, cycle)
	if err != nil {
		return nil, fmt.Errorf("get scores by cycle: %w", err)
	}
	defer rows.Close()

	var result []*domain.StrategyScore
	for rows.Next() {
		var score domain.StrategyScore
		var specJSON []byte
		err := rows.Scan(
			&score.Fingerprint, &score.StrategyName, &score.CycleNumber, &specJSON,
			&score.CompositeScore, &score.Disqualified, &score.Reason, &score.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan strategy score: %w", err)
		}
		if len(specJSON) > 0 {
			if err := json.Unmarshal(specJSON, &score.Spec); err != nil {
				return nil, fmt.Errorf("decode spec: %w", err)
			}
		}
		result = append(result, &score)
	}
	return result, rows.Err()
}
