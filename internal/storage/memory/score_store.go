package memory

import (
	"context"
	"sort"
	"sync"

	"strategy-lab/internal/domain"
	"strategy-lab/internal/storage"
)

// ScoreStore is an in-memory implementation of storage.StrategyScoreStore.
type ScoreStore struct {
	mu   sync.RWMutex
	data map[scoreKey]*domain.StrategyScore
}

type scoreKey struct {
	fingerprint string
	cycle       int
}

// NewScoreStore creates a new in-memory score store.
func NewScoreStore() *ScoreStore {
	return &ScoreStore{
		data: make(map[scoreKey]*domain.StrategyScore),
	}
}

// Compile-time interface check.
var _ storage.StrategyScoreStore = (*ScoreStore)(nil)

// Insert adds a new score row. Returns ErrDuplicateKey if
// (fingerprint, cycle_number) exists.
func (s *ScoreStore) Insert(_ context.Context, score *domain.StrategyScore) error {
	if score == nil || score.Fingerprint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := scoreKey{score.Fingerprint, score.CycleNumber}
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	scoreCopy := *score
	s.data[key] = &scoreCopy
	return nil
}

// GetByCycle retrieves all rows for a cycle, ordered by composite_score DESC.
func (s *ScoreStore) GetByCycle(_ context.Context, cycle int) ([]*domain.StrategyScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.StrategyScore
	for key, score := range s.data {
		if key.cycle == cycle {
			scoreCopy := *score
			result = append(result, &scoreCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CompositeScore != result[j].CompositeScore {
			return result[i].CompositeScore > result[j].CompositeScore
		}
		return result[i].Fingerprint < result[j].Fingerprint
	})
	return result, nil
}
