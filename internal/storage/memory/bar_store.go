package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"strategy-lab/internal/domain"
	"strategy-lab/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[barKey]domain.Bar
}

type barKey struct {
	ticker string
	date   time.Time
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{
		data: make(map[barKey]domain.Bar),
	}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertBulk adds bars. Fails the entire batch on a duplicate (ticker, date).
func (s *BarStore) InsertBulk(_ context.Context, bars []domain.Bar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, bar := range bars {
		if bar.Ticker == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[barKey{bar.Ticker, bar.Date}]; exists {
			return storage.ErrDuplicateKey
		}
	}
	for _, bar := range bars {
		s.data[barKey{bar.Ticker, bar.Date}] = bar
	}
	return nil
}

// GetByTickerRange retrieves bars for a ticker with date in [start, end],
// ordered by date ASC.
func (s *BarStore) GetByTickerRange(_ context.Context, ticker string, start, end time.Time) (domain.Series, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var series domain.Series
	for key, bar := range s.data {
		if key.ticker != ticker || key.date.Before(start) || key.date.After(end) {
			continue
		}
		series = append(series, bar)
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
	return series, nil
}
