// Package memory provides in-memory storage implementations for tests
// and single-process runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"strategy-lab/internal/domain"
	"strategy-lab/internal/storage"
)

// PromotionStore is an in-memory implementation of storage.PromotionStore.
type PromotionStore struct {
	mu   sync.Mutex
	data map[string]*domain.PromotionRecord // keyed by strategy name
}

// NewPromotionStore creates a new in-memory promotion store.
func NewPromotionStore() *PromotionStore {
	return &PromotionStore{
		data: make(map[string]*domain.PromotionRecord),
	}
}

// Compile-time interface check.
var _ storage.PromotionStore = (*PromotionStore)(nil)

// Get retrieves a record by strategy name. Returns ErrNotFound if it
// does not exist.
func (s *PromotionStore) Get(_ context.Context, name string) (*domain.PromotionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.data[name]
	if !exists {
		return nil, storage.ErrNotFound
	}
	recordCopy := *record
	return &recordCopy, nil
}

// Create inserts a new record. Returns ErrDuplicateKey if the name exists.
func (s *PromotionStore) Create(_ context.Context, record *domain.PromotionRecord) error {
	if record == nil || record.Name == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[record.Name]; exists {
		return storage.ErrDuplicateKey
	}

	recordCopy := *record
	s.data[record.Name] = &recordCopy
	return nil
}

// Replace overwrites an existing record. Returns ErrNotFound if it does
// not exist.
func (s *PromotionStore) Replace(_ context.Context, record *domain.PromotionRecord) error {
	if record == nil || record.Name == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[record.Name]; !exists {
		return storage.ErrNotFound
	}

	recordCopy := *record
	s.data[record.Name] = &recordCopy
	return nil
}

// Update applies fn to the named record under the store lock, so the
// read-modify-write is atomic with respect to other callers.
func (s *PromotionStore) Update(_ context.Context, name string, fn func(*domain.PromotionRecord) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.data[name]
	if !exists {
		return storage.ErrNotFound
	}

	// Mutate a copy; commit only if fn succeeds.
	recordCopy := *record
	if err := fn(&recordCopy); err != nil {
		return err
	}
	s.data[name] = &recordCopy
	return nil
}

// ListByStatus retrieves all records with the given status, ordered by
// name ASC.
func (s *PromotionStore) ListByStatus(_ context.Context, status domain.PromotionStatus) ([]*domain.PromotionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*domain.PromotionRecord
	for _, record := range s.data {
		if record.Status == status {
			recordCopy := *record
			result = append(result, &recordCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}
