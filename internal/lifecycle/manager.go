// Package lifecycle implements the durable strategy-promotion state
// machine: candidate → paper_testing → promoted, with retire reachable
// from any non-retired state. Every transition is one atomic
// read-modify-write in the store, committed before the call returns.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"strategy-lab/internal/domain"
	"strategy-lab/internal/storage"
)

// errTransitionDenied aborts a store update without committing when the
// record is not in the required state. Mapped to a boolean false return.
var errTransitionDenied = errors.New("transition denied")

// Manager drives promotion transitions over a PromotionStore. The clock
// is injected so tests can backdate time gates deterministically.
type Manager struct {
	store storage.PromotionStore
	now   func() time.Time
}

// NewManager creates a lifecycle manager. A nil clock defaults to
// time.Now.
func NewManager(store storage.PromotionStore, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{store: store, now: now}
}

// SubmitCandidate registers a strategy under its name. A no-op if a
// non-retired record already exists (idempotent); a retired record is
// replaced wholesale, allowing re-entry under the same name.
func (m *Manager) SubmitCandidate(ctx context.Context, spec *domain.StrategySpecification, compositeScore float64) error {
	if spec == nil || spec.Name == "" {
		return storage.ErrInvalidInput
	}

	fresh := &domain.PromotionRecord{
		Name:           spec.Name,
		Spec:           spec,
		Status:         domain.StatusCandidate,
		CompositeScore: compositeScore,
		CreatedAt:      m.now(),
	}

	existing, err := m.store.Get(ctx, spec.Name)
	if errors.Is(err, storage.ErrNotFound) {
		if err := m.store.Create(ctx, fresh); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				// Lost a race with a concurrent submit; idempotent.
				return nil
			}
			return fmt.Errorf("submit candidate: %w", err)
		}
		log.Info().Str("strategy", spec.Name).Msg("candidate submitted")
		return nil
	}
	if err != nil {
		return fmt.Errorf("submit candidate: %w", err)
	}

	if existing.Status != domain.StatusRetired {
		return nil
	}

	if err := m.store.Replace(ctx, fresh); err != nil {
		return fmt.Errorf("resubmit retired candidate: %w", err)
	}
	log.Info().Str("strategy", spec.Name).Msg("retired strategy resubmitted as candidate")
	return nil
}

// StartTesting moves a candidate into paper testing. Returns false if
// the record is missing or not currently a candidate.
func (m *Manager) StartTesting(ctx context.Context, name string) (bool, error) {
	return m.transition(ctx, name, func(record *domain.PromotionRecord) error {
		if record.Status != domain.StatusCandidate {
			return errTransitionDenied
		}
		started := m.now()
		record.Status = domain.StatusPaperTesting
		record.TestingStartedAt = &started
		return nil
	})
}

// RecordSignals increments the signal counter on a paper_testing record.
// A no-op for any other status.
func (m *Manager) RecordSignals(ctx context.Context, name string, count int) error {
	err := m.store.Update(ctx, name, func(record *domain.PromotionRecord) error {
		if record.Status != domain.StatusPaperTesting {
			return errTransitionDenied
		}
		record.SignalsGenerated += count
		return nil
	})
	if errors.Is(err, errTransitionDenied) || errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

// CheckReadyForPromotion returns the names of all paper_testing
// strategies whose elapsed testing time is at least testingDays and
// whose signal count is at least minSignals. A pure read; promotion is
// a separate explicit call, and a concurrent retire can intervene
// between the two.
func (m *Manager) CheckReadyForPromotion(ctx context.Context, testingDays, minSignals int) ([]string, error) {
	records, err := m.store.ListByStatus(ctx, domain.StatusPaperTesting)
	if err != nil {
		return nil, fmt.Errorf("check ready for promotion: %w", err)
	}

	now := m.now()
	var ready []string
	for _, record := range records {
		if record.TestingStartedAt == nil {
			continue
		}
		elapsed := now.Sub(*record.TestingStartedAt)
		if elapsed >= time.Duration(testingDays)*24*time.Hour && record.SignalsGenerated >= minSignals {
			ready = append(ready, record.Name)
		}
	}
	return ready, nil
}

// Promote moves a paper_testing strategy to promoted. Returns false
// otherwise.
func (m *Manager) Promote(ctx context.Context, name string) (bool, error) {
	return m.transition(ctx, name, func(record *domain.PromotionRecord) error {
		if record.Status != domain.StatusPaperTesting {
			return errTransitionDenied
		}
		promoted := m.now()
		record.Status = domain.StatusPromoted
		record.PromotedAt = &promoted
		return nil
	})
}

// Retire moves any non-retired record to retired with a recorded reason.
// Returns false if the record is missing or already retired.
func (m *Manager) Retire(ctx context.Context, name, reason string) (bool, error) {
	return m.transition(ctx, name, func(record *domain.PromotionRecord) error {
		if record.Status == domain.StatusRetired {
			return errTransitionDenied
		}
		retired := m.now()
		record.Status = domain.StatusRetired
		record.RetiredAt = &retired
		record.Notes = reason
		return nil
	})
}

// transition runs one guarded state change, mapping a denied transition
// or missing record to a boolean false rather than an error: failed
// transitions are expected, recoverable caller errors.
func (m *Manager) transition(ctx context.Context, name string, fn func(*domain.PromotionRecord) error) (bool, error) {
	err := m.store.Update(ctx, name, fn)
	if errors.Is(err, errTransitionDenied) || errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("transition %s: %w", name, err)
	}
	return true, nil
}

// GetCandidates returns all candidate records.
func (m *Manager) GetCandidates(ctx context.Context) ([]*domain.PromotionRecord, error) {
	return m.store.ListByStatus(ctx, domain.StatusCandidate)
}

// GetPaperTesting returns all paper_testing records.
func (m *Manager) GetPaperTesting(ctx context.Context) ([]*domain.PromotionRecord, error) {
	return m.store.ListByStatus(ctx, domain.StatusPaperTesting)
}

// GetPromoted returns all promoted records, consumed by the live
// trading loop.
func (m *Manager) GetPromoted(ctx context.Context) ([]*domain.PromotionRecord, error) {
	return m.store.ListByStatus(ctx, domain.StatusPromoted)
}
