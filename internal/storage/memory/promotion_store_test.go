package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"strategy-lab/internal/domain"
	"strategy-lab/internal/storage"
)

func promotionRecord(name string) *domain.PromotionRecord {
	return &domain.PromotionRecord{
		Name:           name,
		Spec:           &domain.StrategySpecification{Name: name},
		Status:         domain.StatusCandidate,
		CompositeScore: 1.5,
		CreatedAt:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPromotionStore_CreateAndGet(t *testing.T) {
	store := NewPromotionStore()
	ctx := context.Background()

	if err := store.Create(ctx, promotionRecord("s1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "s1" || got.Status != domain.StatusCandidate {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.CompositeScore != 1.5 {
		t.Errorf("CompositeScore mismatch: got %f", got.CompositeScore)
	}
}

func TestPromotionStore_DuplicateKey(t *testing.T) {
	store := NewPromotionStore()
	ctx := context.Background()

	if err := store.Create(ctx, promotionRecord("s1")); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	err := store.Create(ctx, promotionRecord("s1"))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestPromotionStore_GetNotFound(t *testing.T) {
	store := NewPromotionStore()

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPromotionStore_GetReturnsCopy(t *testing.T) {
	store := NewPromotionStore()
	ctx := context.Background()

	if err := store.Create(ctx, promotionRecord("s1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	first, _ := store.Get(ctx, "s1")
	first.Status = domain.StatusPromoted
	first.SignalsGenerated = 99

	second, _ := store.Get(ctx, "s1")
	if second.Status != domain.StatusCandidate || second.SignalsGenerated != 0 {
		t.Error("mutating a returned record leaked into the store")
	}
}

func TestPromotionStore_Replace(t *testing.T) {
	store := NewPromotionStore()
	ctx := context.Background()

	if err := store.Replace(ctx, promotionRecord("s1")); err != nil {
		t.Fatalf("Replace as upsert failed: %v", err)
	}

	updated := promotionRecord("s1")
	updated.Status = domain.StatusPaperTesting
	if err := store.Replace(ctx, updated); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	got, _ := store.Get(ctx, "s1")
	if got.Status != domain.StatusPaperTesting {
		t.Errorf("Replace did not overwrite: %+v", got)
	}
}

func TestPromotionStore_Update(t *testing.T) {
	store := NewPromotionStore()
	ctx := context.Background()

	if err := store.Create(ctx, promotionRecord("s1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	err := store.Update(ctx, "s1", func(r *domain.PromotionRecord) error {
		r.SignalsGenerated += 4
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := store.Get(ctx, "s1")
	if got.SignalsGenerated != 4 {
		t.Errorf("SignalsGenerated = %d, want 4", got.SignalsGenerated)
	}
}

func TestPromotionStore_UpdateRollsBackOnError(t *testing.T) {
	store := NewPromotionStore()
	ctx := context.Background()

	if err := store.Create(ctx, promotionRecord("s1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	wantErr := errors.New("transition denied")
	err := store.Update(ctx, "s1", func(r *domain.PromotionRecord) error {
		r.Status = domain.StatusPromoted
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Update should surface the callback error, got %v", err)
	}

	got, _ := store.Get(ctx, "s1")
	if got.Status != domain.StatusCandidate {
		t.Error("failed Update must not commit partial changes")
	}
}

func TestPromotionStore_UpdateNotFound(t *testing.T) {
	store := NewPromotionStore()

	err := store.Update(context.Background(), "missing", func(r *domain.PromotionRecord) error {
		return nil
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPromotionStore_ListByStatus(t *testing.T) {
	store := NewPromotionStore()
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		if err := store.Create(ctx, promotionRecord(name)); err != nil {
			t.Fatalf("Create %s failed: %v", name, err)
		}
	}
	if err := store.Update(ctx, "b", func(r *domain.PromotionRecord) error {
		r.Status = domain.StatusPaperTesting
		return nil
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	candidates, err := store.ListByStatus(ctx, domain.StatusCandidate)
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	if len(candidates) != 2 {
		t.Errorf("expected 2 candidates, got %d", len(candidates))
	}

	testing_, _ := store.ListByStatus(ctx, domain.StatusPaperTesting)
	if len(testing_) != 1 || testing_[0].Name != "b" {
		t.Errorf("unexpected paper_testing list: %+v", testing_)
	}
}

func TestPromotionStore_ConcurrentUpdates(t *testing.T) {
	store := NewPromotionStore()
	ctx := context.Background()

	if err := store.Create(ctx, promotionRecord("s1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Update(ctx, "s1", func(r *domain.PromotionRecord) error {
				r.SignalsGenerated++
				return nil
			})
		}()
	}
	wg.Wait()

	got, _ := store.Get(ctx, "s1")
	if got.SignalsGenerated != 50 {
		t.Errorf("lost updates: SignalsGenerated = %d, want 50", got.SignalsGenerated)
	}
}
