// Package marketdata exposes historical OHLCV series to the backtester
// and evaluator. Retrieval from exchanges is an external collaborator;
// the providers here read already-ingested history.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"strategy-lab/internal/domain"
	"strategy-lab/internal/storage"
)

// ErrNoData is returned when a requested range has no bars.
var ErrNoData = errors.New("no market data for requested range")

// Provider serves OHLCV history per (ticker, start, end).
type Provider interface {
	// GetBars retrieves bars for a ticker with date in [start, end],
	// ordered by date ASC. Returns ErrNoData for an empty range.
	GetBars(ctx context.Context, ticker string, start, end time.Time) (domain.Series, error)
}

// StoreProvider serves bars from a storage.BarStore.
type StoreProvider struct {
	store storage.BarStore
}

// NewStoreProvider creates a provider backed by a bar store.
func NewStoreProvider(store storage.BarStore) *StoreProvider {
	return &StoreProvider{store: store}
}

// Compile-time interface check.
var _ Provider = (*StoreProvider)(nil)

// GetBars retrieves bars from the underlying store.
func (p *StoreProvider) GetBars(ctx context.Context, ticker string, start, end time.Time) (domain.Series, error) {
	series, err := p.store.GetByTickerRange(ctx, ticker, start, end)
	if err != nil {
		return nil, fmt.Errorf("get bars for %s: %w", ticker, err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: %s %s..%s", ErrNoData, ticker,
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return series, nil
}
