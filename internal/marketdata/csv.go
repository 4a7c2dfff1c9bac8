package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"strategy-lab/internal/domain"
)

// CSVProvider serves bars loaded from a fixture file. Intended for
// single-run backtests and tests; the whole file is held in memory.
type CSVProvider struct {
	series map[string]domain.Series // keyed by ticker
}

// Compile-time interface check.
var _ Provider = (*CSVProvider)(nil)

// LoadCSV reads a fixture file with header
// ticker,date,open,high,low,close,volume (date as 2006-01-02).
func LoadCSV(path string) (*CSVProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	return parseCSV(f)
}

func parseCSV(r io.Reader) (*CSVProvider, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) != 7 {
		return nil, fmt.Errorf("expected 7 columns (ticker,date,open,high,low,close,volume), got %d", len(header))
	}

	provider := &CSVProvider{series: make(map[string]domain.Series)}
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		line++

		bar, err := parseBar(row)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		provider.series[bar.Ticker] = append(provider.series[bar.Ticker], bar)
	}

	for ticker := range provider.series {
		s := provider.series[ticker]
		sort.Slice(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
	}

	return provider, nil
}

func parseBar(row []string) (domain.Bar, error) {
	date, err := time.Parse("2006-01-02", row[1])
	if err != nil {
		return domain.Bar{}, fmt.Errorf("parse date %q: %w", row[1], err)
	}

	values := make([]float64, 5)
	for i, field := range row[2:7] {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return domain.Bar{}, fmt.Errorf("parse %q: %w", field, err)
		}
		values[i] = v
	}

	return domain.Bar{
		Ticker: row[0],
		Date:   date,
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, nil
}

// GetBars serves the loaded fixture range.
func (p *CSVProvider) GetBars(_ context.Context, ticker string, start, end time.Time) (domain.Series, error) {
	series := p.series[ticker].Between(start, end)
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: %s %s..%s", ErrNoData, ticker,
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return series, nil
}

// Tickers lists the tickers present in the fixture.
func (p *CSVProvider) Tickers() []string {
	tickers := make([]string, 0, len(p.series))
	for t := range p.series {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}
