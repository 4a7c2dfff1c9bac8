package domain

import "time"

// Price column names usable as condition operands.
const (
	ColumnOpen   = "open"
	ColumnHigh   = "high"
	ColumnLow    = "low"
	ColumnClose  = "close"
	ColumnVolume = "volume"
)

// PriceColumns lists the five canonical OHLCV columns.
var PriceColumns = []string{ColumnOpen, ColumnHigh, ColumnLow, ColumnClose, ColumnVolume}

// IsPriceColumn reports whether name is one of the canonical OHLCV columns.
func IsPriceColumn(name string) bool {
	for _, c := range PriceColumns {
		if c == name {
			return true
		}
	}
	return false
}

// Bar represents one row of an OHLCV series.
type Bar struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is a time-ordered OHLCV series. Bars are sorted by Date ASC.
type Series []Bar

// Column extracts one price column as an aligned float64 slice.
// Returns nil for an unknown column name.
func (s Series) Column(name string) []float64 {
	if len(s) == 0 {
		return nil
	}

	out := make([]float64, len(s))
	switch name {
	case ColumnOpen:
		for i, b := range s {
			out[i] = b.Open
		}
	case ColumnHigh:
		for i, b := range s {
			out[i] = b.High
		}
	case ColumnLow:
		for i, b := range s {
			out[i] = b.Low
		}
	case ColumnClose:
		for i, b := range s {
			out[i] = b.Close
		}
	case ColumnVolume:
		for i, b := range s {
			out[i] = b.Volume
		}
	default:
		return nil
	}
	return out
}

// Between returns the sub-series with Date in [start, end] (inclusive).
func (s Series) Between(start, end time.Time) Series {
	var out Series
	for _, b := range s {
		if b.Date.Before(start) || b.Date.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}
