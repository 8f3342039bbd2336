package models

import (
	"fmt"
	"time"
)

// Bar represents one calendar day's OHLCV record for a currency.
// Dates are normalized to UTC midnight; a Bar is immutable once validated.
type Bar struct {
	Date   time.Time `json:"date" parquet:"date"`
	Open   float64   `json:"open" parquet:"open"`
	High   float64   `json:"high" parquet:"high"`
	Low    float64   `json:"low" parquet:"low"`
	Close  float64   `json:"close" parquet:"close"`
	Volume float64   `json:"volume" parquet:"volume"`
}

// Validate checks the price ordering invariant:
// high >= max(open, close, low) and low <= min(open, close, high).
func (b Bar) Validate() error {
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return fmt.Errorf("non-positive price on %s", b.Date.Format("2006-01-02"))
	}
	if b.Volume < 0 {
		return fmt.Errorf("negative volume on %s", b.Date.Format("2006-01-02"))
	}
	if b.High < b.Open || b.High < b.Close || b.High < b.Low {
		return fmt.Errorf("high below open/close/low on %s", b.Date.Format("2006-01-02"))
	}
	if b.Low > b.Open || b.Low > b.Close {
		return fmt.Errorf("low above open/close on %s", b.Date.Format("2006-01-02"))
	}
	return nil
}

// Series is an ordered-by-date sequence of daily Bars for one currency.
type Series struct {
	Currency string
	Bars     []Bar
}

// First returns the date of the first bar, zero if empty.
func (s Series) First() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}
	return s.Bars[0].Date
}

// Last returns the date of the last bar, zero if empty.
func (s Series) Last() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}
	return s.Bars[len(s.Bars)-1].Date
}

// Correction records a field replaced by the cleaner: which bar, which field,
// what the raw value was and what it became.
type Correction struct {
	Currency string    `json:"currency"`
	Date     time.Time `json:"date"`
	Field    string    `json:"field"`
	OldValue float64   `json:"old_value"`
	NewValue float64   `json:"new_value"`
	Reason   string    `json:"reason"`
}
