package models

import (
	"fmt"
	"time"
)

// ValidationError reports raw data that violates the bar invariants and
// cannot be attributed to a correctable anomaly (bad high, unexplained gap,
// duplicate date). The pipeline fails closed on it.
type ValidationError struct {
	Currency string
	Date     time.Time
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Date.IsZero() {
		return fmt.Sprintf("validation: %s: %s", e.Currency, e.Reason)
	}
	return fmt.Sprintf("validation: %s %s: %s", e.Currency, e.Date.Format("2006-01-02"), e.Reason)
}

// InsufficientHistoryError reports a date window too short to seed a single
// fully-defined feature row (fewer than lagDepth prior days plus one lead day).
type InsufficientHistoryError struct {
	Currency string
	Have     int
	Need     int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history: %s has %d bars, need at least %d", e.Currency, e.Have, e.Need)
}

// AlignmentError reports a cross-currency request whose valid date ranges do
// not overlap.
type AlignmentError struct {
	Currencies []string
	Reason     string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("alignment: %v: %s", e.Currencies, e.Reason)
}
