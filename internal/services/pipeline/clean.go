package pipeline

import (
	"fmt"
	"sort"
	"time"

	"CryptoPrep/internal/domain/models"
	"CryptoPrep/pkg/util"
)

// DateRange is an inclusive calendar-day interval (a known exchange outage).
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d time.Time) bool {
	return !d.Before(r.From) && !d.After(r.To)
}

// CleanConfig tunes the cleaner.
type CleanConfig struct {
	// OutlierIQRK is the IQR multiple above Q3 at which a bar's relative
	// range (high-low)/low marks the low as a spurious print. The original
	// research used 20.
	OutlierIQRK float64
	// KnownOutages lists exchange outage windows; date gaps fully covered by
	// them are bridged with carry-forward bars instead of failing.
	KnownOutages []DateRange
}

// DefaultCleanConfig returns the cleaner defaults.
func DefaultCleanConfig() CleanConfig {
	return CleanConfig{OutlierIQRK: 20}
}

// Clean validates a raw currency series and corrects anomalous low prints,
// returning a new corrected series plus the audit log of corrections. The
// input is never mutated. Uncorrectable data (bad highs, non-positive prices,
// duplicate dates, unexplained gaps) fails with *models.ValidationError so
// the rolling-window features downstream are never computed over broken
// contiguity.
func Clean(s models.Series, cfg CleanConfig) (models.Series, []models.Correction, error) {
	if len(s.Bars) == 0 {
		return models.Series{}, nil, &models.ValidationError{Currency: s.Currency, Reason: "empty series"}
	}

	bars := make([]models.Bar, len(s.Bars))
	copy(bars, s.Bars)
	for i := range bars {
		bars[i].Date = util.Midnight(bars[i].Date)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	var corrections []models.Correction

	// Contiguity: strictly increasing, gap-free daily dates. Gaps fully
	// inside a known outage are bridged by carrying the previous close
	// forward; anything else is uncorrectable.
	bridged := make([]models.Bar, 0, len(bars))
	bridged = append(bridged, bars[0])
	for i := 1; i < len(bars); i++ {
		prev := bridged[len(bridged)-1]
		cur := bars[i]
		if cur.Date.Equal(prev.Date) {
			return models.Series{}, nil, &models.ValidationError{
				Currency: s.Currency, Date: cur.Date, Reason: "duplicate date",
			}
		}
		for d := nextDay(prev.Date); d.Before(cur.Date); d = nextDay(d) {
			if !inOutage(d, cfg.KnownOutages) {
				return models.Series{}, nil, &models.ValidationError{
					Currency: s.Currency, Date: d, Reason: "date gap not covered by a known exchange outage",
				}
			}
			fill := models.Bar{
				Date: d,
				Open: prev.Close, High: prev.Close, Low: prev.Close, Close: prev.Close,
				Volume: 0,
			}
			corrections = append(corrections, models.Correction{
				Currency: s.Currency, Date: d, Field: "bar",
				OldValue: 0, NewValue: prev.Close,
				Reason: "exchange outage bridged with carry-forward close",
			})
			bridged = append(bridged, fill)
			prev = fill
		}
		bridged = append(bridged, cur)
	}
	bars = bridged

	// Field-level repair. Only the low is correctable: a recorded low above
	// the day's open/close is a physically impossible print and is replaced
	// by min(open, close) of the same day. Bad highs cannot be derived from
	// neighboring continuity and fail the run.
	for i, b := range bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 || b.Volume < 0 {
			return models.Series{}, nil, &models.ValidationError{
				Currency: s.Currency, Date: b.Date, Reason: "non-positive price or negative volume",
			}
		}
		if b.High < b.Open || b.High < b.Close {
			return models.Series{}, nil, &models.ValidationError{
				Currency: s.Currency, Date: b.Date, Reason: "high below open/close",
			}
		}
		if floor := minOpenClose(b); b.Low > floor {
			corrections = append(corrections, models.Correction{
				Currency: s.Currency, Date: b.Date, Field: "low",
				OldValue: b.Low, NewValue: floor,
				Reason: "low above open/close replaced with min(open, close)",
			})
			bars[i].Low = floor
		}
	}

	// Statistical outlier lows: a relative range (high-low)/low far beyond
	// the IQR envelope of the series is a spurious print (exchange error),
	// corrected by the same min(open, close) rule rather than deleted, so
	// daily contiguity survives for the rolling windows.
	if cfg.OutlierIQRK > 0 && len(bars) >= 4 {
		rel := make([]float64, len(bars))
		for i, b := range bars {
			rel[i] = (b.High - b.Low) / b.Low
		}
		upper := quantile(rel, 0.75) + cfg.OutlierIQRK*iqr(rel)
		for i, b := range bars {
			if rel[i] <= upper {
				continue
			}
			floor := minOpenClose(b)
			if b.Low >= floor {
				continue
			}
			corrections = append(corrections, models.Correction{
				Currency: s.Currency, Date: b.Date, Field: "low",
				OldValue: b.Low, NewValue: floor,
				Reason: fmt.Sprintf("relative range %.4f above IQR threshold %.4f", rel[i], upper),
			})
			bars[i].Low = floor
		}
	}

	for _, b := range bars {
		if err := b.Validate(); err != nil {
			return models.Series{}, nil, &models.ValidationError{
				Currency: s.Currency, Date: b.Date, Reason: err.Error(),
			}
		}
	}

	return models.Series{Currency: s.Currency, Bars: bars}, corrections, nil
}

func minOpenClose(b models.Bar) float64 {
	if b.Open < b.Close {
		return b.Open
	}
	return b.Close
}

func inOutage(d time.Time, outages []DateRange) bool {
	for _, r := range outages {
		if r.Contains(d) {
			return true
		}
	}
	return false
}

func nextDay(t time.Time) time.Time { return t.AddDate(0, 0, 1) }
