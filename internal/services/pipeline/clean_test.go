package pipeline

import (
	"errors"
	"testing"
	"time"

	"CryptoPrep/internal/domain/models"
)

func day(d int) time.Time {
	return time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func goodBar(d int) models.Bar {
	return models.Bar{
		Date: day(d),
		Open: 100, High: 101.5, Low: 99.5, Close: 101,
		Volume: 1000,
	}
}

func goodSeries(n int) models.Series {
	bars := make([]models.Bar, n)
	for i := range bars {
		bars[i] = goodBar(i)
	}
	return models.Series{Currency: "BTC-USD", Bars: bars}
}

func TestCleanSortsAndNormalizesDates(t *testing.T) {
	s := models.Series{Currency: "BTC-USD", Bars: []models.Bar{
		goodBar(1), goodBar(0), goodBar(2),
	}}
	// bars arrive with intraday timestamps
	s.Bars[0].Date = s.Bars[0].Date.Add(13 * time.Hour)

	out, corr, err := Clean(s, DefaultCleanConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(corr) != 0 {
		t.Fatalf("unexpected corrections: %v", corr)
	}
	for i, b := range out.Bars {
		if !b.Date.Equal(day(i)) {
			t.Fatalf("bar %d date = %v, want %v", i, b.Date, day(i))
		}
	}
}

func TestCleanEmptySeries(t *testing.T) {
	_, _, err := Clean(models.Series{Currency: "BTC-USD"}, DefaultCleanConfig())
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCleanDuplicateDate(t *testing.T) {
	s := models.Series{Currency: "BTC-USD", Bars: []models.Bar{
		goodBar(0), goodBar(1), goodBar(1),
	}}
	_, _, err := Clean(s, DefaultCleanConfig())
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !verr.Date.Equal(day(1)) {
		t.Fatalf("error date = %v, want %v", verr.Date, day(1))
	}
}

func TestCleanGapWithoutOutageFails(t *testing.T) {
	s := models.Series{Currency: "BTC-USD", Bars: []models.Bar{
		goodBar(0), goodBar(1), goodBar(4),
	}}
	_, _, err := Clean(s, DefaultCleanConfig())
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !verr.Date.Equal(day(2)) {
		t.Fatalf("error date = %v, want first missing day %v", verr.Date, day(2))
	}
}

func TestCleanGapBridgedInsideOutage(t *testing.T) {
	s := models.Series{Currency: "BTC-USD", Bars: []models.Bar{
		goodBar(0), goodBar(1), goodBar(4),
	}}
	cfg := DefaultCleanConfig()
	cfg.KnownOutages = []DateRange{{From: day(2), To: day(3)}}

	out, corr, err := Clean(s, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Bars) != 5 {
		t.Fatalf("expected 5 bars after bridging, got %d", len(out.Bars))
	}
	if len(corr) != 2 {
		t.Fatalf("expected 2 fill corrections, got %d", len(corr))
	}
	for _, i := range []int{2, 3} {
		b := out.Bars[i]
		if b.Open != 101 || b.High != 101 || b.Low != 101 || b.Close != 101 || b.Volume != 0 {
			t.Fatalf("fill bar %d not a carry-forward of prior close: %+v", i, b)
		}
	}
	if corr[0].Field != "bar" {
		t.Fatalf("fill correction field = %q", corr[0].Field)
	}
}

func TestCleanGapPartiallyCoveredFails(t *testing.T) {
	s := models.Series{Currency: "BTC-USD", Bars: []models.Bar{
		goodBar(0), goodBar(4),
	}}
	cfg := DefaultCleanConfig()
	cfg.KnownOutages = []DateRange{{From: day(1), To: day(2)}}
	_, _, err := Clean(s, cfg)
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !verr.Date.Equal(day(3)) {
		t.Fatalf("error date = %v, want uncovered day %v", verr.Date, day(3))
	}
}

func TestCleanNonPositivePrice(t *testing.T) {
	s := goodSeries(3)
	s.Bars[1].Low = 0
	_, _, err := Clean(s, DefaultCleanConfig())
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCleanHighBelowCloseFails(t *testing.T) {
	s := goodSeries(3)
	s.Bars[1].High = 100.5 // close is 101
	_, _, err := Clean(s, DefaultCleanConfig())
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCleanLowAboveOpenCloseCorrected(t *testing.T) {
	s := goodSeries(3)
	s.Bars[1].Low = 100.7 // above open 100

	out, corr, err := Clean(s, DefaultCleanConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(corr) != 1 {
		t.Fatalf("expected 1 correction, got %d", len(corr))
	}
	c := corr[0]
	if c.Field != "low" || c.OldValue != 100.7 || c.NewValue != 100 {
		t.Fatalf("unexpected correction: %+v", c)
	}
	if out.Bars[1].Low != 100 {
		t.Fatalf("low = %v, want min(open, close) = 100", out.Bars[1].Low)
	}
}

func TestCleanOutlierLowCorrected(t *testing.T) {
	s := goodSeries(30)
	// one absurd low print: relative range explodes past the IQR envelope
	s.Bars[15].Low = 10

	out, corr, err := Clean(s, CleanConfig{OutlierIQRK: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(corr) != 1 {
		t.Fatalf("expected 1 correction, got %d: %v", len(corr), corr)
	}
	if corr[0].Field != "low" || corr[0].OldValue != 10 || corr[0].NewValue != 100 {
		t.Fatalf("unexpected correction: %+v", corr[0])
	}
	if out.Bars[15].Low != 100 {
		t.Fatalf("low = %v, want 100", out.Bars[15].Low)
	}
}

func TestCleanDoesNotMutateInput(t *testing.T) {
	s := goodSeries(3)
	s.Bars[1].Low = 100.7
	if _, _, err := Clean(s, DefaultCleanConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Bars[1].Low != 100.7 {
		t.Fatalf("input series was mutated")
	}
}

func TestCleanIdempotent(t *testing.T) {
	s := goodSeries(10)
	s.Bars[4].Low = 100.9

	once, corr1, err := Clean(s, DefaultCleanConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, corr2, err := Clean(once, DefaultCleanConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(corr1) != 1 || len(corr2) != 0 {
		t.Fatalf("expected corrections only on first pass: %d, %d", len(corr1), len(corr2))
	}
	for i := range once.Bars {
		if once.Bars[i] != twice.Bars[i] {
			t.Fatalf("bar %d changed on second pass", i)
		}
	}
}
