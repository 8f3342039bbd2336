package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"CryptoPrep/internal/domain/models"
	drepo "CryptoPrep/internal/domain/repository"
	"CryptoPrep/internal/services/dataset"
	"CryptoPrep/internal/services/pipeline"
)

type stubSource struct {
	bars map[string][]models.Bar
	err  error
}

func (s *stubSource) GetDailyBars(_ context.Context, currency string, _, _ time.Time) ([]models.Bar, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.bars[currency], nil
}

type nopMetrics struct{}

func (nopMetrics) RecordBarsLoaded(string, string, int) {}
func (nopMetrics) RecordCorrection(string, string)      {}
func (nopMetrics) RecordRowsAssembled(string, int)      {}
func (nopMetrics) RecordExport(string, int)             {}
func (nopMetrics) RecordError(string)                   {}
func (nopMetrics) RecordLatency(string, float64)        {}

func genBars(start time.Time, n int) []models.Bar {
	bars := make([]models.Bar, n)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = models.Bar{
			Date: start.AddDate(0, 0, i),
			Open: c, High: c + 2, Low: c - 2, Close: c + 1,
			Volume: 500,
		}
	}
	return bars
}

var start = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestPreparer(src *stubSource) *Preparer {
	return NewPreparer(src, pipeline.DefaultCleanConfig(), dataset.Config{LagDepth: 2, RRLag: 1}, nopMetrics{})
}

func TestPreparerRun(t *testing.T) {
	src := &stubSource{bars: map[string][]models.Bar{
		"BTC-USD": genBars(start, 12),
		"ETH-USD": genBars(start, 12),
	}}
	p := newTestPreparer(src)

	ds, err := p.Run(context.Background(), []string{"BTC-USD", "ETH-USD"}, start, start.AddDate(0, 0, 11))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 12 bars, lag depth 2: 9 rows per currency
	if len(ds.Rows) != 18 {
		t.Fatalf("rows = %d, want 18", len(ds.Rows))
	}
	if ds.LagDepth != 2 {
		t.Fatalf("lag depth = %d", ds.LagDepth)
	}
}

func TestPreparerCollectsCorrections(t *testing.T) {
	bars := genBars(start, 12)
	bars[5].Low = bars[5].Open + 1 // impossible low, gets corrected
	src := &stubSource{bars: map[string][]models.Bar{"BTC-USD": bars}}
	p := newTestPreparer(src)

	ds, err := p.Run(context.Background(), []string{"BTC-USD"}, start, start.AddDate(0, 0, 11))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ds.Corrections) != 1 {
		t.Fatalf("corrections = %d, want 1", len(ds.Corrections))
	}
	if ds.Corrections[0].Field != "low" {
		t.Fatalf("correction field = %q", ds.Corrections[0].Field)
	}
}

func TestPreparerFailsClosed(t *testing.T) {
	src := &stubSource{err: fmt.Errorf("exchange down")}
	p := newTestPreparer(src)
	if _, err := p.Run(context.Background(), []string{"BTC-USD"}, start, start.AddDate(0, 0, 11)); err == nil {
		t.Fatalf("expected load error")
	}

	src = &stubSource{bars: map[string][]models.Bar{"BTC-USD": genBars(start, 3)}}
	p = newTestPreparer(src)
	_, err := p.Run(context.Background(), []string{"BTC-USD"}, start, start.AddDate(0, 0, 2))
	var herr *models.InsufficientHistoryError
	if !errors.As(err, &herr) {
		t.Fatalf("expected InsufficientHistoryError, got %v", err)
	}
}

func TestPreparerNoCurrencies(t *testing.T) {
	p := newTestPreparer(&stubSource{})
	if _, err := p.Run(context.Background(), nil, start, start); err == nil {
		t.Fatalf("expected error for empty currency list")
	}
}

func TestPreparerPerCurrencyOutages(t *testing.T) {
	bars := genBars(start, 12)
	// drop day 5 to create a gap
	bars = append(bars[:5], bars[6:]...)
	src := &stubSource{bars: map[string][]models.Bar{"BTC-USD": bars}}

	p := newTestPreparer(src)
	if _, err := p.Run(context.Background(), []string{"BTC-USD"}, start, start.AddDate(0, 0, 11)); err == nil {
		t.Fatalf("expected gap validation error")
	}

	p = newTestPreparer(src)
	gap := start.AddDate(0, 0, 5)
	p.SetOutages(map[string][]pipeline.DateRange{
		"BTC-USD": {{From: gap, To: gap}},
	})
	ds, err := p.Run(context.Background(), []string{"BTC-USD"}, start, start.AddDate(0, 0, 11))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ds.Corrections) != 1 || ds.Corrections[0].Field != "bar" {
		t.Fatalf("expected one bridge correction, got %v", ds.Corrections)
	}
}

type recordingExporter struct {
	name string
	rows int
	err  error
}

func (r *recordingExporter) Export(_ context.Context, ds *models.Dataset) error {
	if r.err != nil {
		return r.err
	}
	r.rows = len(ds.Rows)
	return nil
}

func (r *recordingExporter) Name() string { return r.name }

func TestDatasetExporterAll(t *testing.T) {
	a := &recordingExporter{name: "csv"}
	b := &recordingExporter{name: "parquet"}
	e := NewDatasetExporter([]drepo.Exporter{a, b}, nopMetrics{})

	ds := &models.Dataset{Rows: make([]models.FeatureRow, 4)}
	if err := e.ExportAll(context.Background(), ds); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.rows != 4 || b.rows != 4 {
		t.Fatalf("exporters saw %d/%d rows", a.rows, b.rows)
	}
}

func TestDatasetExporterStopsOnError(t *testing.T) {
	a := &recordingExporter{name: "csv", err: fmt.Errorf("disk full")}
	b := &recordingExporter{name: "parquet"}
	e := NewDatasetExporter([]drepo.Exporter{a, b}, nopMetrics{})

	err := e.ExportAll(context.Background(), &models.Dataset{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if b.rows != 0 {
		t.Fatalf("later exporter ran after failure")
	}
}

func TestDatasetQueryFilters(t *testing.T) {
	q := NewDatasetQuery(nil)
	q.SetLatest(&models.Dataset{LagDepth: 2, Rows: []models.FeatureRow{
		{Date: start, Currency: "BTC-USD"},
		{Date: start.AddDate(0, 0, 1), Currency: "BTC-USD"},
		{Date: start, Currency: "ETH-USD"},
	}})

	res, err := q.GetRows(context.Background(), GetRowsParams{Currency: "BTC-USD"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 2 {
		t.Fatalf("count = %d, want 2", res.Count)
	}

	res, err = q.GetRows(context.Background(), GetRowsParams{From: start.AddDate(0, 0, 1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Count != 1 {
		t.Fatalf("count = %d, want 1", res.Count)
	}

	if _, err := q.GetRows(context.Background(), GetRowsParams{
		From: start.AddDate(0, 0, 5), To: start,
	}); err == nil {
		t.Fatalf("expected inverted window error")
	}
}

func TestDatasetQueryNoData(t *testing.T) {
	q := NewDatasetQuery(nil)
	if _, err := q.GetRows(context.Background(), GetRowsParams{}); err == nil {
		t.Fatalf("expected error with no dataset and no store")
	}
}
