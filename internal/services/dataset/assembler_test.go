package dataset

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"CryptoPrep/internal/domain/models"
)

func mkSeries(currency string, start time.Time, n int) models.Series {
	bars := make([]models.Bar, n)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = models.Bar{
			Date: start.AddDate(0, 0, i),
			Open: c, High: c + 2, Low: c - 2, Close: c + 1,
			Volume: 1000,
		}
	}
	return models.Series{Currency: currency, Bars: bars}
}

var t0 = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

func TestBuildRowsBoundaryCount(t *testing.T) {
	cfg := DefaultConfig() // lag depth 7
	n := 20
	rows, err := BuildRows(mkSeries("BTC-USD", t0, n), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// first 7 rows lack full lag windows, the last lacks a forward label
	if want := n - cfg.LagDepth - 1; len(rows) != want {
		t.Fatalf("rows = %d, want %d", len(rows), want)
	}
	if !rows[0].Date.Equal(t0.AddDate(0, 0, cfg.LagDepth)) {
		t.Fatalf("first row date = %v", rows[0].Date)
	}
	if !rows[len(rows)-1].Date.Equal(t0.AddDate(0, 0, n-2)) {
		t.Fatalf("last row date = %v", rows[len(rows)-1].Date)
	}
}

func TestBuildRowsMinimumLength(t *testing.T) {
	cfg := DefaultConfig()
	rows, err := BuildRows(mkSeries("BTC-USD", t0, cfg.LagDepth+2), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want exactly 1", len(rows))
	}
}

func TestBuildRowsInsufficientHistory(t *testing.T) {
	cfg := DefaultConfig()
	_, err := BuildRows(mkSeries("BTC-USD", t0, cfg.LagDepth+1), cfg)
	var herr *models.InsufficientHistoryError
	if !errors.As(err, &herr) {
		t.Fatalf("expected InsufficientHistoryError, got %v", err)
	}
	if herr.Have != cfg.LagDepth+1 || herr.Need != cfg.LagDepth+2 {
		t.Fatalf("unexpected counts: %+v", herr)
	}
}

func TestBuildRowsValues(t *testing.T) {
	cfg := Config{LagDepth: 1, RRLag: 1}
	s := models.Series{Currency: "BTC-USD", Bars: []models.Bar{
		{Date: t0, Open: 100, High: 110, Low: 95, Close: 100, Volume: 1},
		{Date: t0.AddDate(0, 0, 1), Open: 100, High: 106, Low: 99, Close: 105, Volume: 1},
		{Date: t0.AddDate(0, 0, 2), Open: 105, High: 106, Low: 102, Close: 103, Volume: 1},
	}}
	rows, err := BuildRows(s, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	r := rows[0]
	if !r.Date.Equal(t0.AddDate(0, 0, 1)) {
		t.Fatalf("row date = %v", r.Date)
	}
	if want := (110.0 - 95.0) / 100.0; math.Abs(r.RR-want) > 1e-12 {
		t.Fatalf("rr = %v, want %v", r.RR, want)
	}
	if want := math.Log(105.0 / 100.0); math.Abs(r.LogRetLag[0]-want) > 1e-12 {
		t.Fatalf("log_ret_lag_1 = %v, want %v", r.LogRetLag[0], want)
	}
	if want := math.Log(103.0 / 105.0); math.Abs(r.FwdLogRet-want) > 1e-12 {
		t.Fatalf("fwd_log_ret = %v, want %v", r.FwdLogRet, want)
	}
	if r.FwdClosePositive {
		t.Fatalf("fwd_close_positive should be false")
	}
	if r.DayName != "Saturday" {
		t.Fatalf("day name = %q, want Saturday", r.DayName)
	}
}

func TestAssembleIntersectsDateRanges(t *testing.T) {
	cfg := Config{LagDepth: 2, RRLag: 1}
	btc := mkSeries("BTC-USD", t0, 20)
	eth := mkSeries("ETH-USD", t0.AddDate(0, 0, 5), 20)

	ds, err := Assemble([]models.Series{btc, eth}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// BTC valid rows: days 2..18; ETH valid rows: days 7..23. Overlap 7..18.
	from := t0.AddDate(0, 0, 7)
	to := t0.AddDate(0, 0, 18)
	counts := map[string]int{}
	for _, r := range ds.Rows {
		counts[r.Currency]++
		if r.Date.Before(from) || r.Date.After(to) {
			t.Fatalf("row %s %v outside aligned window", r.Currency, r.Date)
		}
	}
	if counts["BTC-USD"] != 12 || counts["ETH-USD"] != 12 {
		t.Fatalf("unexpected row counts: %v", counts)
	}
}

func TestAssembleSortedByCurrencyThenDate(t *testing.T) {
	cfg := Config{LagDepth: 2, RRLag: 1}
	btc := mkSeries("BTC-USD", t0, 10)
	eth := mkSeries("ETH-USD", t0, 10)

	ds, err := Assemble([]models.Series{eth, btc}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(ds.Rows); i++ {
		a, b := ds.Rows[i-1], ds.Rows[i]
		if a.Currency > b.Currency {
			t.Fatalf("rows not sorted by currency at %d", i)
		}
		if a.Currency == b.Currency && !a.Date.Before(b.Date) {
			t.Fatalf("rows not sorted by date at %d", i)
		}
	}
}

func TestAssembleDisjointRangesFail(t *testing.T) {
	cfg := Config{LagDepth: 2, RRLag: 1}
	btc := mkSeries("BTC-USD", t0, 10)
	eth := mkSeries("ETH-USD", t0.AddDate(0, 0, 100), 10)

	_, err := Assemble([]models.Series{btc, eth}, cfg)
	var aerr *models.AlignmentError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AlignmentError, got %v", err)
	}
	if len(aerr.Currencies) != 2 {
		t.Fatalf("unexpected currencies: %v", aerr.Currencies)
	}
}

func TestAssembleSingleCurrencyNotTrimmed(t *testing.T) {
	cfg := Config{LagDepth: 2, RRLag: 1}
	ds, err := Assemble([]models.Series{mkSeries("BTC-USD", t0, 10)}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ds.Rows) != 7 {
		t.Fatalf("rows = %d, want 7", len(ds.Rows))
	}
}

func TestAssembleDeterministic(t *testing.T) {
	cfg := Config{LagDepth: 3, RRLag: 1}
	series := []models.Series{
		mkSeries("BTC-USD", t0, 15),
		mkSeries("ETH-USD", t0, 15),
	}
	a, err := Assemble(series, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Assemble(series, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(a.Rows, b.Rows) {
		t.Fatalf("two assemblies of identical input differ")
	}
}

func TestSplitChronological(t *testing.T) {
	cfg := Config{LagDepth: 2, RRLag: 1}
	ds, err := Assemble([]models.Series{mkSeries("BTC-USD", t0, 13)}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ds.Rows) != 10 {
		t.Fatalf("rows = %d, want 10", len(ds.Rows))
	}

	sets := Split(ds, 0.6, 0.2)
	ss := sets["BTC-USD"]
	if len(ss.Train) != 6 || len(ss.Validate) != 2 || len(ss.Test) != 2 {
		t.Fatalf("split sizes = %d/%d/%d", len(ss.Train), len(ss.Validate), len(ss.Test))
	}
	if !ss.Train[len(ss.Train)-1].Date.Before(ss.Validate[0].Date) {
		t.Fatalf("train must precede validate")
	}
	if !ss.Validate[len(ss.Validate)-1].Date.Before(ss.Test[0].Date) {
		t.Fatalf("validate must precede test")
	}
}
