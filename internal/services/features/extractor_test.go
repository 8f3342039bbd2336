package features

import (
	"math"
	"testing"
	"time"

	"CryptoPrep/internal/domain/models"
)

func mkBars(closes ...float64) []models.Bar {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{
			Date: start.AddDate(0, 0, i),
			Open: c, High: c * 1.1, Low: c * 0.9, Close: c,
			Volume: 1000,
		}
	}
	return bars
}

func TestParkinsonSigmaUndefinedPrefix(t *testing.T) {
	bars := mkBars(100, 101, 102, 103, 104)
	for k := 1; k <= 3; k++ {
		sigma := ParkinsonSigma(bars, k)
		for i := 0; i < k; i++ {
			if IsDefined(sigma[i]) {
				t.Fatalf("k=%d: sigma[%d] should be undefined", k, i)
			}
		}
		for i := k; i < len(bars); i++ {
			if !IsDefined(sigma[i]) {
				t.Fatalf("k=%d: sigma[%d] should be defined", k, i)
			}
		}
	}
}

func TestParkinsonSigmaConstantRange(t *testing.T) {
	// Every bar has high/low = 11/9, so every window averages the same
	// squared log range and sigma is identical for all lags.
	bars := mkBars(100, 100, 100, 100, 100, 100)
	want := math.Sqrt(math.Pow(math.Log(1.1/0.9), 2) / (4 * math.Ln2))

	for k := 1; k <= 4; k++ {
		sigma := ParkinsonSigma(bars, k)
		if math.Abs(sigma[4]-want) > 1e-12 {
			t.Fatalf("k=%d: sigma = %v, want %v", k, sigma[4], want)
		}
	}
}

func TestParkinsonSigmaExcludesCurrentDay(t *testing.T) {
	bars := mkBars(100, 100, 100)
	// Blow up the range of the last bar; sigma_1 at that index must only
	// see the prior day.
	bars[2].High = 500
	bars[2].Low = 50
	sigma := ParkinsonSigma(bars, 1)
	want := math.Sqrt(math.Pow(math.Log(110.0/90.0), 2) / (4 * math.Ln2))
	if math.Abs(sigma[2]-want) > 1e-12 {
		t.Fatalf("sigma[2] = %v, want %v (prior-day window)", sigma[2], want)
	}
}

func TestRelativeRange(t *testing.T) {
	bars := mkBars(100, 200)
	rr := RelativeRange(bars, 1)
	if IsDefined(rr[0]) {
		t.Fatalf("rr[0] should be undefined")
	}
	want := (110.0 - 90.0) / 100.0
	if math.Abs(rr[1]-want) > 1e-12 {
		t.Fatalf("rr[1] = %v, want %v", rr[1], want)
	}
}

func TestPctChange(t *testing.T) {
	bars := mkBars(100, 105, 103)
	pc := PctChange(bars)
	if IsDefined(pc[0]) {
		t.Fatalf("pc[0] should be undefined")
	}
	if math.Abs(pc[1]-0.05) > 1e-12 {
		t.Fatalf("pc[1] = %v, want 0.05", pc[1])
	}
	if math.Abs(pc[2]-(103.0/105.0-1)) > 1e-12 {
		t.Fatalf("pc[2] = %v", pc[2])
	}
}

func TestLogReturnLag(t *testing.T) {
	bars := mkBars(100, 105, 103)
	lr1 := LogReturnLag(bars, 1)
	if IsDefined(lr1[0]) {
		t.Fatalf("lr1[0] should be undefined")
	}
	if math.Abs(lr1[1]-math.Log(1.05)) > 1e-12 {
		t.Fatalf("lr1[1] = %v, want ln(1.05)", lr1[1])
	}
	lr2 := LogReturnLag(bars, 2)
	if IsDefined(lr2[1]) {
		t.Fatalf("lr2[1] should be undefined")
	}
	if math.Abs(lr2[2]-math.Log(1.03)) > 1e-12 {
		t.Fatalf("lr2[2] = %v, want ln(1.03)", lr2[2])
	}
}

func TestComputeDefinedAt(t *testing.T) {
	s := models.Series{Currency: "BTC-USD", Bars: mkBars(100, 101, 102, 103, 104)}
	v := Compute(s, 2, 1)
	if v.DefinedAt(0) || v.DefinedAt(1) {
		t.Fatalf("indices before the deepest lag must be undefined")
	}
	for i := 2; i < 5; i++ {
		if !v.DefinedAt(i) {
			t.Fatalf("index %d should be defined", i)
		}
	}
	if v.DayName[0] != "Friday" {
		t.Fatalf("2021-01-01 is a Friday, got %s", v.DayName[0])
	}
}
