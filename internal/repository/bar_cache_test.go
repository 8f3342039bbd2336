package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"CryptoPrep/internal/domain/models"
)

func cacheBars(n int) []models.Bar {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = models.Bar{
			Date: start.AddDate(0, 0, i),
			Open: c, High: c + 2, Low: c - 2, Close: c + 1,
			Volume: 12.5,
		}
	}
	return bars
}

func TestCSVBarCacheRoundTrip(t *testing.T) {
	c := NewCSVBarCache(t.TempDir())
	bars := cacheBars(5)

	if c.Has("BTC-USD") {
		t.Fatalf("cache should start empty")
	}
	if err := c.SaveBars("BTC-USD", bars); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !c.Has("BTC-USD") {
		t.Fatalf("cache should report saved currency")
	}

	got, err := c.GetDailyBars(context.Background(), "BTC-USD",
		bars[0].Date, bars[len(bars)-1].Date)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != len(bars) {
		t.Fatalf("bars = %d, want %d", len(got), len(bars))
	}
	for i := range bars {
		if !got[i].Date.Equal(bars[i].Date) {
			t.Fatalf("bar %d date = %v, want %v", i, got[i].Date, bars[i].Date)
		}
		if got[i].Open != bars[i].Open || got[i].High != bars[i].High ||
			got[i].Low != bars[i].Low || got[i].Close != bars[i].Close ||
			got[i].Volume != bars[i].Volume {
			t.Fatalf("bar %d = %+v, want %+v", i, got[i], bars[i])
		}
	}
}

func TestCSVBarCacheWindowFilter(t *testing.T) {
	c := NewCSVBarCache(t.TempDir())
	bars := cacheBars(10)
	if err := c.SaveBars("BTC-USD", bars); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := c.GetDailyBars(context.Background(), "BTC-USD",
		bars[2].Date, bars[6].Date)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("bars = %d, want 5", len(got))
	}
	if !got[0].Date.Equal(bars[2].Date) || !got[4].Date.Equal(bars[6].Date) {
		t.Fatalf("window filter wrong: %v .. %v", got[0].Date, got[4].Date)
	}
}

type countingSource struct {
	calls int
	bars  []models.Bar
	err   error
}

func (s *countingSource) GetDailyBars(_ context.Context, _ string, _, _ time.Time) ([]models.Bar, error) {
	s.calls++
	return s.bars, s.err
}

func TestCachedBarSourceReadThrough(t *testing.T) {
	bars := cacheBars(5)
	upstream := &countingSource{bars: bars}
	src := NewCachedBarSource(NewCSVBarCache(t.TempDir()), upstream)

	ctx := context.Background()
	from, to := bars[0].Date, bars[4].Date
	got, err := src.GetDailyBars(ctx, "BTC-USD", from, to)
	if err != nil {
		t.Fatalf("first get: %v", err)
	}
	if len(got) != 5 || upstream.calls != 1 {
		t.Fatalf("first get: %d bars, %d upstream calls", len(got), upstream.calls)
	}

	got, err = src.GetDailyBars(ctx, "BTC-USD", from, to)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if len(got) != 5 || upstream.calls != 1 {
		t.Fatalf("second get should be served from cache, upstream calls = %d", upstream.calls)
	}
}

func TestCachedBarSourceNoUpstream(t *testing.T) {
	src := NewCachedBarSource(NewCSVBarCache(t.TempDir()), nil)
	if _, err := src.GetDailyBars(context.Background(), "BTC-USD", time.Now(), time.Now()); err == nil {
		t.Fatalf("expected error with empty cache and no upstream")
	}
}

func TestCachedBarSourceUpstreamError(t *testing.T) {
	upstream := &countingSource{err: fmt.Errorf("exchange down")}
	src := NewCachedBarSource(NewCSVBarCache(t.TempDir()), upstream)
	if _, err := src.GetDailyBars(context.Background(), "BTC-USD", time.Now(), time.Now()); err == nil {
		t.Fatalf("expected upstream error")
	}
}
