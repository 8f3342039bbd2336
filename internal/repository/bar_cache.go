package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"CryptoPrep/internal/domain/models"
	"CryptoPrep/internal/domain/repository"
	applogger "CryptoPrep/pkg/logger"
)

// CSVBarCache reads and writes raw daily bars as one CSV file per currency
// (columns: date,open,high,low,close,volume). It implements BarSource for
// offline runs against previously fetched data.
type CSVBarCache struct {
	dir string
}

func NewCSVBarCache(dir string) *CSVBarCache { return &CSVBarCache{dir: dir} }

func (c *CSVBarCache) path(currency string) string {
	name := strings.ReplaceAll(currency, "/", "_") + ".csv"
	return filepath.Join(c.dir, name)
}

// Has reports whether a cached file exists for the currency.
func (c *CSVBarCache) Has(currency string) bool {
	_, err := os.Stat(c.path(currency))
	return err == nil
}

func (c *CSVBarCache) GetDailyBars(ctx context.Context, currency string, start, end time.Time) ([]models.Bar, error) {
	f, err := os.Open(c.path(currency))
	if err != nil {
		return nil, fmt.Errorf("open bar cache: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read bar cache: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("bar cache %s: empty file", currency)
	}

	bars := make([]models.Bar, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != 6 {
			return nil, fmt.Errorf("bar cache %s line %d: want 6 columns, got %d", currency, i+2, len(rec))
		}
		date, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			return nil, fmt.Errorf("bar cache %s line %d: %w", currency, i+2, err)
		}
		if date.Before(start) || date.After(end) {
			continue
		}
		vals := make([]float64, 5)
		for j := 1; j < 6; j++ {
			v, err := strconv.ParseFloat(rec[j], 64)
			if err != nil {
				return nil, fmt.Errorf("bar cache %s line %d col %d: %w", currency, i+2, j+1, err)
			}
			vals[j-1] = v
		}
		bars = append(bars, models.Bar{
			Date: date.UTC(),
			Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3], Volume: vals[4],
		})
	}
	return bars, nil
}

// SaveBars persists bars for a currency, overwriting any previous file.
func (c *CSVBarCache) SaveBars(currency string, bars []models.Bar) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.dir, err)
	}
	f, err := os.Create(c.path(currency))
	if err != nil {
		return fmt.Errorf("create bar cache: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"date", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, b := range bars {
		if err := w.Write([]string{
			b.Date.Format("2006-01-02"),
			floatStr(b.Open), floatStr(b.High), floatStr(b.Low), floatStr(b.Close), floatStr(b.Volume),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// CachedBarSource is a read-through composite: cached CSV first, then the
// exchange, persisting fresh fetches back to the cache so subsequent runs
// are offline.
type CachedBarSource struct {
	cache    *CSVBarCache
	upstream repository.BarSource
	l        *applogger.Logger
}

func NewCachedBarSource(cache *CSVBarCache, upstream repository.BarSource) *CachedBarSource {
	return &CachedBarSource{cache: cache, upstream: upstream}
}

// SetLogger injects a structured logger.
func (s *CachedBarSource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CachedBarSource) GetDailyBars(ctx context.Context, currency string, start, end time.Time) ([]models.Bar, error) {
	if s.cache.Has(currency) {
		if s.l != nil {
			s.l.Debug("bar cache hit", applogger.String("currency", currency))
		}
		return s.cache.GetDailyBars(ctx, currency, start, end)
	}
	if s.upstream == nil {
		return nil, fmt.Errorf("no cached bars for %s and no exchange configured", currency)
	}
	bars, err := s.upstream.GetDailyBars(ctx, currency, start, end)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SaveBars(currency, bars); err != nil {
		if s.l != nil {
			s.l.Warn("bar cache save error", applogger.String("currency", currency), applogger.Error(err))
		}
	}
	return bars, nil
}

var (
	_ repository.BarSource = (*CSVBarCache)(nil)
	_ repository.BarSource = (*CachedBarSource)(nil)
)
