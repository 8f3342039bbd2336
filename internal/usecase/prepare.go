package usecase

import (
	"context"
	"fmt"
	"time"

	"CryptoPrep/internal/domain/models"
	drepo "CryptoPrep/internal/domain/repository"
	"CryptoPrep/internal/services/dataset"
	"CryptoPrep/internal/services/pipeline"
	applogger "CryptoPrep/pkg/logger"
	"CryptoPrep/pkg/util"
)

// Preparer runs the full preparation pipeline: load bars per currency, clean
// them, engineer features and labels, and assemble the aligned dataset.
// Currencies are processed sequentially; each stage is a pure function of its
// input, so re-running on identical input yields an identical dataset.
type Preparer struct {
	source   drepo.BarSource
	cleanCfg pipeline.CleanConfig
	dsCfg    dataset.Config
	metrics  drepo.Metrics
	outages  map[string][]pipeline.DateRange
	l        *applogger.Logger
}

// NewPreparer creates a new Preparer instance.
func NewPreparer(source drepo.BarSource, cleanCfg pipeline.CleanConfig, dsCfg dataset.Config, metrics drepo.Metrics) *Preparer {
	return &Preparer{source: source, cleanCfg: cleanCfg, dsCfg: dsCfg, metrics: metrics}
}

// SetLogger injects a structured logger.
func (p *Preparer) SetLogger(l *applogger.Logger) { p.l = l }

// SetOutages registers per-currency exchange outage windows for gap bridging.
func (p *Preparer) SetOutages(o map[string][]pipeline.DateRange) { p.outages = o }

func (p *Preparer) cleanConfigFor(currency string) pipeline.CleanConfig {
	cfg := p.cleanCfg
	if extra := p.outages[currency]; len(extra) > 0 {
		cfg.KnownOutages = append(append([]pipeline.DateRange{}, cfg.KnownOutages...), extra...)
	}
	return cfg
}

// Run executes the pipeline for the requested currencies over [start, end].
// It fails closed: any validation, history, or alignment error aborts the
// whole run with no partial output.
func (p *Preparer) Run(ctx context.Context, currencies []string, start, end time.Time) (*models.Dataset, error) {
	if len(currencies) == 0 {
		return nil, fmt.Errorf("no currencies requested")
	}
	start, end = util.AlignDays(start, end)
	runStart := time.Now()

	series := make([]models.Series, 0, len(currencies))
	var corrections []models.Correction
	for _, cur := range currencies {
		bars, err := p.source.GetDailyBars(ctx, cur, start, end)
		if err != nil {
			p.metrics.RecordError("load")
			return nil, fmt.Errorf("load %s: %w", cur, err)
		}
		p.metrics.RecordBarsLoaded("source", cur, len(bars))

		cleaned, corr, err := pipeline.Clean(models.Series{Currency: cur, Bars: bars}, p.cleanConfigFor(cur))
		if err != nil {
			p.metrics.RecordError("clean")
			return nil, err
		}
		for _, c := range corr {
			p.metrics.RecordCorrection(c.Currency, c.Field)
			if p.l != nil {
				p.l.Warn("bar corrected",
					applogger.String("currency", c.Currency),
					applogger.String("date", c.Date.Format("2006-01-02")),
					applogger.String("field", c.Field),
					applogger.Any("old", c.OldValue),
					applogger.Any("new", c.NewValue),
				)
			}
		}
		corrections = append(corrections, corr...)
		series = append(series, cleaned)
	}

	ds, err := dataset.Assemble(series, p.dsCfg)
	if err != nil {
		p.metrics.RecordError("assemble")
		return nil, err
	}
	ds.Corrections = corrections

	counts := make(map[string]int, len(currencies))
	for _, r := range ds.Rows {
		counts[r.Currency]++
	}
	for cur, n := range counts {
		p.metrics.RecordRowsAssembled(cur, n)
	}
	p.metrics.RecordLatency("prepare", time.Since(runStart).Seconds())
	if p.l != nil {
		p.l.Info("pipeline complete",
			applogger.Int("currencies", len(currencies)),
			applogger.Int("rows", len(ds.Rows)),
			applogger.Int("corrections", len(corrections)),
			applogger.Duration("duration_ms", time.Since(runStart)),
		)
	}
	return ds, nil
}
