package repository

import (
	"context"
	"time"

	"CryptoPrep/internal/domain/models"
)

// BarSource supplies raw daily bars for one currency over a date window.
// Implementations: exchange REST client, CSV cache, cache-through composite.
type BarSource interface {
	GetDailyBars(ctx context.Context, currency string, start, end time.Time) ([]models.Bar, error)
}

// Exporter hands the assembled dataset to an external collaborator
// (flat file, feature store, message topic).
type Exporter interface {
	Export(ctx context.Context, ds *models.Dataset) error
	Name() string
}

// Metrics records pipeline observability counters.
type Metrics interface {
	RecordBarsLoaded(source, currency string, n int)
	RecordCorrection(currency, field string)
	RecordRowsAssembled(currency string, n int)
	RecordExport(backend string, rows int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
