package usecase

import (
	"context"
	"fmt"
	"time"

	"CryptoPrep/internal/domain/models"
	drepo "CryptoPrep/internal/domain/repository"
)

// DatasetExporter routes the assembled dataset to every configured backend.
type DatasetExporter struct {
	backends []drepo.Exporter
	metrics  drepo.Metrics
}

// NewDatasetExporter creates a new DatasetExporter instance.
func NewDatasetExporter(backends []drepo.Exporter, metrics drepo.Metrics) *DatasetExporter {
	return &DatasetExporter{backends: backends, metrics: metrics}
}

// ExportAll writes the dataset to each backend in order, failing on the
// first error.
func (e *DatasetExporter) ExportAll(ctx context.Context, ds *models.Dataset) error {
	for _, b := range e.backends {
		start := time.Now()
		if err := b.Export(ctx, ds); err != nil {
			e.metrics.RecordError("export_" + b.Name())
			return fmt.Errorf("export %s: %w", b.Name(), err)
		}
		e.metrics.RecordExport(b.Name(), len(ds.Rows))
		e.metrics.RecordLatency("export_"+b.Name(), time.Since(start).Seconds())
	}
	return nil
}

// Close releases backends that hold resources.
func (e *DatasetExporter) Close() {
	for _, b := range e.backends {
		if c, ok := b.(interface{ Close() error }); ok {
			_ = c.Close()
		}
	}
}
