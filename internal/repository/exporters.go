package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"CryptoPrep/internal/domain/models"
	"CryptoPrep/internal/domain/repository"
	pkgkafka "CryptoPrep/pkg/kafka"
)

// CSVExporter writes the assembled dataset as a flat CSV file with the
// documented column schema. Output is deterministic: identical input bytes
// produce an identical file.
type CSVExporter struct {
	dir string
}

func NewCSVExporter(dir string) *CSVExporter { return &CSVExporter{dir: dir} }

func (e *CSVExporter) Name() string { return "csv" }

func (e *CSVExporter) Export(ctx context.Context, ds *models.Dataset) error {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", e.dir, err)
	}
	path := filepath.Join(e.dir, "dataset.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(models.ColumnNames(ds.LagDepth)); err != nil {
		return err
	}
	for _, r := range ds.Rows {
		if err := w.Write(rowRecord(r)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func rowRecord(r models.FeatureRow) []string {
	rec := []string{r.Date.Format("2006-01-02"), r.Currency}
	for _, v := range r.Sigma {
		rec = append(rec, floatStr(v))
	}
	rec = append(rec, floatStr(r.RR), floatStr(r.PctChg))
	for _, v := range r.LogRetLag {
		rec = append(rec, floatStr(v))
	}
	rec = append(rec, r.DayName,
		floatStr(r.FwdLogRet), floatStr(r.FwdRet), floatStr(r.FwdPctChg),
		strconv.FormatBool(r.FwdClosePositive),
	)
	return rec
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// ParquetExporter writes the assembled dataset as a Parquet file; sigma and
// log-return lags become list columns.
type ParquetExporter struct {
	dir string
}

func NewParquetExporter(dir string) *ParquetExporter { return &ParquetExporter{dir: dir} }

func (e *ParquetExporter) Name() string { return "parquet" }

func (e *ParquetExporter) Export(ctx context.Context, ds *models.Dataset) error {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", e.dir, err)
	}
	path := filepath.Join(e.dir, "dataset.parquet")
	if err := parquet.WriteFile(path, ds.Rows); err != nil {
		return fmt.Errorf("write parquet %s: %w", path, err)
	}
	return nil
}

// KafkaExporter publishes each feature row to a topic, keyed by currency so
// per-currency ordering is preserved for downstream modeling consumers.
type KafkaExporter struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaExporter(producer *pkgkafka.Producer, topic string) *KafkaExporter {
	return &KafkaExporter{producer: producer, topic: topic}
}

func (e *KafkaExporter) Name() string { return "kafka" }

func (e *KafkaExporter) Export(ctx context.Context, ds *models.Dataset) error {
	if len(ds.Rows) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(ds.Rows))
	for i, r := range ds.Rows {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(r.Currency),
			Value: r,
		}
	}
	return e.producer.PublishBatch(ctx, e.topic, msgs)
}

// Close releases the underlying producer.
func (e *KafkaExporter) Close() error {
	if e.producer != nil {
		return e.producer.Close()
	}
	return nil
}

var (
	_ repository.Exporter = (*CSVExporter)(nil)
	_ repository.Exporter = (*ParquetExporter)(nil)
	_ repository.Exporter = (*KafkaExporter)(nil)
)
