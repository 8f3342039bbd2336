package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	barsLoaded    *prometheus.CounterVec
	corrections   *prometheus.CounterVec
	rowsAssembled *prometheus.CounterVec
	exported      *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		barsLoaded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptoprep_bars_loaded_total",
				Help: "Total number of daily bars loaded",
			},
			[]string{"source", "currency"},
		),
		corrections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptoprep_corrections_total",
				Help: "Total number of bar corrections applied during cleaning",
			},
			[]string{"currency", "field"},
		),
		rowsAssembled: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptoprep_rows_assembled_total",
				Help: "Total number of dataset rows assembled",
			},
			[]string{"currency"},
		),
		exported: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptoprep_rows_exported_total",
				Help: "Total number of rows written per export backend",
			},
			[]string{"backend"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptoprep_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cryptoprep_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordBarsLoaded records bars fetched from a source.
func (r *Recorder) RecordBarsLoaded(source, currency string, n int) {
	r.barsLoaded.WithLabelValues(source, currency).Add(float64(n))
}

// RecordCorrection records a cleaning correction.
func (r *Recorder) RecordCorrection(currency, field string) {
	r.corrections.WithLabelValues(currency, field).Inc()
}

// RecordRowsAssembled records assembled dataset rows.
func (r *Recorder) RecordRowsAssembled(currency string, n int) {
	r.rowsAssembled.WithLabelValues(currency).Add(float64(n))
}

// RecordExport records rows written to an export backend.
func (r *Recorder) RecordExport(backend string, rows int) {
	r.exported.WithLabelValues(backend).Add(float64(rows))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
