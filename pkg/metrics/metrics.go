// Package metrics provides Prometheus instrumentation for the import
// pipeline: write throughput, batch flush latency, and failure counts.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsWritten counts documents written, by operation (create/upsert)
	RecordsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsink",
			Name:      "records_written_total",
			Help:      "Total number of documents written to the store",
		},
		[]string{"operation"},
	)

	// WriteErrors counts failed writes by error type
	WriteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsink",
			Name:      "write_errors_total",
			Help:      "Total number of failed write operations",
		},
		[]string{"error_type"},
	)

	// BatchesFlushed counts completed batch flushes
	BatchesFlushed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docsink",
			Name:      "batches_flushed_total",
			Help:      "Total number of completed batch flushes",
		},
	)

	// FlushDuration observes the time spent waiting for a batch to complete
	FlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docsink",
			Name:      "batch_flush_duration_seconds",
			Help:      "Time spent waiting for all writes in a batch to complete",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
		},
	)

	// InFlightWrites gauges the writes currently outstanding
	InFlightWrites = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docsink",
			Name:      "inflight_writes",
			Help:      "Number of write operations currently in flight",
		},
	)
)

// Timer measures the duration of a single operation
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewFlushTimer starts a timer against the flush duration histogram
func NewFlushTimer() *Timer {
	return &Timer{start: time.Now(), observer: FlushDuration}
}

// Stop records the elapsed time and returns it
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	t.observer.Observe(elapsed.Seconds())
	return elapsed
}
