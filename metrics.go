package permgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordFilter is called after each single-element filter invocation.
	// n is the sample count, duration the total time taken, err nil on
	// success.
	RecordFilter(n int, duration time.Duration, err error)

	// RecordBatchFilter is called after each batched filter operation.
	// batch is the number of batch elements attempted, failed the number
	// that failed, duration the total time taken.
	RecordBatchFilter(batch, failed int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordFilter(int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordBatchFilter(int, int, time.Duration) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	FilterCount      atomic.Int64
	FilterErrors     atomic.Int64
	FilterSamples    atomic.Int64
	FilterTotalNanos atomic.Int64
	BatchCount       atomic.Int64
	BatchElements    atomic.Int64
	BatchFailed      atomic.Int64
	BatchTotalNanos  atomic.Int64
}

// RecordFilter implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFilter(n int, duration time.Duration, err error) {
	b.FilterCount.Add(1)
	b.FilterSamples.Add(int64(n))
	b.FilterTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FilterErrors.Add(1)
	}
}

// RecordBatchFilter implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatchFilter(batch, failed int, duration time.Duration) {
	b.BatchCount.Add(1)
	b.BatchElements.Add(int64(batch))
	b.BatchFailed.Add(int64(failed))
	b.BatchTotalNanos.Add(duration.Nanoseconds())
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		FilterCount:    b.FilterCount.Load(),
		FilterErrors:   b.FilterErrors.Load(),
		FilterSamples:  b.FilterSamples.Load(),
		FilterAvgNanos: b.getAvgFilterNanos(),
		BatchCount:     b.BatchCount.Load(),
		BatchElements:  b.BatchElements.Load(),
		BatchFailed:    b.BatchFailed.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgFilterNanos() int64 {
	count := b.FilterCount.Load()
	if count == 0 {
		return 0
	}
	return b.FilterTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	FilterCount    int64
	FilterErrors   int64
	FilterSamples  int64
	FilterAvgNanos int64
	BatchCount     int64
	BatchElements  int64
	BatchFailed    int64
}
