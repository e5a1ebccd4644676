package permgo

import (
	"log/slog"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/permgo/lattice"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	batchConcurrency int
	workers          int
	capacityHint     int
	acquirer         lattice.MemoryAcquirer
	mask             *roaring.Bitmap
}

// Option configures filter behavior.
//
// Options exist to avoid exploding the API surface with configuration
// parameters that most callers never touch.
type Option func(*options)

// WithLogger configures structured logging for filter operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithBatchConcurrency limits how many batch elements are filtered in
// parallel. Batch elements share no state, so this is the natural
// outer-level parallelism; <= 0 selects a sensible default.
func WithBatchConcurrency(n int) Option {
	return func(o *options) {
		o.batchConcurrency = n
	}
}

// WithWorkers sets the per-lattice worker count for the data-parallel
// passes. 1 gives the fully sequential backend; <= 0 selects GOMAXPROCS.
// When filtering large batches it usually pays to spend the parallelism at
// the batch level instead and keep this at 1.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithCapacityHint sets the expected number of distinct lattice vertices per
// batch element, pre-sizing the vertex table.
func WithCapacityHint(n int) Option {
	return func(o *options) {
		o.capacityHint = n
	}
}

// WithMemoryAcquirer charges lattice allocations against an external memory
// budget, typically a resource.Controller.
func WithMemoryAcquirer(acquirer lattice.MemoryAcquirer) Option {
	return func(o *options) {
		o.acquirer = acquirer
	}
}

// WithMask restricts filtering to the samples whose indices are set in the
// bitmap. Unmasked samples pass through unchanged and contribute nothing to
// the lattice. The same mask applies to every batch element.
func WithMask(mask *roaring.Bitmap) Option {
	return func(o *options) {
		o.mask = mask
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
