package refine

import (
	"layoutrefine/internal/logging"
	"layoutrefine/internal/metrics"
)

// DefaultWindowSize is the paging unit of the alignment cache. The cache
// holds up to DefaultWindowSize * cache.CapacityFactor records.
const DefaultWindowSize = 1000

// Option configures a Refiner.
type Option func(*options)

type options struct {
	windowSize int
	logger     logging.Logger
	metrics    metrics.Collector
	validate   bool
}

func defaultOptions() options {
	return options{
		windowSize: DefaultWindowSize,
		logger:     logging.NewNop(),
		metrics:    metrics.NewNop(),
	}
}

// WithWindowSize sets the cache window and the frontier pruning bound.
//
// Example:
//
//	r, err := refine.New(src, refine.WithWindowSize(5000))
func WithWindowSize(n int) Option {
	return func(o *options) { o.windowSize = n }
}

// WithLogger sets a logger. A nil logger is ignored.
func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets a metrics collector. A nil collector is ignored.
func WithMetrics(m metrics.Collector) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithValidation checks every emitted record's coordinate invariants and
// stops the run on the first violation.
func WithValidation(on bool) Option {
	return func(o *options) { o.validate = on }
}
