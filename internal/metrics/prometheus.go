package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements Collector backed by Prometheus.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	decisions  *prometheus.CounterVec
	extensions *prometheus.CounterVec
	shiftBases prometheus.Histogram
	gapsClosed prometheus.Counter
	gapBases   prometheus.Histogram
	emitted    prometheus.Counter
	evictions  prometheus.Counter
}

var _ Collector = (*PrometheusCollector)(nil)

// NewPrometheus creates a collector registering on reg (the default
// registerer if nil) under namespace ("layoutrefine" if empty). Metrics are
// registered on first use.
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "layoutrefine"
	}
	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.decisions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "refiner",
			Name:      "decisions_total",
			Help:      "Records classified against the active frontier, by kind (adjacent, overlap, gap).",
		}, []string{"kind"})
		p.extensions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "refiner",
			Name:      "extensions_total",
			Help:      "Consensus extension attempts by outcome.",
		}, []string{"outcome"})
		p.shiftBases = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "refiner",
			Name:      "extension_shift_bases",
			Help:      "Offsets applied by successful extensions.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		})
		p.gapsClosed = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "refiner",
			Name:      "gaps_closed_total",
			Help:      "Reference gaps closed on mate support.",
		})
		p.gapBases = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "refiner",
			Name:      "gap_closed_bases",
			Help:      "Lengths of closed gaps.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
		})
		p.emitted = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "refiner",
			Name:      "emitted_records_total",
			Help:      "Finalized records handed to the consumer.",
		})
		p.evictions = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "cache",
			Name:      "evicted_records_total",
			Help:      "Records evicted from the window cache before end of stream.",
		})
		p.reg.MustRegister(p.decisions, p.extensions, p.shiftBases, p.gapsClosed, p.gapBases, p.emitted, p.evictions)
	})
}

func (p *PrometheusCollector) RecordDecision(kind string) {
	p.ensureRegistered()
	p.decisions.WithLabelValues(kind).Inc()
}

func (p *PrometheusCollector) RecordExtension(outcome string, offset int64) {
	p.ensureRegistered()
	p.extensions.WithLabelValues(outcome).Inc()
	if outcome == ExtensionShifted {
		p.shiftBases.Observe(float64(offset))
	}
}

func (p *PrometheusCollector) RecordGapClosed(length int64) {
	p.ensureRegistered()
	p.gapsClosed.Inc()
	p.gapBases.Observe(float64(length))
}

func (p *PrometheusCollector) RecordEmitted(n int) {
	p.ensureRegistered()
	p.emitted.Add(float64(n))
}

func (p *PrometheusCollector) RecordEviction(n int) {
	p.ensureRegistered()
	p.evictions.Add(float64(n))
}
