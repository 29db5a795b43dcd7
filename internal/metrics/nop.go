// Package metrics records layout-refinement activity.
package metrics

// Decision kinds reported through RecordDecision.
const (
	DecisionAdjacent = "adjacent"
	DecisionOverlap  = "overlap"
	DecisionGap      = "gap"
)

// Extension outcomes reported through RecordExtension.
const (
	ExtensionShifted   = "shifted"
	ExtensionAmbiguous = "ambiguous"
	ExtensionEmpty     = "empty"
	ExtensionNoOverlap = "no_overlap"
)

// Collector receives refinement events. Implementations must be safe for
// concurrent use; the pipeline shares one collector across runs.
type Collector interface {
	RecordDecision(kind string)
	RecordExtension(outcome string, offset int64)
	RecordGapClosed(length int64)
	RecordEmitted(n int)
	RecordEviction(n int)
}

// NopMetrics discards all metrics.
type NopMetrics struct{}

var _ Collector = (*NopMetrics)(nil)

func NewNop() *NopMetrics { return &NopMetrics{} }

func (n *NopMetrics) RecordDecision(_ /* kind */ string) {}

func (n *NopMetrics) RecordExtension(_ /* outcome */ string, _ /* offset */ int64) {}

func (n *NopMetrics) RecordGapClosed(_ /* length */ int64) {}

func (n *NopMetrics) RecordEmitted(_ /* n */ int) {}

func (n *NopMetrics) RecordEviction(_ /* n */ int) {}
