package eval

import (
	"github.com/hostflow-stack/hostflow/internal/batch"
	"github.com/hostflow-stack/hostflow/internal/workflow"
)

// comfortRatio is the fraction of the duration budget under which a
// run counts as comfortably fast.
const comfortRatio = 0.8

// LatencyScorer measures how much of the tolerance's duration budget a
// run consumed.
type LatencyScorer struct{}

func (LatencyScorer) Name() string { return "latency" }

// Evaluate scores by ratio = latency / budget: at or under 0.8 scores
// 1.0, at or over 1.0 scores 0.0, and in between the ratio itself is
// the score. The step discontinuity just above 0.8 is the documented
// contract.
func (LatencyScorer) Evaluate(result *batch.Result, tolerance workflow.Tolerance) float64 {
	if result == nil {
		return 0.0
	}
	if result.LatencyMs < 0 || tolerance.MaxDurationMs <= 0 {
		return 0.0
	}

	ratio := float64(result.LatencyMs) / float64(tolerance.MaxDurationMs)
	switch {
	case ratio <= comfortRatio:
		return 1.0
	case ratio >= 1.0:
		return 0.0
	}
	return ratio
}
