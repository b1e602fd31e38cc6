// Package eval scores completed workflow results against their
// tolerances along independent reliability dimensions.
package eval

import (
	"strings"

	"github.com/hostflow-stack/hostflow/internal/batch"
	"github.com/hostflow-stack/hostflow/internal/errors"
	"github.com/hostflow-stack/hostflow/internal/workflow"
)

// Scorer maps one workflow result and its tolerance to a score in
// [0.0, 1.0]. A nil result always scores 0.
type Scorer interface {
	Evaluate(result *batch.Result, tolerance workflow.Tolerance) float64
	Name() string
}

// DefaultScorers returns the standard scorer set.
func DefaultScorers() []Scorer {
	return []Scorer{
		CorrectnessScorer{},
		IdempotencyScorer{},
		LatencyScorer{},
	}
}

// errorText lowers the full error chain text for keyword matching.
func errorText(err error) string {
	if err == nil {
		return ""
	}
	return strings.ToLower(err.Error())
}

// isTruncation reports whether a failure indicates data truncation or
// loss, which no retry can recover.
func isTruncation(err error) bool {
	text := errorText(err)
	return strings.Contains(text, "truncat") || strings.Contains(text, "data loss")
}

// isNondeterministic reports whether a failure is explicitly flagged
// as varying between attempts, such as unstable cursor state.
func isNondeterministic(err error) bool {
	text := errorText(err)
	return strings.Contains(text, "cursor") ||
		strings.Contains(text, "position") ||
		strings.Contains(text, "non-deterministic") ||
		strings.Contains(text, "nondeterministic")
}

// isTimingDependent reports whether a failure's outcome could change
// with retry timing.
func isTimingDependent(err error) bool {
	if errors.IsTimeout(err) {
		return true
	}
	return strings.Contains(errorText(err), "lock")
}
