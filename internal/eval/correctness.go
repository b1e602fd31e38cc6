package eval

import (
	"github.com/hostflow-stack/hostflow/internal/batch"
	"github.com/hostflow-stack/hostflow/internal/errors"
	"github.com/hostflow-stack/hostflow/internal/workflow"
)

// CorrectnessScorer measures whether the workflow produced the right
// outcome, and how recoverable a wrong one is.
type CorrectnessScorer struct{}

func (CorrectnessScorer) Name() string { return "correctness" }

// Evaluate scores: success 1.0; assertion failure 0.5 since a retry
// might still pass; truncation or data loss 0.0 as unrecoverable;
// connection and timeout failures 0.0; anything unclassified 0.3.
func (CorrectnessScorer) Evaluate(result *batch.Result, _ workflow.Tolerance) float64 {
	if result == nil {
		return 0.0
	}
	if result.Succeeded {
		return 1.0
	}

	switch {
	case errors.IsAssertionFailure(result.Err):
		return 0.5
	case isTruncation(result.Err):
		return 0.0
	case errors.IsTimeout(result.Err), errors.IsNavigationFailure(result.Err):
		return 0.0
	case errors.IsSessionError(result.Err):
		return 0.0
	}
	return 0.3
}
