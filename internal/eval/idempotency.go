package eval

import (
	"github.com/hostflow-stack/hostflow/internal/batch"
	"github.com/hostflow-stack/hostflow/internal/errors"
	"github.com/hostflow-stack/hostflow/internal/workflow"
)

// IdempotencyScorer measures whether retries would behave
// consistently. A failure that fails identically on every attempt is
// idempotent even though it is not successful.
type IdempotencyScorer struct{}

func (IdempotencyScorer) Name() string { return "idempotency" }

// Evaluate scores: success 1.0; navigation and assertion failures 1.0
// as deterministic; failures flagged as non-deterministic 0.0;
// timing-dependent failures 0.5; anything unclassified 0.5.
func (IdempotencyScorer) Evaluate(result *batch.Result, _ workflow.Tolerance) float64 {
	if result == nil {
		return 0.0
	}
	if result.Succeeded {
		return 1.0
	}

	switch {
	case errors.IsNavigationFailure(result.Err), errors.IsAssertionFailure(result.Err):
		return 1.0
	case isNondeterministic(result.Err):
		return 0.0
	case isTimingDependent(result.Err):
		return 0.5
	}
	return 0.5
}
