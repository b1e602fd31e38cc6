package workflow

import (
	"math"

	"github.com/hostflow-stack/hostflow/internal/errors"
)

// Tolerance specifies acceptable bounds for workflow execution: how long
// a run may take, how much decimal precision fields may carry, how many
// retries the caller may budget, and whether a human must approve the
// simulation before real execution.
type Tolerance struct {
	WorkflowName     string  `yaml:"workflow_name,omitempty"`
	MaxDurationMs    int64   `yaml:"max_duration_ms"`
	FieldPrecision   float64 `yaml:"field_precision"`
	MaxRetries       int     `yaml:"max_retries"`
	RequiresApproval bool    `yaml:"requires_approval"`
}

// NewTolerance constructs a validated Tolerance.
func NewTolerance(workflowName string, maxDurationMs int64, fieldPrecision float64, maxRetries int, requiresApproval bool) (Tolerance, error) {
	t := Tolerance{
		WorkflowName:     workflowName,
		MaxDurationMs:    maxDurationMs,
		FieldPrecision:   fieldPrecision,
		MaxRetries:       maxRetries,
		RequiresApproval: requiresApproval,
	}
	if err := t.Validate(); err != nil {
		return Tolerance{}, err
	}
	return t, nil
}

// DefaultTolerance returns a tolerance with sensible defaults: 5 minutes
// per workflow, monetary precision, a budget of 3 retries, no approval.
func DefaultTolerance(workflowName string) Tolerance {
	return Tolerance{
		WorkflowName:     workflowName,
		MaxDurationMs:    300000,
		FieldPrecision:   0.01,
		MaxRetries:       3,
		RequiresApproval: false,
	}
}

// Validate rejects out-of-range values with an InvalidArgument error.
func (t Tolerance) Validate() error {
	if t.WorkflowName == "" {
		return errors.InvalidArgument("workflow_name", "cannot be blank")
	}
	if t.MaxDurationMs <= 0 {
		return errors.InvalidArgument("max_duration_ms", "must be > 0")
	}
	if t.FieldPrecision <= 0 {
		return errors.InvalidArgument("field_precision", "must be > 0")
	}
	if t.MaxRetries < 0 {
		return errors.InvalidArgument("max_retries", "cannot be negative")
	}
	return nil
}

// ExceededDuration reports whether an actual duration violates the bound.
func (t Tolerance) ExceededDuration(actualMs int64) bool {
	return actualMs > t.MaxDurationMs
}

// WithinPrecision reports whether a numeric field value carries no more
// decimal precision than the tolerance allows. For example 123.456 with
// precision 0.01 is out of tolerance (three decimals where two are allowed).
func (t Tolerance) WithinPrecision(value float64) bool {
	rounded := math.Round(value/t.FieldPrecision) * t.FieldPrecision
	return math.Abs(value-rounded) < 1e-9
}

// WithinRetryBudget reports whether a retry count fits the budget.
func (t Tolerance) WithinRetryBudget(retries int) bool {
	return retries <= t.MaxRetries
}
