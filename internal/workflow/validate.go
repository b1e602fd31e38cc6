package workflow

import (
	"fmt"
	"strings"
)

// Wait timeouts outside this range are structurally valid but
// operationally unreasonable, so the step validator rejects them.
const (
	MinWaitMs = 100
	MaxWaitMs = 300000
)

// ValidationError is one blocking problem found in a workflow.
type ValidationError struct {
	StepIndex    int    // -1 for workflow-level problems
	Field        string
	Message      string
	SuggestedFix string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	where := "workflow"
	if e.StepIndex >= 0 {
		where = fmt.Sprintf("step[%d]", e.StepIndex)
	}
	msg := fmt.Sprintf("%s %s: %s", where, e.Field, e.Message)
	if e.SuggestedFix != "" {
		msg += " (fix: " + e.SuggestedFix + ")"
	}
	return msg
}

// ValidationWarning is one advisory problem found in a workflow.
type ValidationWarning struct {
	StepIndex int
	Field     string
	Message   string
}

// ValidationResult accumulates errors and warnings. Errors invalidate the
// workflow; warnings do not.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// IsValid returns true if no errors exist (warnings are allowed).
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// AddError records an error with an optional suggested fix.
func (r *ValidationResult) AddError(stepIndex int, field, message, suggestedFix string) {
	r.Errors = append(r.Errors, ValidationError{
		StepIndex:    stepIndex,
		Field:        field,
		Message:      message,
		SuggestedFix: suggestedFix,
	})
}

// AddWarning records a warning.
func (r *ValidationResult) AddWarning(stepIndex int, field, message string) {
	r.Warnings = append(r.Warnings, ValidationWarning{
		StepIndex: stepIndex,
		Field:     field,
		Message:   message,
	})
}

// Merge folds another result's errors and warnings into this one.
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Messages returns every error and warning message, errors first.
func (r *ValidationResult) Messages() []string {
	msgs := make([]string, 0, len(r.Errors)+len(r.Warnings))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	for _, w := range r.Warnings {
		where := "workflow"
		if w.StepIndex >= 0 {
			where = fmt.Sprintf("step[%d]", w.StepIndex)
		}
		msgs = append(msgs, fmt.Sprintf("%s %s: %s", where, w.Field, w.Message))
	}
	return msgs
}

// ValidateStep checks one step's required fields, reporting problems as
// errors/warnings instead of raising. It covers the same structural
// checks as ActionFromStep plus operational bounds on WAIT timeouts.
func ValidateStep(step StepDef, index int) *ValidationResult {
	result := &ValidationResult{}

	kind, ok := step.Kind()
	if !ok {
		result.AddError(index, "action",
			fmt.Sprintf("unknown action %q", step.Action),
			"use one of LOGIN, NAVIGATE, FILL, SUBMIT, ASSERT, WAIT, CAPTURE")
		return result
	}

	switch kind {
	case KindLogin:
		if step.Host == "" {
			result.AddError(index, "host", "LOGIN requires host", "add 'host:' to the step")
		}
		if step.User == "" {
			result.AddError(index, "user", "LOGIN requires user", "add 'user:' to the step")
		}
		if step.Password == "" {
			result.AddError(index, "password", "LOGIN requires password", "add 'password:' to the step")
		}

	case KindNavigate:
		if step.Screen == "" {
			result.AddError(index, "screen", "NAVIGATE requires screen", "add 'screen:' to the step")
		}
		if step.Keys == "" {
			result.AddWarning(index, "keys", "NAVIGATE without keys only verifies the current screen")
		}

	case KindFill:
		if len(step.Fields) == 0 {
			result.AddError(index, "fields", "FILL requires a non-empty fields map", "add 'fields:' entries")
		}

	case KindSubmit:
		if step.Key == "" {
			result.AddError(index, "key", "SUBMIT requires key", "add 'key:' (e.g. enter, f3)")
		}

	case KindAssert:
		if step.Text == "" && step.Screen == "" {
			result.AddError(index, "text", "ASSERT requires text or screen", "add 'text:' or 'screen:'")
		}

	case KindWait:
		switch {
		case step.Timeout <= 0:
			result.AddError(index, "timeout", "WAIT requires a positive timeout", "add 'timeout:' in milliseconds")
		case step.Timeout < MinWaitMs || step.Timeout > MaxWaitMs:
			result.AddError(index, "timeout",
				fmt.Sprintf("WAIT timeout %dms outside [%d, %d]ms", step.Timeout, MinWaitMs, MaxWaitMs),
				"choose a timeout between 100ms and 5 minutes")
		}

	case KindCapture:
		if step.Name == "" {
			result.AddWarning(index, "name", "CAPTURE without name falls back to a generic artifact name")
		}
	}

	return result
}

// ValidateStepOrder checks ordering constraints over the whole step list:
// the first step must be LOGIN, and a SUBMIT whose predecessor is neither
// FILL nor NAVIGATE is suspicious (warning, not error).
func ValidateStepOrder(steps []StepDef) *ValidationResult {
	result := &ValidationResult{}
	if len(steps) == 0 {
		return result
	}

	if kind, _ := steps[0].Kind(); kind != KindLogin {
		result.AddError(0, "action",
			fmt.Sprintf("workflow must start with LOGIN, found: %s", strings.ToUpper(steps[0].Action)),
			"move the LOGIN step to position 0")
	}

	for i := 1; i < len(steps); i++ {
		kind, _ := steps[i].Kind()
		if kind != KindSubmit {
			continue
		}
		prev, _ := steps[i-1].Kind()
		if prev != KindFill && prev != KindNavigate {
			result.AddWarning(i, "action", "SUBMIT should typically follow FILL or NAVIGATE")
		}
	}

	return result
}

// ValidateParameters scans every templated string field for ${data.key}
// placeholders and warns about keys absent from the dataset's columns.
// Missing keys are advisory only: the runner leaves unmatched
// placeholders verbatim.
func ValidateParameters(schema *Schema, columns []string) *ValidationResult {
	result := &ValidationResult{}
	if schema == nil {
		return result
	}

	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}

	for i, step := range schema.Steps {
		templated := []string{
			step.Host, step.User, step.Password,
			step.Screen, step.Key, step.Text, step.Name,
		}
		for _, f := range step.Fields {
			templated = append(templated, f.Value)
		}

		for _, tmpl := range templated {
			for _, ref := range ParamRefs(tmpl) {
				if !known[ref] {
					result.AddWarning(i, "parameter",
						fmt.Sprintf("parameter ${data.%s} not found in dataset", ref))
				}
			}
		}
	}

	return result
}

// ValidateWorkflow composes the structural checks: non-blank name,
// non-empty step list, per-step validation, and step ordering.
func ValidateWorkflow(schema *Schema) *ValidationResult {
	result := &ValidationResult{}

	if schema == nil {
		result.AddError(-1, "workflow", "workflow is nil", "provide a valid workflow")
		return result
	}

	if strings.TrimSpace(schema.Name) == "" {
		result.AddError(-1, "name", "workflow name is required", "add 'name:' to the workflow file")
	}

	if len(schema.Steps) == 0 {
		result.AddError(-1, "steps", "workflow must have at least one step", "add a 'steps:' list")
		return result
	}

	for i, step := range schema.Steps {
		result.Merge(ValidateStep(step, i))
	}
	result.Merge(ValidateStepOrder(schema.Steps))

	return result
}
