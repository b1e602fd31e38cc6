package workflow

import (
	"fmt"
	"strconv"
)

// Per-step duration estimates used for timeout prediction. Login carries
// the connection handshake on top of the usual screen round-trip.
const (
	estimateLoginMs = 2000
	estimateStepMs  = 500
)

// maxFieldLength is the host field-length limit assumed by the simulator.
const maxFieldLength = 255

// Predicted outcomes.
const (
	OutcomeSuccess         = "success"
	OutcomeTimeout         = "timeout"
	OutcomeValidationError = "validation_error"
)

// SimulatedStep records one step's predicted behavior.
type SimulatedStep struct {
	Index      int
	Action     ActionKind
	Prediction string // success | timeout
	Warning    string // Empty when none
}

// Simulation is the outcome of a dry run: what would happen, step by
// step, without touching a real session.
type Simulation struct {
	PredictedOutcome string
	Steps            []SimulatedStep
	Warnings         []string
	PredictedFields  map[string]string
}

// PredictSuccess reports whether the simulation expects the workflow to
// complete within tolerance.
func (s *Simulation) PredictSuccess() bool {
	return s.PredictedOutcome == OutcomeSuccess
}

// HasWarnings reports whether anything needs operator attention.
func (s *Simulation) HasWarnings() bool {
	return len(s.Warnings) > 0
}

// Simulate predicts a workflow's outcome against one data row without any
// session I/O, so a human can approve or reject before real execution.
//
// Structural validation runs first: a workflow that fails it is reported
// as validation_error with the validator messages as warnings and no
// further analysis. Otherwise per-step duration estimates are summed
// against the tolerance, and FILL values are checked (after parameter
// substitution) for host field-length and decimal-precision problems.
func Simulate(schema *Schema, row Row, tolerance Tolerance) *Simulation {
	sim := &Simulation{
		PredictedOutcome: OutcomeSuccess,
		PredictedFields:  make(map[string]string),
	}

	if schema == nil || len(schema.Steps) == 0 {
		sim.PredictedOutcome = OutcomeValidationError
		sim.Warnings = append(sim.Warnings, "workflow is empty or invalid")
		return sim
	}

	if result := ValidateWorkflow(schema); !result.IsValid() {
		sim.PredictedOutcome = OutcomeValidationError
		sim.Warnings = append(sim.Warnings, result.Messages()...)
		return sim
	}

	var cumulativeMs int64
	for i, step := range schema.Steps {
		kind, _ := step.Kind()
		simStep := SimulatedStep{Index: i, Action: kind, Prediction: "success"}

		if kind == KindLogin {
			cumulativeMs += estimateLoginMs
		} else {
			cumulativeMs += estimateStepMs
		}

		if cumulativeMs > tolerance.MaxDurationMs {
			simStep.Prediction = OutcomeTimeout
			simStep.Warning = fmt.Sprintf(
				"step %d would exceed timeout (cumulative: %dms > %dms)",
				i, cumulativeMs, tolerance.MaxDurationMs)
			sim.PredictedOutcome = OutcomeTimeout
			sim.Warnings = append(sim.Warnings, simStep.Warning)
			sim.Steps = append(sim.Steps, simStep)
			break
		}

		if kind == KindFill {
			for _, field := range step.Fields {
				resolved := SubstituteParams(field.Value, row)

				if len(resolved) > maxFieldLength {
					sim.Warnings = append(sim.Warnings, fmt.Sprintf(
						"step %d FILL: field %q value too long (%d chars, max %d)",
						i, field.Name, len(resolved), maxFieldLength))
				}

				if value, err := strconv.ParseFloat(resolved, 64); err == nil {
					if !tolerance.WithinPrecision(value) {
						sim.Warnings = append(sim.Warnings, fmt.Sprintf(
							"step %d FILL: field %q loses precision (allowed precision: %g)",
							i, field.Name, tolerance.FieldPrecision))
					}
				}
			}
		}

		sim.Steps = append(sim.Steps, simStep)
	}

	// Echo the substituted row for operator review; null cells are omitted.
	for key, value := range row {
		if value != nil {
			sim.PredictedFields[key] = *value
		}
	}

	return sim
}
