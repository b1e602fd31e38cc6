package workflow

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Schema is one workflow definition: a name, an ordered step list, and an
// optional execution tolerance. Loaded once per run, immutable thereafter.
type Schema struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Steps       []StepDef  `yaml:"steps"`
	Tolerance   *Tolerance `yaml:"tolerance,omitempty"`
}

// EffectiveTolerance returns the schema's declared tolerance, or defaults
// keyed by the workflow name when none is declared.
func (s *Schema) EffectiveTolerance() Tolerance {
	if s.Tolerance != nil {
		t := *s.Tolerance
		if t.WorkflowName == "" {
			t.WorkflowName = s.Name
		}
		return t
	}
	return DefaultTolerance(s.Name)
}

// LoadSchema loads a workflow schema from a YAML file.
func LoadSchema(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workflow file: %w", err)
	}
	defer f.Close()

	schema, err := ParseSchema(f)
	if err != nil {
		return nil, fmt.Errorf("parse workflow %s: %w", path, err)
	}
	return schema, nil
}

// ParseSchema parses a workflow schema from YAML content.
func ParseSchema(r io.Reader) (*Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read workflow: %w", err)
	}

	var schema Schema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("decode YAML: %w", err)
	}

	if schema.Name == "" && len(schema.Steps) == 0 {
		return nil, fmt.Errorf("workflow file is empty or invalid")
	}

	// Reject unknown action kinds at load time; everything else is the
	// validators' job so callers get a full report, not the first error.
	for i, step := range schema.Steps {
		if _, ok := step.Kind(); !ok {
			return nil, fmt.Errorf("step[%d]: unknown action %q", i, step.Action)
		}
	}

	if schema.Tolerance != nil {
		if schema.Tolerance.WorkflowName == "" {
			schema.Tolerance.WorkflowName = schema.Name
		}
		if err := schema.Tolerance.Validate(); err != nil {
			return nil, fmt.Errorf("tolerance: %w", err)
		}
	}

	return &schema, nil
}
