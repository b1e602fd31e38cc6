// Package workflow defines the workflow schema, the typed action model,
// validation, parameter substitution, and the dry-run simulator.
package workflow

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ActionKind identifies one of the seven step kinds.
type ActionKind string

const (
	KindLogin    ActionKind = "LOGIN"
	KindNavigate ActionKind = "NAVIGATE"
	KindFill     ActionKind = "FILL"
	KindSubmit   ActionKind = "SUBMIT"
	KindAssert   ActionKind = "ASSERT"
	KindWait     ActionKind = "WAIT"
	KindCapture  ActionKind = "CAPTURE"
)

// Valid returns true if this is a recognized action kind.
func (k ActionKind) Valid() bool {
	switch k {
	case KindLogin, KindNavigate, KindFill, KindSubmit, KindAssert, KindWait, KindCapture:
		return true
	}
	return false
}

// ParseActionKind parses an action kind, case-insensitively.
func ParseActionKind(s string) (ActionKind, bool) {
	k := ActionKind(strings.ToUpper(strings.TrimSpace(s)))
	return k, k.Valid()
}

// Field is one name/value pair of a FILL step.
type Field struct {
	Name  string
	Value string
}

// Fields preserves the declaration order of a FILL step's field map.
// Host screens are tab-ordered, so the order fields are typed matters.
type Fields []Field

// UnmarshalYAML decodes a YAML mapping while preserving key order.
func (f *Fields) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("fields must be a mapping, got %v", node.Kind)
	}
	out := make(Fields, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		out = append(out, Field{
			Name:  node.Content[i].Value,
			Value: node.Content[i+1].Value,
		})
	}
	*f = out
	return nil
}

// Get returns the value for a field name, for tests and tooling.
func (f Fields) Get(name string) (string, bool) {
	for _, fld := range f {
		if fld.Name == name {
			return fld.Value, true
		}
	}
	return "", false
}

// StepDef is the loosely-typed step descriptor as parsed from a workflow
// file. It carries optional fields for every action kind; ActionFromStep
// narrows it to a typed Action.
type StepDef struct {
	Action   string `yaml:"action"`
	Host     string `yaml:"host,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	Screen   string `yaml:"screen,omitempty"`
	Keys     string `yaml:"keys,omitempty"`
	Key      string `yaml:"key,omitempty"`
	Text     string `yaml:"text,omitempty"`
	Fields   Fields `yaml:"fields,omitempty"`
	Timeout  int    `yaml:"timeout,omitempty"` // Milliseconds; WAIT only
	Name     string `yaml:"name,omitempty"`    // CAPTURE artifact name
}

// Kind returns the parsed action kind and whether it is recognized.
func (s StepDef) Kind() (ActionKind, bool) {
	return ParseActionKind(s.Action)
}
