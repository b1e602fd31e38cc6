package workflow

import (
	"time"

	"github.com/hostflow-stack/hostflow/internal/errors"
)

// Action is the closed set of typed, validated step variants. The
// unexported marker keeps the set sealed so the runner's dispatch stays
// exhaustive by construction.
type Action interface {
	Kind() ActionKind
	isAction()
}

// Login connects to a host and waits for the keyboard to become ready.
type Login struct {
	Host     string
	User     string
	Password string
}

// Navigate sends movement keys and verifies the target screen is reached.
type Navigate struct {
	Screen string
	Keys   string
}

// Fill types values into screen fields in declaration order.
type Fill struct {
	Fields Fields
}

// Submit sends a function key and awaits the resulting lock cycle.
type Submit struct {
	Key string
}

// Assert verifies expected text and/or a screen marker is present.
// At least one of Text and Screen is set.
type Assert struct {
	Text   string
	Screen string
}

// Wait suspends execution for a fixed duration.
type Wait struct {
	Timeout time.Duration
}

// Capture renders the current screen to an artifact.
type Capture struct {
	Name string
}

func (Login) Kind() ActionKind    { return KindLogin }
func (Navigate) Kind() ActionKind { return KindNavigate }
func (Fill) Kind() ActionKind     { return KindFill }
func (Submit) Kind() ActionKind   { return KindSubmit }
func (Assert) Kind() ActionKind   { return KindAssert }
func (Wait) Kind() ActionKind     { return KindWait }
func (Capture) Kind() ActionKind  { return KindCapture }

func (Login) isAction()    {}
func (Navigate) isAction() {}
func (Fill) isAction()     {}
func (Submit) isAction()   {}
func (Assert) isAction()   {}
func (Wait) isAction()     {}
func (Capture) isAction()  {}

// ActionFromStep converts a StepDef into a typed Action, performing
// structural validation only: required-field presence, naming the first
// missing field. Semantic linting is the validators' job. A failure here
// is terminal for the step before any session I/O occurs.
func ActionFromStep(step StepDef) (Action, error) {
	kind, ok := step.Kind()
	if !ok {
		return nil, errors.UnknownAction(step.Action)
	}

	switch kind {
	case KindLogin:
		if step.Host == "" {
			return nil, errors.MissingField("LOGIN", "host")
		}
		if step.User == "" {
			return nil, errors.MissingField("LOGIN", "user")
		}
		if step.Password == "" {
			return nil, errors.MissingField("LOGIN", "password")
		}
		return Login{Host: step.Host, User: step.User, Password: step.Password}, nil

	case KindNavigate:
		// Keys may be legitimately empty for "already there" checks;
		// the runner rejects empty keys at send time.
		if step.Screen == "" {
			return nil, errors.MissingField("NAVIGATE", "screen")
		}
		return Navigate{Screen: step.Screen, Keys: step.Keys}, nil

	case KindFill:
		if len(step.Fields) == 0 {
			return nil, errors.MissingField("FILL", "fields")
		}
		return Fill{Fields: step.Fields}, nil

	case KindSubmit:
		if step.Key == "" {
			return nil, errors.MissingField("SUBMIT", "key")
		}
		return Submit{Key: step.Key}, nil

	case KindAssert:
		if step.Text == "" && step.Screen == "" {
			return nil, errors.MissingField("ASSERT", "text or screen")
		}
		return Assert{Text: step.Text, Screen: step.Screen}, nil

	case KindWait:
		if step.Timeout <= 0 {
			return nil, errors.InvalidArgument("timeout", "WAIT requires a positive timeout in milliseconds")
		}
		return Wait{Timeout: time.Duration(step.Timeout) * time.Millisecond}, nil

	case KindCapture:
		// A missing name is a validator warning, not a factory error.
		return Capture{Name: step.Name}, nil
	}

	return nil, errors.UnknownAction(step.Action)
}
