package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hostflow-stack/hostflow/internal/errors"
	"github.com/hostflow-stack/hostflow/internal/terminal"
	"github.com/hostflow-stack/hostflow/internal/workflow"
)

// Screen dumps attached to failures are bounded so a full buffer never
// floods logs or result records.
const (
	maxDumpLines = 80
	maxDumpChars = 10000

	// submitLockGrace is how long after a submit we wait for the host to
	// begin its lock cycle before treating the submit as instant.
	submitLockGrace = 200 * time.Millisecond
)

const (
	statusOK     = "ok"
	statusFailed = "failed"
)

// Options carries the timing bounds for a Runner, usually sourced from
// config.TerminalConfig.
type Options struct {
	// LoginUnlockTimeout bounds the keyboard-unlock wait after connect.
	LoginUnlockTimeout time.Duration

	// LockCycleTimeout bounds lock waits after navigation and submits.
	LockCycleTimeout time.Duration

	// FieldFillTimeout bounds the unlock wait between field keystrokes.
	FieldFillTimeout time.Duration
}

// DefaultOptions returns the stock timing bounds.
func DefaultOptions() Options {
	return Options{
		LoginUnlockTimeout: 30 * time.Second,
		LockCycleTimeout:   5 * time.Second,
		FieldFillTimeout:   500 * time.Millisecond,
	}
}

// Runner executes one workflow schema against one terminal session.
// Execution is fail-fast: the first step error stops the run and
// propagates to the caller unwrapped.
type Runner struct {
	session   terminal.Session
	gate      *terminal.KeyboardGate
	artifacts *ArtifactCollector
	log       *slog.Logger
	opts      Options

	connected bool
}

// New builds a Runner for one session. The artifact collector may be
// nil, in which case no artifacts or ledger entries are written.
func New(session terminal.Session, gate *terminal.KeyboardGate, artifacts *ArtifactCollector, log *slog.Logger, opts Options) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		session:   session,
		gate:      gate,
		artifacts: artifacts,
		log:       log,
		opts:      opts,
	}
}

// Run executes every step of the schema in order against the given
// data row, stopping at the first failure. Steps are converted to
// typed actions before any session I/O so structural errors surface
// without touching the host.
func (r *Runner) Run(ctx context.Context, schema *workflow.Schema, row workflow.Row) error {
	if schema == nil {
		return errors.InvalidArgument("schema", "cannot be nil")
	}

	for i, step := range schema.Steps {
		action, err := workflow.ActionFromStep(step)
		if err != nil {
			return err
		}

		r.log.Debug("executing step",
			"workflow", schema.Name,
			"step", i,
			"action", string(action.Kind()))

		if err := r.dispatch(ctx, action, row); err != nil {
			r.ledger(string(action.Kind()), statusFailed)
			r.log.Error("step failed",
				"workflow", schema.Name,
				"step", i,
				"action", string(action.Kind()),
				"error", err)
			if fe, ok := err.(*errors.FlowError); ok {
				fe.WithDetail("step_index", i)
			}
			return err
		}

		r.ledger(string(action.Kind()), statusOK)
	}
	return nil
}

// dispatch executes a single typed action. The switch is exhaustive
// over the sealed action set.
func (r *Runner) dispatch(ctx context.Context, action workflow.Action, row workflow.Row) error {
	switch a := action.(type) {
	case workflow.Login:
		return r.runLogin(ctx, a, row)
	case workflow.Navigate:
		return r.runNavigate(ctx, a, row)
	case workflow.Fill:
		return r.runFill(ctx, a, row)
	case workflow.Submit:
		return r.runSubmit(ctx, a)
	case workflow.Assert:
		return r.runAssert(a, row)
	case workflow.Wait:
		return r.runWait(ctx, a)
	case workflow.Capture:
		return r.runCapture(a, row)
	}
	return errors.UnknownAction(string(action.Kind()))
}

func (r *Runner) runLogin(ctx context.Context, a workflow.Login, row workflow.Row) error {
	if !r.connected {
		if err := r.session.Connect(); err != nil {
			return errors.Wrapf(errors.CodeSessionConnect, err,
				"connecting to %s", workflow.SubstituteParams(a.Host, row))
		}
		r.connected = true
	}

	// The host locks the keyboard while it processes the sign-on; it is
	// ready for input once the gate opens.
	return r.gate.Acquire(ctx, r.opts.LoginUnlockTimeout)
}

func (r *Runner) runNavigate(ctx context.Context, a workflow.Navigate, row workflow.Row) error {
	keys := strings.TrimSpace(workflow.SubstituteParams(a.Keys, row))
	if keys == "" {
		return errors.InvalidArgument("keys", "NAVIGATE requires keys to send")
	}
	target := workflow.SubstituteParams(a.Screen, row)

	if err := r.session.SendKeys(keys); err != nil {
		return errors.Wrapf(errors.CodeSessionSend, err, "sending navigation keys %q", keys)
	}
	if err := r.gate.Acquire(ctx, r.opts.LockCycleTimeout); err != nil {
		return err
	}

	screen, err := r.session.ScreenText()
	if err != nil {
		return errors.Wrap(errors.CodeSessionRead, "reading screen after navigation", err)
	}
	if !strings.Contains(screen, target) {
		return errors.NavigationFailed(target, boundDump(screen))
	}
	return nil
}

func (r *Runner) runFill(ctx context.Context, a workflow.Fill, row workflow.Row) error {
	if err := r.session.SendKeys(terminal.KeyHome); err != nil {
		return errors.Wrap(errors.CodeSessionSend, "homing cursor", err)
	}
	if err := r.gate.Acquire(ctx, r.opts.FieldFillTimeout); err != nil {
		return err
	}

	for _, field := range a.Fields {
		value := strings.TrimSpace(workflow.SubstituteParams(field.Value, row))

		if err := r.session.SendKeys(value); err != nil {
			return errors.Wrapf(errors.CodeSessionSend, err, "filling field %s", field.Name)
		}
		if err := r.session.SendKeys(terminal.KeyTab); err != nil {
			return errors.Wrapf(errors.CodeSessionSend, err, "advancing past field %s", field.Name)
		}
		if err := r.gate.Acquire(ctx, r.opts.FieldFillTimeout); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runSubmit(ctx context.Context, a workflow.Submit) error {
	mnemonic := terminal.MapKey(a.Key)
	if err := r.session.SendKeys(mnemonic); err != nil {
		return errors.Wrapf(errors.CodeSessionSend, err, "sending %s", mnemonic)
	}
	return r.gate.AwaitLockCycle(ctx, submitLockGrace, r.opts.LockCycleTimeout)
}

func (r *Runner) runAssert(a workflow.Assert, row workflow.Row) error {
	screen, err := r.session.ScreenText()
	if err != nil {
		return errors.Wrap(errors.CodeSessionRead, "reading screen for assertion", err)
	}

	for _, expected := range []string{a.Text, a.Screen} {
		if expected == "" {
			continue
		}
		want := workflow.SubstituteParams(expected, row)
		if !strings.Contains(screen, want) {
			return errors.AssertionFailed(
				fmt.Sprintf("Assertion failed: %q not found on screen", want),
				boundDump(screen))
		}
	}
	return nil
}

func (r *Runner) runWait(ctx context.Context, a workflow.Wait) error {
	timer := time.NewTimer(a.Timeout)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) runCapture(a workflow.Capture, row workflow.Row) error {
	if r.artifacts == nil {
		return nil
	}

	name := strings.TrimSpace(workflow.SubstituteParams(a.Name, row))
	if name == "" {
		name = "screen"
	}

	text, err := r.session.ScreenText()
	if err != nil {
		return errors.Wrap(errors.CodeSessionRead, "reading screen for capture", err)
	}

	if imager, ok := r.session.(terminal.ScreenImager); ok {
		img, err := imager.RenderScreen()
		if err != nil {
			return errors.Wrap(errors.CodeSessionRead, "rendering screen for capture", err)
		}
		path, err := r.artifacts.CaptureScreen(img, name)
		if err != nil {
			return err
		}
		r.log.Info("captured screen", "artifact", path)
	}

	// Text goes alongside the PNG, and stands alone when the session has
	// no graphics support.
	path, err := r.artifacts.CaptureText(text, name)
	if err != nil {
		return err
	}
	r.log.Info("captured screen text", "artifact", path)
	return nil
}

// ledger records a step outcome, tolerating a missing collector. Ledger
// write failures are logged rather than failing the run.
func (r *Runner) ledger(action, status string) {
	if r.artifacts == nil {
		return
	}
	if err := r.artifacts.AppendLedger(action, status); err != nil {
		r.log.Warn("ledger append failed", "action", action, "error", err)
	}
}

// boundDump truncates a screen dump to at most maxDumpLines lines and
// maxDumpChars characters, keeping the head and marking the cut.
func boundDump(screen string) string {
	truncated := false

	lines := strings.Split(screen, "\n")
	if len(lines) > maxDumpLines {
		lines = lines[:maxDumpLines]
		truncated = true
	}
	dump := strings.Join(lines, "\n")

	if len(dump) > maxDumpChars {
		dump = dump[:maxDumpChars]
		truncated = true
	}
	if truncated {
		dump += "\n... [truncated]"
	}
	return dump
}
