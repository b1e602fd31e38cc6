package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hostflow-stack/hostflow/internal/errors"
	"github.com/hostflow-stack/hostflow/internal/runner"
	"github.com/hostflow-stack/hostflow/internal/terminal"
	"github.com/hostflow-stack/hostflow/internal/testutil"
	"github.com/hostflow-stack/hostflow/internal/workflow"
)

func testSchema() *workflow.Schema {
	return &workflow.Schema{
		Name: "transfer",
		Steps: []workflow.StepDef{
			{Action: "LOGIN", Host: "${data.host}", User: "QUSER", Password: "secret"},
			{Action: "ASSERT", Text: "READY"},
		},
	}
}

func testDataset(t *testing.T, csv string) *workflow.Dataset {
	t.Helper()
	ds, err := workflow.ParseCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	return ds
}

func testOptions() ExecutorOptions {
	return ExecutorOptions{
		Deadline: 10 * time.Second,
		Runner: runner.Options{
			LoginUnlockTimeout: 200 * time.Millisecond,
			LockCycleTimeout:   200 * time.Millisecond,
			FieldFillTimeout:   100 * time.Millisecond,
		},
		Logger: testutil.DiscardLogger(),
	}
}

// screenByHost scripts each session's screen from the host it was
// created for, so CSV rows can steer individual outcomes.
func screenByHost(s *testutil.MockSession, host, user, password string) {
	if host == "bad" {
		s.SetScreen("SYSTEM UNAVAILABLE")
	} else {
		s.SetScreen("READY")
	}
}

func TestExecutor_AllSucceed(t *testing.T) {
	factory := testutil.NewMockFactory()
	factory.Configure = screenByHost

	ds := testDataset(t, "key,host\nr1,good\nr2,good\nr3,good\n")
	e := NewExecutor(testSchema(), factory.New, testOptions())

	results, runID, err := e.Run(context.Background(), ds)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if runID == "" {
		t.Error("run ID should not be empty")
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for _, r := range results {
		if !r.Succeeded {
			t.Errorf("%s failed: %v", r.RowKey, r.Err)
		}
	}

	// Every row got its own session.
	if n := len(factory.Sessions()); n != 3 {
		t.Errorf("factory produced %d sessions, want 3", n)
	}
	for _, s := range factory.Sessions() {
		if s.Connected() {
			t.Error("sessions should be disconnected after the batch")
		}
	}
}

func TestExecutor_FailureIsolation(t *testing.T) {
	factory := testutil.NewMockFactory()
	factory.Configure = screenByHost

	var b strings.Builder
	b.WriteString("key,host\n")
	for i := 0; i < 40; i++ {
		host := "good"
		if i%2 == 1 {
			host = "bad"
		}
		fmt.Fprintf(&b, "r%d,%s\n", i, host)
	}

	ds := testDataset(t, b.String())
	opts := testOptions()
	opts.Concurrency = 4
	e := NewExecutor(testSchema(), factory.New, opts)

	results, _, err := e.Run(context.Background(), ds)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != 40 {
		t.Fatalf("got %d results, want 40", len(results))
	}

	success, failure := 0, 0
	keys := make(map[string]bool)
	for _, r := range results {
		if keys[r.RowKey] {
			t.Errorf("duplicate result for %s", r.RowKey)
		}
		keys[r.RowKey] = true
		if r.Succeeded {
			success++
		} else {
			failure++
			if !errors.IsAssertionFailure(r.Err) {
				t.Errorf("%s: expected AssertionFailure, got %v", r.RowKey, r.Err)
			}
		}
	}
	if success != 20 || failure != 20 {
		t.Errorf("partition = %d/%d, want 20/20", success, failure)
	}
}

func TestExecutor_DeadlineSweepsUnfinishedRows(t *testing.T) {
	factory := testutil.NewMockFactory()

	schema := &workflow.Schema{
		Name: "slow",
		Steps: []workflow.StepDef{
			{Action: "WAIT", Timeout: 10000},
		},
	}
	ds := testDataset(t, "key,host\nr1,h\nr2,h\nr3,h\n")

	opts := testOptions()
	opts.Deadline = 150 * time.Millisecond
	e := NewExecutor(schema, factory.New, opts)

	start := time.Now()
	results, _, err := e.Run(context.Background(), ds)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("batch blocked %v past its deadline", elapsed)
	}

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3 (no silent drops)", len(results))
	}
	for _, r := range results {
		if r.Succeeded {
			t.Errorf("%s should not have succeeded", r.RowKey)
		}
		if !errors.IsTimeout(r.Err) {
			t.Errorf("%s: expected Timeout, got %v", r.RowKey, r.Err)
		}
	}
}

func TestExecutor_FactoryFailureIsolated(t *testing.T) {
	brokenFactory := func(host, user, password string) (terminal.Session, *terminal.KeyboardGate, error) {
		if host == "bad" {
			return nil, nil, fmt.Errorf("connection refused")
		}
		s := testutil.NewMockSession()
		s.SetScreen("READY")
		return s, s.Gate(), nil
	}

	ds := testDataset(t, "key,host\nr1,good\nr2,bad\nr3,good\n")
	e := NewExecutor(testSchema(), brokenFactory, testOptions())

	results, _, err := e.Run(context.Background(), ds)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	for _, r := range results {
		switch r.RowKey {
		case "r2":
			if r.Succeeded {
				t.Error("r2 should have failed")
			}
			if errors.Kind(r.Err) != "SessionError" {
				t.Errorf("r2 kind = %q", errors.Kind(r.Err))
			}
		default:
			if !r.Succeeded {
				t.Errorf("%s failed: %v", r.RowKey, r.Err)
			}
		}
	}
}

func TestExecutor_PanicIsolated(t *testing.T) {
	// A nil session makes the runner dereference nil, which must be
	// captured into that row's result rather than crashing the batch.
	panicFactory := func(host, user, password string) (terminal.Session, *terminal.KeyboardGate, error) {
		if host == "bad" {
			return nil, terminal.NewKeyboardGate(false), nil
		}
		s := testutil.NewMockSession()
		s.SetScreen("READY")
		return s, s.Gate(), nil
	}

	ds := testDataset(t, "key,host\nr1,good\nr2,bad\n")
	e := NewExecutor(testSchema(), panicFactory, testOptions())

	results, _, err := e.Run(context.Background(), ds)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	for _, r := range results {
		if r.RowKey == "r2" {
			if r.Succeeded || r.Err == nil {
				t.Errorf("r2 = %+v, want captured panic failure", r)
			}
		} else if !r.Succeeded {
			t.Errorf("%s failed: %v", r.RowKey, r.Err)
		}
	}
}

func TestExecutor_WritesArtifacts(t *testing.T) {
	factory := testutil.NewMockFactory()
	factory.Configure = screenByHost

	root := t.TempDir()
	opts := testOptions()
	opts.ArtifactsRoot = root

	ds := testDataset(t, "key,host\nr1,good\n")
	e := NewExecutor(testSchema(), factory.New, opts)

	results, runID, err := e.Run(context.Background(), ds)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != 1 || !results[0].Succeeded {
		t.Fatalf("results = %+v", results)
	}

	wantDir := filepath.Join(root, runID, "transfer_r1")
	if results[0].ArtifactPath != wantDir {
		t.Errorf("ArtifactPath = %q, want %q", results[0].ArtifactPath, wantDir)
	}

	ledger := filepath.Join(wantDir, "execution-ledger.jsonl")
	data, err := os.ReadFile(ledger)
	if err != nil {
		t.Fatalf("reading ledger: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Errorf("ledger has %d lines, want 2 (LOGIN, ASSERT)", len(lines))
	}
}

func TestExecutor_EmptyDataset(t *testing.T) {
	e := NewExecutor(testSchema(), testutil.NewMockFactory().New, testOptions())

	_, _, err := e.Run(context.Background(), &workflow.Dataset{})
	if !errors.IsInvalidArgument(err) {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}
