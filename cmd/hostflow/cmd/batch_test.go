package cmd

import (
	"strings"
	"testing"

	"github.com/hostflow-stack/hostflow/internal/terminal"
	"github.com/hostflow-stack/hostflow/internal/testutil"
)

// scriptedFactory swaps in a mock session factory for the duration of
// a test.
func scriptedFactory(t *testing.T, screen string) *testutil.MockFactory {
	t.Helper()

	factory := testutil.NewMockFactory()
	factory.Configure = func(s *testutil.MockSession, host, user, password string) {
		s.SetScreen(screen)
	}

	orig := SessionFactory
	SessionFactory = factory.New
	t.Cleanup(func() { SessionFactory = orig })
	return factory
}

const quickCheckYAML = `name: quickcheck
steps:
  - action: LOGIN
    host: as400.local
    user: QUSER
    password: secret
  - action: ASSERT
    text: READY
`

func TestBatchCmd_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	wf := writeFixture(t, dir, "quickcheck.yaml", quickCheckYAML)
	data := writeFixture(t, dir, "rows.csv", "key\nr1\nr2\nr3\n")

	scriptedFactory(t, "READY")

	batchDataPath = data
	workDir = dir
	defer func() {
		batchDataPath = ""
		workDir = ""
	}()

	out, err := captureStdout(t, func() error {
		return runBatchCmd(batchCmd, []string{wf})
	})
	if err != nil {
		t.Fatalf("batch failed: %v\n%s", err, out)
	}

	for _, want := range []string{
		"✓ r1", "✓ r2", "✓ r3",
		"3 workflows",
		"success: 3 (100.0%)",
		"correctness:",
		"idempotency:",
		"latency:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBatchCmd_FailuresExitNonZero(t *testing.T) {
	dir := t.TempDir()
	wf := writeFixture(t, dir, "quickcheck.yaml", quickCheckYAML)
	data := writeFixture(t, dir, "rows.csv", "key\nr1\nr2\n")

	scriptedFactory(t, "SYSTEM UNAVAILABLE")

	batchDataPath = data
	workDir = dir
	defer func() {
		batchDataPath = ""
		workDir = ""
	}()

	out, err := captureStdout(t, func() error {
		return runBatchCmd(batchCmd, []string{wf})
	})
	if err == nil {
		t.Fatalf("expected failure exit, output:\n%s", out)
	}
	if !strings.Contains(err.Error(), "2 of 2 workflows failed") {
		t.Errorf("err = %v", err)
	}
	if !strings.Contains(out, "✗ r1") {
		t.Errorf("output should summarize failures:\n%s", out)
	}
}

func TestRunCmd_SingleRow(t *testing.T) {
	dir := t.TempDir()
	wf := writeFixture(t, dir, "quickcheck.yaml", quickCheckYAML)
	data := writeFixture(t, dir, "rows.csv", "key\nr1\n")

	scriptedFactory(t, "READY")

	runDataPath = data
	runRowKey = "r1"
	workDir = dir
	defer func() {
		runDataPath = ""
		runRowKey = ""
		workDir = ""
	}()

	out, err := captureStdout(t, func() error {
		return runRunCmd(runCmd, []string{wf})
	})
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}
	if !strings.HasPrefix(out, "✓ r1") {
		t.Errorf("output = %q", out)
	}
}

func TestRunCmd_NoDriverLinked(t *testing.T) {
	dir := t.TempDir()
	wf := writeFixture(t, dir, "quickcheck.yaml", quickCheckYAML)
	data := writeFixture(t, dir, "rows.csv", "key\nr1\n")

	runDataPath = data
	runRowKey = "r1"
	workDir = dir
	defer func() {
		runDataPath = ""
		runRowKey = ""
		workDir = ""
	}()

	_, err := captureStdout(t, func() error {
		return runRunCmd(runCmd, []string{wf})
	})
	if err == nil || !strings.Contains(err.Error(), "no terminal session driver") {
		t.Fatalf("expected driver error, got %v", err)
	}
}

// Guard against accidental signature drift between the mock factory
// and the terminal.Factory contract.
var _ terminal.Factory = testutil.NewMockFactory().New
