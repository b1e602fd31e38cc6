package cmd

import (
	"strings"
	"testing"
)

const validWorkflowYAML = `name: transfer
description: funds transfer
steps:
  - action: LOGIN
    host: as400.local
    user: QUSER
    password: secret
  - action: NAVIGATE
    screen: TRANSFER MENU
    keys: "[f4]"
  - action: FILL
    fields:
      AMOUNT: "${data.amount}"
  - action: SUBMIT
    key: enter
  - action: ASSERT
    text: TRANSFER COMPLETE
tolerance:
  max_duration_ms: 60000
  field_precision: 0.01
  max_retries: 2
`

const invalidWorkflowYAML = `name: broken
steps:
  - action: SUBMIT
    key: enter
  - action: WAIT
    timeout: 5
`

const transferCSV = `account_id,amount
row-1,50.00
row-2,75.25
`

func TestValidateCmd_Valid(t *testing.T) {
	dir := t.TempDir()
	wf := writeFixture(t, dir, "transfer.yaml", validWorkflowYAML)

	validateDataPath = ""
	out, err := captureStdout(t, func() error {
		return runValidateCmd(validateCmd, []string{wf})
	})
	if err != nil {
		t.Fatalf("validate failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "transfer: valid") {
		t.Errorf("output = %q", out)
	}
}

func TestValidateCmd_Invalid(t *testing.T) {
	dir := t.TempDir()
	wf := writeFixture(t, dir, "broken.yaml", invalidWorkflowYAML)

	validateDataPath = ""
	out, err := captureStdout(t, func() error {
		return runValidateCmd(validateCmd, []string{wf})
	})
	if err == nil {
		t.Fatalf("expected validation failure, output:\n%s", out)
	}
	if !strings.Contains(out, "error:") {
		t.Errorf("output should list errors, got %q", out)
	}
	// Step 0 must be LOGIN and the wait duration is out of bounds.
	if !strings.Contains(out, "LOGIN") {
		t.Errorf("output should flag missing LOGIN, got %q", out)
	}
}

func TestValidateCmd_ParameterWarnings(t *testing.T) {
	dir := t.TempDir()
	wf := writeFixture(t, dir, "transfer.yaml", validWorkflowYAML)
	// The dataset lacks the amount column the workflow references.
	data := writeFixture(t, dir, "rows.csv", "account_id,other\nrow-1,x\n")

	validateDataPath = data
	defer func() { validateDataPath = "" }()

	out, err := captureStdout(t, func() error {
		return runValidateCmd(validateCmd, []string{wf})
	})
	if err != nil {
		t.Fatalf("warnings must not invalidate: %v", err)
	}
	if !strings.Contains(out, "amount") {
		t.Errorf("output should warn about the missing amount column, got %q", out)
	}
}

func TestValidateCmd_MissingFile(t *testing.T) {
	validateDataPath = ""
	_, err := captureStdout(t, func() error {
		return runValidateCmd(validateCmd, []string{"/does/not/exist.yaml"})
	})
	if err == nil {
		t.Fatal("expected error for missing workflow file")
	}
}
