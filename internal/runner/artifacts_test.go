package runner

import (
	"bufio"
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestArtifactCollector_CaptureText(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts", "run-1")
	c, err := NewArtifactCollector(dir)
	if err != nil {
		t.Fatalf("NewArtifactCollector: %v", err)
	}
	if c.Dir() != dir {
		t.Errorf("Dir = %q, want %q", c.Dir(), dir)
	}

	path, err := c.CaptureText("SIGN ON\nUSER . . .", "login-screen")
	if err != nil {
		t.Fatalf("CaptureText: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading capture: %v", err)
	}
	if string(data) != "SIGN ON\nUSER . . ." {
		t.Errorf("capture content = %q", data)
	}
	if !strings.HasPrefix(filepath.Base(path), "login-screen_") {
		t.Errorf("capture name = %q, want login-screen_ prefix", filepath.Base(path))
	}
	if !strings.HasSuffix(path, ".txt") {
		t.Errorf("capture path = %q, want .txt suffix", path)
	}
}

func TestArtifactCollector_CaptureScreen(t *testing.T) {
	c, err := NewArtifactCollector(t.TempDir())
	if err != nil {
		t.Fatalf("NewArtifactCollector: %v", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 80, 24))
	path, err := c.CaptureScreen(img, "result screen")
	if err != nil {
		t.Fatalf("CaptureScreen: %v", err)
	}
	if !strings.HasSuffix(path, ".png") {
		t.Errorf("capture path = %q, want .png suffix", path)
	}
	// The name is sanitized for the filesystem.
	if strings.Contains(filepath.Base(path), " ") {
		t.Errorf("capture name %q should not contain spaces", filepath.Base(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("PNG file is empty")
	}
}

func TestArtifactCollector_AppendLedger(t *testing.T) {
	c, err := NewArtifactCollector(t.TempDir())
	if err != nil {
		t.Fatalf("NewArtifactCollector: %v", err)
	}

	if err := c.AppendLedger("LOGIN", "ok"); err != nil {
		t.Fatalf("AppendLedger: %v", err)
	}
	if err := c.AppendLedger("SUBMIT", "failed"); err != nil {
		t.Fatalf("AppendLedger: %v", err)
	}

	f, err := os.Open(c.LedgerPath())
	if err != nil {
		t.Fatalf("opening ledger: %v", err)
	}
	defer f.Close()

	type entry struct {
		Timestamp string `json:"timestamp"`
		Action    string `json:"action"`
		Status    string `json:"status"`
	}

	var entries []entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("ledger line is not JSON: %v (%q)", err, scanner.Text())
		}
		entries = append(entries, e)
	}

	if len(entries) != 2 {
		t.Fatalf("ledger has %d entries, want 2", len(entries))
	}
	if entries[0].Action != "LOGIN" || entries[0].Status != "ok" {
		t.Errorf("entry[0] = %+v", entries[0])
	}
	if entries[1].Action != "SUBMIT" || entries[1].Status != "failed" {
		t.Errorf("entry[1] = %+v", entries[1])
	}
	for i, e := range entries {
		if _, err := time.Parse(time.RFC3339Nano, e.Timestamp); err != nil {
			t.Errorf("entry[%d] timestamp %q: %v", i, e.Timestamp, err)
		}
	}
}
