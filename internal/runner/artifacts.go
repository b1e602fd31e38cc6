// Package runner executes a single workflow instance against one host
// terminal session and collects its evidence artifacts.
package runner

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hostflow-stack/hostflow/internal/errors"
)

const ledgerFile = "execution-ledger.jsonl"

// ledgerEntry is one JSONL line in the execution ledger.
type ledgerEntry struct {
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Status    string `json:"status"`
}

// ArtifactCollector writes screenshots, text dumps, and the execution
// ledger for one workflow instance into a single directory. It is safe
// for concurrent use, though a Runner drives it sequentially.
type ArtifactCollector struct {
	dir string

	mu sync.Mutex
}

// NewArtifactCollector creates the artifact directory and returns a
// collector rooted there.
func NewArtifactCollector(dir string) (*ArtifactCollector, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(errors.CodeIOWrite, err, "creating artifact directory %s", dir)
	}
	return &ArtifactCollector{dir: dir}, nil
}

// Dir returns the directory artifacts are written into.
func (c *ArtifactCollector) Dir() string {
	return c.dir
}

// CaptureScreen writes a rendered screen as a timestamped PNG and
// returns the file path.
func (c *ArtifactCollector) CaptureScreen(img image.Image, name string) (string, error) {
	path := filepath.Join(c.dir, c.stampedName(name, "png"))

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(errors.CodeIOWrite, err, "creating screenshot %s", path)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return "", errors.Wrapf(errors.CodeIOWrite, err, "encoding screenshot %s", path)
	}
	return path, nil
}

// CaptureText writes screen text as a timestamped .txt and returns the
// file path.
func (c *ArtifactCollector) CaptureText(text, name string) (string, error) {
	path := filepath.Join(c.dir, c.stampedName(name, "txt"))

	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", errors.Wrapf(errors.CodeIOWrite, err, "writing text capture %s", path)
	}
	return path, nil
}

// AppendLedger appends one {timestamp, action, status} line to the
// execution ledger.
func (c *ArtifactCollector) AppendLedger(action, status string) error {
	entry := ledgerEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Action:    action,
		Status:    status,
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(errors.CodeIOWrite, "encoding ledger entry", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.OpenFile(filepath.Join(c.dir, ledgerFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(errors.CodeIOWrite, "opening execution ledger", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return errors.Wrap(errors.CodeIOWrite, "appending to execution ledger", err)
	}
	return nil
}

// LedgerPath returns the path of the execution ledger file.
func (c *ArtifactCollector) LedgerPath() string {
	return filepath.Join(c.dir, ledgerFile)
}

// stampedName builds "<safe-name>_<stamp>.<ext>" so repeated captures
// of the same step never collide.
func (c *ArtifactCollector) stampedName(name, ext string) string {
	if name == "" {
		name = "capture"
	}
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		}
		return '_'
	}, name)
	stamp := time.Now().UTC().Format("20060102T150405.000000000")
	return fmt.Sprintf("%s_%s.%s", safe, stamp, ext)
}
