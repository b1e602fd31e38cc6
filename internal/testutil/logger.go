// Package testutil provides test doubles for host terminal sessions
// and logging helpers used across the engine's test suites.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
)

// DiscardLogger returns a logger that discards all output.
// Use this for tests that don't need to verify logging.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError + 100, // Effectively disable all logging
	}))
}

// NewBufferLogger creates a logger that writes JSON to a buffer.
// Returns both the logger and the buffer for inspection.
func NewBufferLogger(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: level,
	}))
	return logger, buf
}

// ParseJSONLogs parses JSON-formatted log lines from a buffer.
func ParseJSONLogs(buf *bytes.Buffer) ([]map[string]any, error) {
	var entries []map[string]any
	decoder := json.NewDecoder(buf)

	for decoder.More() {
		var entry map[string]any
		if err := decoder.Decode(&entry); err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
