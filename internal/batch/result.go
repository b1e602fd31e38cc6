// Package batch runs one workflow schema against every row of a
// dataset concurrently and aggregates the outcomes.
package batch

import (
	"fmt"
	"time"

	"github.com/hostflow-stack/hostflow/internal/errors"
)

// Result is the immutable outcome of one workflow instance. Exactly
// one of ArtifactPath and Err is populated: successes carry the
// artifact directory, failures carry the error.
type Result struct {
	RowKey       string
	Succeeded    bool
	LatencyMs    int64
	ArtifactPath string
	Err          error
}

// Success builds a successful result. The artifact path is required
// and the latency must be non-negative.
func Success(rowKey string, latencyMs int64, artifactPath string) (*Result, error) {
	if latencyMs < 0 {
		return nil, errors.InvalidArgument("latency_ms", "cannot be negative")
	}
	if artifactPath == "" {
		return nil, errors.InvalidArgument("artifact_path", "required for a successful result")
	}
	return &Result{
		RowKey:       rowKey,
		Succeeded:    true,
		LatencyMs:    latencyMs,
		ArtifactPath: artifactPath,
	}, nil
}

// Failure builds a failed result. The error is required and the
// latency must be non-negative.
func Failure(rowKey string, latencyMs int64, err error) (*Result, error) {
	if latencyMs < 0 {
		return nil, errors.InvalidArgument("latency_ms", "cannot be negative")
	}
	if err == nil {
		return nil, errors.InvalidArgument("err", "required for a failed result")
	}
	return &Result{
		RowKey:    rowKey,
		Succeeded: false,
		LatencyMs: latencyMs,
		Err:       err,
	}, nil
}

// TimedOut builds the result for a row still running when the batch
// deadline elapsed.
func TimedOut(rowKey string, deadline time.Duration) *Result {
	return &Result{
		RowKey:    rowKey,
		Succeeded: false,
		LatencyMs: deadline.Milliseconds(),
		Err:       errors.BatchDeadline(rowKey, deadline),
	}
}

// Summary renders the one-line human-readable form:
//
//	✓ row-1 (1250ms) → artifacts/transfer_row-1
//	✗ row-2 (5000ms) — Timeout
func (r *Result) Summary() string {
	if r.Succeeded {
		return fmt.Sprintf("✓ %s (%dms) → %s", r.RowKey, r.LatencyMs, r.ArtifactPath)
	}
	return fmt.Sprintf("✗ %s (%dms) — %s", r.RowKey, r.LatencyMs, errors.Kind(r.Err))
}
