package batch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hostflow-stack/hostflow/internal/errors"
	"github.com/hostflow-stack/hostflow/internal/runner"
	"github.com/hostflow-stack/hostflow/internal/terminal"
	"github.com/hostflow-stack/hostflow/internal/workflow"
)

// ExecutorOptions configures a batch run.
type ExecutorOptions struct {
	// Concurrency caps simultaneously running workflow instances.
	// Zero means unbounded (one goroutine per row).
	Concurrency int

	// Deadline bounds the whole batch. Rows still running when it
	// elapses are reported as Timeout results.
	Deadline time.Duration

	// ArtifactsRoot is the directory batch artifacts are written
	// under. Empty disables artifact collection.
	ArtifactsRoot string

	// Runner carries the per-instance timing bounds.
	Runner runner.Options

	Logger *slog.Logger
}

// Executor runs one workflow schema against every row of a dataset.
// Each row gets its own session, runner, and artifact directory; rows
// share nothing but the result collection.
type Executor struct {
	schema  *workflow.Schema
	factory terminal.Factory
	opts    ExecutorOptions
	log     *slog.Logger
}

// NewExecutor builds an Executor.
func NewExecutor(schema *workflow.Schema, factory terminal.Factory, opts ExecutorOptions) *Executor {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.Deadline <= 0 {
		opts.Deadline = 5 * time.Minute
	}
	return &Executor{
		schema:  schema,
		factory: factory,
		opts:    opts,
		log:     log,
	}
}

// Run executes the batch and blocks until every row has a result: its
// own outcome, or a Timeout result if the deadline elapsed first. The
// returned slice has exactly one result per dataset row, in arrival
// order.
func (e *Executor) Run(ctx context.Context, dataset *workflow.Dataset) ([]*Result, string, error) {
	if e.schema == nil {
		return nil, "", errors.InvalidArgument("schema", "cannot be nil")
	}
	if dataset == nil || dataset.Len() == 0 {
		return nil, "", errors.InvalidArgument("dataset", "cannot be empty")
	}

	runID := uuid.NewString()
	log := e.log.With("batch_run", runID, "workflow", e.schema.Name)
	log.Info("starting batch", "rows", dataset.Len(), "concurrency", e.opts.Concurrency)

	runCtx, cancel := context.WithTimeout(ctx, e.opts.Deadline)
	defer cancel()

	rows := dataset.Rows()

	// Each row is reported exactly once, whether its worker finishes
	// or the deadline sweep claims it first. Claiming and appending
	// happen under one mutex so the result set is complete the moment
	// the sweep ends.
	var (
		mu       sync.Mutex
		results  = make([]*Result, 0, len(rows))
		reported = make([]bool, len(rows))
	)
	report := func(i int, r *Result) {
		mu.Lock()
		defer mu.Unlock()
		if reported[i] {
			return
		}
		reported[i] = true
		results = append(results, r)
	}

	var sem chan struct{}
	if e.opts.Concurrency > 0 {
		sem = make(chan struct{}, e.opts.Concurrency)
	}

	var wg sync.WaitGroup
	for i, row := range rows {
		wg.Add(1)
		go func(i int, row workflow.DataRow) {
			defer wg.Done()

			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-runCtx.Done():
					return
				}
			}

			report(i, e.runRow(runCtx, runID, row, log))
		}(i, row)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-runCtx.Done():
		// Sweep unfinished rows into Timeout results. Workers that
		// finish afterwards find their row already reported.
		for i, row := range rows {
			report(i, TimedOut(row.Key, e.opts.Deadline))
		}
	}

	log.Info("batch complete", "results", len(results))
	return results, runID, nil
}

// runRow executes one workflow instance, isolating any error or panic
// into that row's result.
func (e *Executor) runRow(ctx context.Context, runID string, row workflow.DataRow, log *slog.Logger) (result *Result) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			failed, _ := Failure(row.Key, time.Since(start).Milliseconds(),
				errors.Newf(errors.CodeSessionSend, "workflow instance panicked: %v", r))
			result = failed
		}
	}()

	fail := func(err error) *Result {
		latency := time.Since(start).Milliseconds()
		failed, cerr := Failure(row.Key, latency, err)
		if cerr != nil {
			failed = &Result{RowKey: row.Key, LatencyMs: latency, Err: err}
		}
		log.Warn("row failed", "row", row.Key, "latency_ms", latency, "error", err)
		return failed
	}

	host, user, password := e.credentials(row.Row)
	session, gate, err := e.factory(host, user, password)
	if err != nil {
		return fail(errors.Wrap(errors.CodeSessionConnect, "creating session", err))
	}
	defer session.Disconnect()

	var artifacts *runner.ArtifactCollector
	if e.opts.ArtifactsRoot != "" {
		dir := filepath.Join(e.opts.ArtifactsRoot, runID,
			fmt.Sprintf("%s_%s", e.schema.Name, row.Key))
		artifacts, err = runner.NewArtifactCollector(dir)
		if err != nil {
			return fail(err)
		}
	}

	r := runner.New(session, gate, artifacts, log.With("row", row.Key), e.opts.Runner)
	if err := r.Run(ctx, e.schema, row.Row); err != nil {
		return fail(err)
	}

	latency := time.Since(start).Milliseconds()
	artifactPath := "-"
	if artifacts != nil {
		artifactPath = artifacts.Dir()
	}
	ok, cerr := Success(row.Key, latency, artifactPath)
	if cerr != nil {
		return fail(cerr)
	}
	log.Debug("row succeeded", "row", row.Key, "latency_ms", latency)
	return ok
}

// credentials extracts the substituted LOGIN credentials for a row so
// the session factory can build a connection. Workflows without a
// LOGIN step get blank credentials.
func (e *Executor) credentials(row workflow.Row) (host, user, password string) {
	for _, step := range e.schema.Steps {
		if kind, ok := step.Kind(); ok && kind == workflow.KindLogin {
			return workflow.SubstituteParams(step.Host, row),
				workflow.SubstituteParams(step.User, row),
				workflow.SubstituteParams(step.Password, row)
		}
	}
	return "", "", ""
}
