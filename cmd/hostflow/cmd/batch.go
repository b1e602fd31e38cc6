package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/hostflow-stack/hostflow/internal/batch"
	"github.com/hostflow-stack/hostflow/internal/eval"
	"github.com/hostflow-stack/hostflow/internal/runner"
	"github.com/hostflow-stack/hostflow/internal/workflow"
)

var (
	batchDataPath    string
	batchConcurrency int
	batchDeadline    time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch <workflow.yaml>",
	Short: "Execute a workflow against every dataset row",
	Long: `Execute one workflow instance per dataset row, concurrently, each
with its own session and artifact directory. Rows fail independently;
a row still running at the batch deadline is reported as a timeout.

Prints per-row summaries, aggregate metrics (success rates, latency
percentiles, throughput), and tolerance-bounded reliability scores.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatchCmd,
}

func init() {
	batchCmd.Flags().StringVar(&batchDataPath, "data", "", "CSV dataset (required)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max simultaneous workflows (0 = unbounded)")
	batchCmd.Flags().DurationVar(&batchDeadline, "deadline", 0, "overall batch deadline (default from config)")
	batchCmd.MarkFlagRequired("data")
	rootCmd.AddCommand(batchCmd)
}

func runBatchCmd(cmd *cobra.Command, args []string) error {
	cfg, baseDir, err := loadConfig()
	if err != nil {
		return err
	}

	schema, err := workflow.LoadSchema(args[0])
	if err != nil {
		return err
	}
	dataset, err := workflow.LoadCSV(batchDataPath)
	if err != nil {
		return err
	}

	concurrency := cfg.Batch.Concurrency
	if cmd.Flags().Changed("concurrency") {
		concurrency = batchConcurrency
	}
	deadline := cfg.Batch.WorkflowDeadline
	if batchDeadline > 0 {
		deadline = batchDeadline
	}

	opts := batch.ExecutorOptions{
		Concurrency:   concurrency,
		Deadline:      deadline,
		ArtifactsRoot: cfg.ArtifactsDir(baseDir),
		Runner: runner.Options{
			LoginUnlockTimeout: cfg.Terminal.LoginUnlockTimeout,
			LockCycleTimeout:   cfg.Terminal.LockCycleTimeout,
			FieldFillTimeout:   cfg.Terminal.FieldFillTimeout,
		},
		Logger: slog.Default(),
	}

	executor := batch.NewExecutor(schema, SessionFactory, opts)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	results, runID, err := executor.Run(ctx, dataset)
	if err != nil {
		return err
	}
	end := time.Now()

	for _, r := range results {
		fmt.Println(r.Summary())
	}
	fmt.Println()

	metrics, err := batch.From(results, start, end)
	if err != nil {
		return err
	}
	fmt.Print(metrics.Report())

	tolerance := schema.EffectiveTolerance()
	fmt.Println("Scores:")
	for _, scorer := range eval.DefaultScorers() {
		total := 0.0
		for _, r := range results {
			total += scorer.Evaluate(r, tolerance)
		}
		fmt.Printf("  %-12s %.2f\n", scorer.Name()+":", total/float64(len(results)))
	}

	slog.Default().Info("batch finished", "batch_run", runID, "rows", len(results))
	if metrics.FailureCount > 0 {
		return fmt.Errorf("%d of %d workflows failed", metrics.FailureCount, metrics.TotalWorkflows)
	}
	return nil
}
