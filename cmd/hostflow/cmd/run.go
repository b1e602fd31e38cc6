package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hostflow-stack/hostflow/internal/batch"
	"github.com/hostflow-stack/hostflow/internal/runner"
	"github.com/hostflow-stack/hostflow/internal/workflow"
)

var (
	runDataPath string
	runRowKey   string
)

var runCmd = &cobra.Command{
	Use:   "run <workflow.yaml>",
	Short: "Execute a workflow for one dataset row",
	Long: `Execute a single workflow instance against a real host session
for one dataset row. Artifacts (screenshots, text captures, the
execution ledger) are written under the configured artifacts directory.

Workflows whose tolerance requires approval should be simulated first;
see 'hostflow simulate'.`,
	Args: cobra.ExactArgs(1),
	RunE: runRunCmd,
}

func init() {
	runCmd.Flags().StringVar(&runDataPath, "data", "", "CSV dataset (required)")
	runCmd.Flags().StringVar(&runRowKey, "row", "", "row key to execute (required)")
	runCmd.MarkFlagRequired("data")
	runCmd.MarkFlagRequired("row")
	rootCmd.AddCommand(runCmd)
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, baseDir, err := loadConfig()
	if err != nil {
		return err
	}

	schema, err := workflow.LoadSchema(args[0])
	if err != nil {
		return err
	}
	dataset, err := workflow.LoadCSV(runDataPath)
	if err != nil {
		return err
	}
	row, ok := dataset.Get(runRowKey)
	if !ok {
		return fmt.Errorf("row %q not found in dataset", runRowKey)
	}

	host, user, password := loginCredentials(schema, row)
	session, gate, err := SessionFactory(host, user, password)
	if err != nil {
		return err
	}
	defer session.Disconnect()

	dir := filepath.Join(cfg.ArtifactsDir(baseDir), fmt.Sprintf("%s_%s", schema.Name, runRowKey))
	artifacts, err := runner.NewArtifactCollector(dir)
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, cfg.Batch.WorkflowDeadline)
	defer cancel()

	opts := runner.Options{
		LoginUnlockTimeout: cfg.Terminal.LoginUnlockTimeout,
		LockCycleTimeout:   cfg.Terminal.LockCycleTimeout,
		FieldFillTimeout:   cfg.Terminal.FieldFillTimeout,
	}
	r := runner.New(session, gate, artifacts, slog.Default().With("workflow", schema.Name), opts)

	start := time.Now()
	runErr := r.Run(ctx, schema, row)
	latency := time.Since(start).Milliseconds()

	var result *batch.Result
	if runErr != nil {
		result, err = batch.Failure(runRowKey, latency, runErr)
	} else {
		result, err = batch.Success(runRowKey, latency, artifacts.Dir())
	}
	if err != nil {
		return err
	}

	fmt.Println(result.Summary())
	if runErr != nil {
		printError(runErr)
		return fmt.Errorf("workflow %s failed for row %s", schema.Name, runRowKey)
	}
	return nil
}

// loginCredentials extracts the substituted LOGIN credentials, or
// blanks for workflows without a LOGIN step.
func loginCredentials(schema *workflow.Schema, row workflow.Row) (host, user, password string) {
	for _, step := range schema.Steps {
		if kind, ok := step.Kind(); ok && kind == workflow.KindLogin {
			return workflow.SubstituteParams(step.Host, row),
				workflow.SubstituteParams(step.User, row),
				workflow.SubstituteParams(step.Password, row)
		}
	}
	return "", "", ""
}
