package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hostflow-stack/hostflow/internal/workflow"
)

var (
	simulateDataPath string
	simulateRowKey   string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <workflow.yaml>",
	Short: "Dry-run a workflow against a dataset row",
	Long: `Predict what a workflow would do for one dataset row without
touching any host session. Prints the predicted outcome, per-step
estimates, warnings, and the substituted field values for operator
review before real execution.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulateCmd,
}

func init() {
	simulateCmd.Flags().StringVar(&simulateDataPath, "data", "", "CSV dataset (required)")
	simulateCmd.Flags().StringVar(&simulateRowKey, "row", "", "row key to simulate (default: first row)")
	simulateCmd.MarkFlagRequired("data")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulateCmd(cmd *cobra.Command, args []string) error {
	schema, err := workflow.LoadSchema(args[0])
	if err != nil {
		return err
	}
	dataset, err := workflow.LoadCSV(simulateDataPath)
	if err != nil {
		return err
	}

	row, key, err := pickRow(dataset, simulateRowKey)
	if err != nil {
		return err
	}

	sim := workflow.Simulate(schema, row, schema.EffectiveTolerance())

	fmt.Printf("Simulation of %s against row %s\n", schema.Name, key)
	fmt.Printf("Predicted outcome: %s\n", sim.PredictedOutcome)

	if len(sim.Steps) > 0 {
		fmt.Println("Steps:")
		for _, s := range sim.Steps {
			line := fmt.Sprintf("  %2d. %-8s %s", s.Index, s.Action, s.Prediction)
			if s.Warning != "" {
				line += "  ! " + s.Warning
			}
			fmt.Println(line)
		}
	}

	if sim.HasWarnings() {
		fmt.Println("Warnings:")
		for _, w := range sim.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	if len(sim.PredictedFields) > 0 {
		fmt.Println("Substituted fields:")
		keys := make([]string, 0, len(sim.PredictedFields))
		for k := range sim.PredictedFields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", k, sim.PredictedFields[k])
		}
	}

	if !sim.PredictSuccess() {
		return fmt.Errorf("simulation predicts %s", sim.PredictedOutcome)
	}
	return nil
}

// pickRow selects the named row, or the first row when no key is given.
func pickRow(dataset *workflow.Dataset, key string) (workflow.Row, string, error) {
	if key == "" {
		rows := dataset.Rows()
		if len(rows) == 0 {
			return nil, "", fmt.Errorf("dataset has no rows")
		}
		return rows[0].Row, rows[0].Key, nil
	}
	row, ok := dataset.Get(key)
	if !ok {
		return nil, "", fmt.Errorf("row %q not found in dataset", key)
	}
	return row, key, nil
}
