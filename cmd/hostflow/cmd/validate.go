package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hostflow-stack/hostflow/internal/workflow"
)

var validateDataPath string

var validateCmd = &cobra.Command{
	Use:   "validate <workflow.yaml>",
	Short: "Validate a workflow definition",
	Long: `Validate a workflow definition without executing it.

Checks:
- YAML syntax and unknown action kinds
- Required fields per action
- Step ordering (LOGIN first, SUBMIT placement)
- Wait duration bounds
- ${data.<key>} parameter references against a dataset (with --data)`,
	Args: cobra.ExactArgs(1),
	RunE: runValidateCmd,
}

func init() {
	validateCmd.Flags().StringVar(&validateDataPath, "data", "", "CSV dataset to check parameter references against")
	rootCmd.AddCommand(validateCmd)
}

func runValidateCmd(cmd *cobra.Command, args []string) error {
	schema, err := workflow.LoadSchema(args[0])
	if err != nil {
		return err
	}

	result := workflow.ValidateWorkflow(schema)

	if validateDataPath != "" {
		dataset, err := workflow.LoadCSV(validateDataPath)
		if err != nil {
			return err
		}
		result.Merge(workflow.ValidateParameters(schema, dataset.Columns()))
	}

	for _, w := range result.Warnings {
		fmt.Printf("warning: step %d: %s: %s\n", w.StepIndex, w.Field, w.Message)
	}
	for _, e := range result.Errors {
		fmt.Printf("error: %s\n", e.Error())
	}

	if !result.IsValid() {
		return fmt.Errorf("%s: %d validation error(s)", schema.Name, len(result.Errors))
	}

	fmt.Printf("%s: valid (%d steps, %d warnings)\n", schema.Name, len(schema.Steps), len(result.Warnings))
	return nil
}
