package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/randalmurphal/ragflow/pkg/ragflow"
	"github.com/spf13/cobra"
)

var validateJSON bool

var validateCmd = &cobra.Command{
	Use:   "validate <workflow-file>",
	Short: "Check a workflow for missing or disconnected components",
	Long: `Check a workflow file for the components needed to answer a query.

Exits non-zero when the workflow has errors. Warnings are printed but do
not fail the command.

Examples:
  ragflow validate workflow.json
  ragflow validate workflow.yaml --json`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

// errInvalidWorkflow is returned when validation finds errors.
var errInvalidWorkflow = errors.New("workflow is invalid")

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Print the result as JSON")
}

func runValidate(cmd *cobra.Command, args []string) error {
	wf, err := ragflow.LoadWorkflow(args[0])
	if err != nil {
		return fmt.Errorf("failed to load workflow: %w", err)
	}

	result := ragflow.Validate(wf.Nodes, wf.Edges)
	out := cmd.OutOrStdout()

	if validateJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		for _, e := range result.Errors {
			fmt.Fprintf(out, "error: %s\n", e)
		}
		for _, w := range result.Warnings {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
		if result.IsValid {
			fmt.Fprintln(out, "workflow is valid")
		}
	}

	if !result.IsValid {
		return errInvalidWorkflow
	}
	return nil
}
