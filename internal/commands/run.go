package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/randalmurphal/ragflow/pkg/ragflow"
	"github.com/randalmurphal/ragflow/pkg/ragflow/config"
	"github.com/spf13/cobra"
)

var (
	runQuery       string
	runConfigsPath string
	runVerbose     bool
	runMaxIter     int
)

var runCmd = &cobra.Command{
	Use:   "run <workflow-file>",
	Short: "Execute a workflow against a query",
	Long: `Execute a workflow file (JSON or YAML) against a query and print the response.

Node configs are taken from the knowledgeBase and llmEngine nodes unless
--node-configs points at a file.

Examples:
  ragflow run workflow.json --query "What does the handbook say about leave?"
  ragflow run workflow.yaml --query "hello" --verbose`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runQuery, "query", "q", "", "Query to run (required)")
	runCmd.Flags().StringVar(&runConfigsPath, "node-configs", "", "File with node configs keyed by node type")
	runCmd.Flags().BoolVar(&runVerbose, "verbose", false, "Print the final state as JSON instead of the response")
	runCmd.Flags().IntVar(&runMaxIter, "max-iterations", 1000, "Maximum node invocations per run")
	_ = runCmd.MarkFlagRequired("query")
}

func runRun(cmd *cobra.Command, args []string) error {
	logger, err := stderrLogger()
	if err != nil {
		return err
	}

	wf, err := ragflow.LoadWorkflow(args[0])
	if err != nil {
		return fmt.Errorf("failed to load workflow: %w", err)
	}

	configs := ragflow.NodeConfigsFromNodes(wf.Nodes)
	if runConfigsPath != "" {
		configs, err = loadNodeConfigs(runConfigsPath)
		if err != nil {
			return err
		}
	}

	settings, err := config.LoadSettings(configPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	ctx := context.Background()
	if settings.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, settings.RequestTimeout)
		defer cancel()
	}

	svc, err := buildServices(ctx, settings, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	engine := svc.engine(logger, ragflow.WithRunOptions(ragflow.WithMaxIterations(runMaxIter)))
	out := cmd.OutOrStdout()

	if !runVerbose {
		fmt.Fprintln(out, engine.Execute(ctx, wf.Nodes, wf.Edges, runQuery, configs))
		return nil
	}

	state, runErr := engine.Run(ctx, wf.Nodes, wf.Edges, runQuery, configs)
	report := struct {
		Response string        `json:"response"`
		State    ragflow.State `json:"state"`
	}{Response: ragflow.Render(state, runErr), State: state}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// loadNodeConfigs reads a YAML or JSON file mapping node type to config.
func loadNodeConfigs(path string) (ragflow.NodeConfigs, error) {
	cfg, err := config.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load node configs: %w", err)
	}
	configs := ragflow.NodeConfigs{}
	for key := range cfg.Raw() {
		configs[key] = cfg.Section(key).Raw()
	}
	return configs, nil
}
