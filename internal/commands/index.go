package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/randalmurphal/ragflow/pkg/ragflow/config"
	"github.com/randalmurphal/ragflow/pkg/ragflow/retrieval"
	"github.com/spf13/cobra"
)

var (
	indexEmbeddingModel string
	indexAPIKey         string
	indexReplace        bool
)

var indexCmd = &cobra.Command{
	Use:   "index <collection> <file>...",
	Short: "Split, embed and store text files in a collection",
	Long: `Index plain text or markdown files into a vector store collection so that
knowledgeBase nodes can retrieve from it.

Examples:
  ragflow index handbook docs/handbook.md docs/policies.txt
  ragflow index handbook docs/*.md --replace`,
	Args: cobra.MinimumNArgs(2),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().StringVar(&indexEmbeddingModel, "embedding-model", retrieval.DefaultEmbeddingModel, "Embedding model")
	indexCmd.Flags().StringVar(&indexAPIKey, "api-key", "", "Embedding provider API key (defaults to settings)")
	indexCmd.Flags().BoolVar(&indexReplace, "replace", false, "Delete the collection before indexing")
}

func runIndex(cmd *cobra.Command, args []string) error {
	logger, err := stderrLogger()
	if err != nil {
		return err
	}

	settings, err := config.LoadSettings(configPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	ctx := context.Background()
	svc, err := buildServices(ctx, settings, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	collection, files := args[0], args[1:]
	total, err := indexFiles(ctx, svc.retrieval, collection, files, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d chunks from %d files into %q\n", total, len(files), collection)
	return nil
}

func indexFiles(ctx context.Context, svc *retrieval.Service, collection string, files []string, logger *slog.Logger) (int, error) {
	if indexReplace {
		if err := svc.DeleteCollection(ctx, collection); err != nil {
			return 0, fmt.Errorf("failed to clear collection: %w", err)
		}
	}

	total := 0
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return total, fmt.Errorf("read %s: %w", path, err)
		}

		n, err := svc.Index(ctx, retrieval.IndexRequest{
			Collection:        collection,
			EmbeddingProvider: retrieval.ProviderOpenAI,
			EmbeddingModel:    indexEmbeddingModel,
			APIKey:            indexAPIKey,
			Source:            filepath.Base(path),
			Text:              string(data),
		})
		if err != nil {
			return total, fmt.Errorf("index %s: %w", path, err)
		}

		logger.Info("indexed file", slog.String("file", path), slog.Int("chunks", n))
		total += n
	}
	return total, nil
}
