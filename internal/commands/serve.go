package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/randalmurphal/ragflow/internal/server"
	"github.com/randalmurphal/ragflow/pkg/ragflow/config"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the workflow HTTP API",
	Long: `Start the HTTP API for executing and validating workflows and indexing documents.

The server shuts down gracefully on SIGINT or SIGTERM.

Examples:
  ragflow serve
  ragflow serve --addr :9090 --config ragflow.yaml`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides listen_addr)")
}

func runServe(_ *cobra.Command, _ []string) error {
	logger, err := stderrLogger()
	if err != nil {
		return err
	}

	settings, err := config.LoadSettings(configPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if serveAddr != "" {
		settings.ListenAddr = serveAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := buildServices(ctx, settings, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	srv := server.New(svc.engine(logger),
		server.WithLogger(logger),
		server.WithIndexer(svc.retrieval),
		server.WithRequestTimeout(settings.RequestTimeout),
	)

	logger.Info("starting server",
		slog.String("addr", settings.ListenAddr),
		slog.String("vector_store", settings.VectorStore),
	)
	return srv.ListenAndServe(ctx, settings.ListenAddr)
}
