// Package observability provides the logging, metrics and tracing used by the
// ragflow compiler and executor.
//
// Logging goes through log/slog. Metrics and tracing use OpenTelemetry and
// have no-op implementations for when they are disabled.
package observability

import (
	"log/slog"
)

// EnrichLogger adds run and node identity to a logger.
func EnrichLogger(logger *slog.Logger, runID, nodeID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("node_id", nodeID),
	)
}

// LogRunStart logs the start of a workflow run.
func LogRunStart(logger *slog.Logger, runID, entry string) {
	if logger == nil {
		return
	}
	logger.Info("workflow run starting",
		slog.String("run_id", runID),
		slog.String("entry", entry),
	)
}

// LogRunComplete logs successful run completion.
func LogRunComplete(logger *slog.Logger, runID string, durationMs float64, nodeCount int) {
	if logger == nil {
		return
	}
	logger.Info("workflow run completed",
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("nodes_executed", nodeCount),
	)
}

// LogRunError logs run failure.
func LogRunError(logger *slog.Logger, runID string, err error, durationMs float64, lastNode string) {
	if logger == nil {
		return
	}
	logger.Error("workflow run failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.String("last_node", lastNode),
	)
}

// LogNodeStart logs node execution start.
func LogNodeStart(logger *slog.Logger, nodeID, nodeType string) {
	if logger == nil {
		return
	}
	logger.Debug("node starting",
		slog.String("node_id", nodeID),
		slog.String("node_type", nodeType),
	)
}

// LogNodeComplete logs successful node completion.
func LogNodeComplete(logger *slog.Logger, nodeID string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("node completed",
		slog.String("node_id", nodeID),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogNodeError logs a node failure that aborts the run.
func LogNodeError(logger *slog.Logger, nodeID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("node failed",
		slog.String("node_id", nodeID),
		slog.String("error", err.Error()),
	)
}

// LogNodeDegraded logs a collaborator failure that a node absorbed.
// The run continues with a degraded result.
func LogNodeDegraded(logger *slog.Logger, nodeID, collaborator string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("node degraded",
		slog.String("node_id", nodeID),
		slog.String("collaborator", collaborator),
		slog.String("error", err.Error()),
	)
}

// LogEdgePruned logs an edge removed by transitive reduction.
func LogEdgePruned(logger *slog.Logger, source, target string) {
	if logger == nil {
		return
	}
	logger.Debug("pruning redundant edge",
		slog.String("source", source),
		slog.String("target", target),
	)
}

// LogGraphCompiled summarizes a compiled graph.
func LogGraphCompiled(logger *slog.Logger, entry string, scheduled, edges, pruned int) {
	if logger == nil {
		return
	}
	logger.Debug("workflow graph compiled",
		slog.String("entry", entry),
		slog.Int("scheduled_nodes", scheduled),
		slog.Int("edges", edges),
		slog.Int("pruned_edges", pruned),
	)
}
