package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records ragflow metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordNodeExecution records a node execution with its duration and error status.
	RecordNodeExecution(ctx context.Context, nodeType string, duration time.Duration, err error)

	// RecordNodeDegraded records a collaborator failure absorbed by a node.
	RecordNodeDegraded(ctx context.Context, nodeType, collaborator string)

	// RecordWorkflowRun records a workflow run completion.
	RecordWorkflowRun(ctx context.Context, success bool, duration time.Duration)

	// RecordPrunedEdges records how many edges a compile removed.
	RecordPrunedEdges(ctx context.Context, count int)
}

type otelMetrics struct {
	nodeExecutions metric.Int64Counter
	nodeLatency    metric.Float64Histogram
	nodeErrors     metric.Int64Counter
	nodeDegraded   metric.Int64Counter
	workflowRuns   metric.Int64Counter
	runLatency     metric.Float64Histogram
	prunedEdges    metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("ragflow")

	nodeExecutions, err := meter.Int64Counter("ragflow.node.executions",
		metric.WithDescription("Number of node executions"),
	)
	if err != nil {
		return nil, err
	}

	nodeLatency, err := meter.Float64Histogram("ragflow.node.latency_ms",
		metric.WithDescription("Node execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	nodeErrors, err := meter.Int64Counter("ragflow.node.errors",
		metric.WithDescription("Number of node executions that aborted the run"),
	)
	if err != nil {
		return nil, err
	}

	nodeDegraded, err := meter.Int64Counter("ragflow.node.degraded",
		metric.WithDescription("Number of collaborator failures absorbed by nodes"),
	)
	if err != nil {
		return nil, err
	}

	workflowRuns, err := meter.Int64Counter("ragflow.workflow.runs",
		metric.WithDescription("Number of workflow runs"),
	)
	if err != nil {
		return nil, err
	}

	runLatency, err := meter.Float64Histogram("ragflow.workflow.latency_ms",
		metric.WithDescription("Workflow run latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	prunedEdges, err := meter.Int64Counter("ragflow.compile.pruned_edges",
		metric.WithDescription("Number of redundant edges removed at compile time"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		nodeExecutions: nodeExecutions,
		nodeLatency:    nodeLatency,
		nodeErrors:     nodeErrors,
		nodeDegraded:   nodeDegraded,
		workflowRuns:   workflowRuns,
		runLatency:     runLatency,
		prunedEdges:    prunedEdges,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder backed by the global OTel
// meter provider. If instrument creation fails, it returns NoopMetrics.
//
// Configure the provider first:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordNodeExecution(ctx context.Context, nodeType string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("node_type", nodeType))

	m.nodeExecutions.Add(ctx, 1, attrs)
	m.nodeLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
	if err != nil {
		m.nodeErrors.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordNodeDegraded(ctx context.Context, nodeType, collaborator string) {
	m.nodeDegraded.Add(ctx, 1, metric.WithAttributes(
		attribute.String("node_type", nodeType),
		attribute.String("collaborator", collaborator),
	))
}

func (m *otelMetrics) RecordWorkflowRun(ctx context.Context, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	m.workflowRuns.Add(ctx, 1, attrs)
	m.runLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (m *otelMetrics) RecordPrunedEdges(ctx context.Context, count int) {
	if count <= 0 {
		return
	}
	m.prunedEdges.Add(ctx, int64(count))
}
