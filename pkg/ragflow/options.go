package ragflow

import (
	"github.com/randalmurphal/ragflow/pkg/ragflow/observability"
)

// runConfig holds configuration for graph execution.
type runConfig struct {
	maxIterations  int
	runID          string
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool
	stopOnCancel   bool
}

// defaultRunConfig returns the default execution configuration.
func defaultRunConfig() runConfig {
	return runConfig{
		maxIterations: 1000,
		metrics:       observability.NoopMetrics{},
		spans:         observability.NoopSpanManager{},
	}
}

// RunOption configures execution behavior.
type RunOption func(*runConfig)

// WithMaxIterations sets the maximum number of node invocations in one run.
// Default: 1000
//
// Acyclic workflows stay far below the limit. A cyclic edge list that the
// compiler could not reduce would otherwise run forever; past the limit Run
// returns a MaxIterationsError.
func WithMaxIterations(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

// WithRunID overrides the run identifier used in logs and spans.
// By default the Context's RunID is used.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// WithMetrics enables OpenTelemetry metrics for the run.
// The global meter provider must be configured by the caller.
func WithMetrics(enabled bool) RunOption {
	return func(c *runConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables OpenTelemetry spans for the run and each node.
// The global tracer provider must be configured by the caller.
func WithTracing(enabled bool) RunOption {
	return func(c *runConfig) {
		c.tracingEnabled = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithStopOnCancel makes the executor check the context before each node
// and stop with a CancellationError once it is done.
// Default: false
//
// By default a started run visits every reachable node. Collaborators still
// see the cancelled context, and the built-in nodes absorb their errors, so
// the output node reports the failure.
func WithStopOnCancel(enabled bool) RunOption {
	return func(c *runConfig) {
		c.stopOnCancel = enabled
	}
}
