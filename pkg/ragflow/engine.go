package ragflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/ragflow/pkg/ragflow/llm"
	"github.com/randalmurphal/ragflow/pkg/ragflow/observability"
	"github.com/randalmurphal/ragflow/pkg/ragflow/retrieval"
	"github.com/randalmurphal/ragflow/pkg/ragflow/search"
)

// ErrorPrefix starts every response rendered from a failed run.
const ErrorPrefix = "Workflow execution error: "

// Engine compiles and runs workflows against injected collaborators.
// It is safe for concurrent use; each call compiles its own graph and
// builds its own state.
type Engine struct {
	registry  *Registry
	logger    *slog.Logger
	retriever retrieval.Retriever
	generator llm.Generator
	searcher  search.Searcher
	metrics   observability.MetricsRecorder
	runOpts   []RunOption
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineRetriever sets the retriever handed to knowledgeBase nodes.
func WithEngineRetriever(r retrieval.Retriever) EngineOption {
	return func(e *Engine) { e.retriever = r }
}

// WithEngineGenerator sets the generator handed to llmEngine and output nodes.
func WithEngineGenerator(g llm.Generator) EngineOption {
	return func(e *Engine) { e.generator = g }
}

// WithEngineSearcher sets the web searcher handed to llmEngine nodes.
func WithEngineSearcher(s search.Searcher) EngineOption {
	return func(e *Engine) { e.searcher = s }
}

// WithRegistry replaces the built-in node registry.
func WithRegistry(r *Registry) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithEngineLogger sets the logger for compilation and runs.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithEngineMetrics enables OpenTelemetry metrics for compile and run.
func WithEngineMetrics(enabled bool) EngineOption {
	return func(e *Engine) {
		if enabled {
			e.metrics = observability.NewMetricsRecorder()
		} else {
			e.metrics = observability.NoopMetrics{}
		}
		e.runOpts = append(e.runOpts, WithMetrics(enabled))
	}
}

// WithRunOptions adds options applied to every run.
func WithRunOptions(opts ...RunOption) EngineOption {
	return func(e *Engine) {
		e.runOpts = append(e.runOpts, opts...)
	}
}

// NewEngine creates an Engine. Without collaborators, knowledgeBase and
// llmEngine nodes degrade to null results.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		registry: DefaultRegistry(),
		logger:   slog.Default(),
		metrics:  observability.NoopMetrics{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run compiles the workflow and executes it for one query.
// It returns the final state and the first error that aborted the run.
func (e *Engine) Run(ctx context.Context, nodes []Node, edges []Edge, query string, configs NodeConfigs) (State, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	state := NewState(query, configs)

	cg, err := Compile(nodes, edges, e.registry, WithCompileLogger(e.logger))
	if err != nil {
		return state, err
	}
	e.metrics.RecordPrunedEdges(ctx, len(cg.Pruned()))

	rctx := NewContext(ctx,
		WithLogger(e.logger),
		WithRetriever(e.retriever),
		WithGenerator(e.generator),
		WithSearcher(e.searcher),
	)
	return cg.Run(rctx, state, e.runOpts...)
}

// Execute runs a workflow and returns its final output.
//
// Execute never panics and never returns an error: a failed run renders as
// "Workflow execution error: <message>", and a run that produced no output
// renders as "No response generated.".
func (e *Engine) Execute(ctx context.Context, nodes []Node, edges []Edge, query string, configs NodeConfigs) (out string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("workflow execution panicked", slog.Any("panic", r))
			out = ErrorPrefix + fmt.Sprint(r)
		}
	}()

	state, err := e.Run(ctx, nodes, edges, query, configs)
	return Render(state, err)
}

// ExecuteJSON parses JSON node and edge arrays and executes them.
// Parse failures render like any other execution error.
func (e *Engine) ExecuteJSON(ctx context.Context, nodesJSON, edgesJSON []byte, query string, configs NodeConfigs) string {
	nodes, err := ParseNodes(nodesJSON)
	if err != nil {
		return Render(State{}, err)
	}
	edges, err := ParseEdges(edgesJSON)
	if err != nil {
		return Render(State{}, err)
	}
	return e.Execute(ctx, nodes, edges, query, configs)
}

// Render converts a run result into the user-facing response string.
func Render(s State, err error) string {
	if err != nil {
		return ErrorPrefix + err.Error()
	}
	if !s.FinalOutput.Truthy() {
		return NoResponse
	}
	return s.FinalOutput.String()
}
