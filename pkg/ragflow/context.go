package ragflow

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/randalmurphal/ragflow/pkg/ragflow/llm"
	"github.com/randalmurphal/ragflow/pkg/ragflow/observability"
	"github.com/randalmurphal/ragflow/pkg/ragflow/retrieval"
	"github.com/randalmurphal/ragflow/pkg/ragflow/search"
)

// Context provides execution context to nodes.
// It extends context.Context with the collaborators nodes call out to and
// with run metadata.
//
// Context is immutable after creation. The executor derives a context per
// node with the node ID set and the logger enriched.
type Context interface {
	context.Context

	// Logger returns the configured logger, enriched with run and node context.
	// Never returns nil - defaults to slog.Default() if not configured.
	Logger() *slog.Logger

	// Retriever returns the document retriever, or nil if not configured.
	Retriever() retrieval.Retriever

	// Generator returns the text generator, or nil if not configured.
	Generator() llm.Generator

	// Searcher returns the web searcher, or nil if not configured.
	Searcher() search.Searcher

	// RunID returns the unique identifier for this execution run.
	RunID() string

	// NodeID returns the current node being executed.
	// Empty string before execution starts.
	NodeID() string
}

type executionContext struct {
	context.Context

	logger    *slog.Logger
	retriever retrieval.Retriever
	generator llm.Generator
	searcher  search.Searcher
	runID     string
	nodeID    string
	nodeType  NodeType

	metrics observability.MetricsRecorder
}

func (c *executionContext) Logger() *slog.Logger { return c.logger }

func (c *executionContext) Retriever() retrieval.Retriever { return c.retriever }

func (c *executionContext) Generator() llm.Generator { return c.generator }

func (c *executionContext) Searcher() search.Searcher { return c.searcher }

func (c *executionContext) RunID() string { return c.runID }

func (c *executionContext) NodeID() string { return c.nodeID }

// ContextOption configures a Context.
type ContextOption func(*executionContext)

// WithLogger sets the logger for the context.
// The logger will be enriched with run_id and node_id during execution.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRetriever sets the retriever used by knowledgeBase nodes.
func WithRetriever(r retrieval.Retriever) ContextOption {
	return func(c *executionContext) { c.retriever = r }
}

// WithGenerator sets the generator used by llmEngine and output nodes.
func WithGenerator(g llm.Generator) ContextOption {
	return func(c *executionContext) { c.generator = g }
}

// WithSearcher sets the web searcher used by llmEngine nodes.
func WithSearcher(s search.Searcher) ContextOption {
	return func(c *executionContext) { c.searcher = s }
}

// WithContextRunID sets the run identifier for the context.
// If not set, a UUID will be auto-generated.
func WithContextRunID(id string) ContextOption {
	return func(c *executionContext) {
		if id != "" {
			c.runID = id
		}
	}
}

// NewContext creates an execution context from a standard context.
//
// Example:
//
//	ctx := ragflow.NewContext(context.Background(),
//	    ragflow.WithLogger(logger),
//	    ragflow.WithGenerator(llm.NewChatGenerator(factory)))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  slog.Default(),
		runID:   uuid.New().String(),
		metrics: observability.NoopMetrics{},
	}

	for _, opt := range opts {
		opt(ec)
	}

	return ec
}

// forNode returns a derived context for one node invocation.
// tracingCtx carries the node span.
func (c *executionContext) forNode(tracingCtx context.Context, nodeID string, nodeType NodeType, metrics observability.MetricsRecorder) *executionContext {
	return &executionContext{
		Context:   tracingCtx,
		logger:    observability.EnrichLogger(c.logger, c.runID, nodeID),
		retriever: c.retriever,
		generator: c.generator,
		searcher:  c.searcher,
		runID:     c.runID,
		nodeID:    nodeID,
		nodeType:  nodeType,
		metrics:   metrics,
	}
}

// degraded reports a collaborator failure a node absorbed into its update.
func degraded(ctx Context, collaborator string, err error) {
	observability.LogNodeDegraded(ctx.Logger(), ctx.NodeID(), collaborator, err)
	if ec, ok := ctx.(*executionContext); ok {
		ec.metrics.RecordNodeDegraded(ec, string(ec.nodeType), collaborator)
	}
}
