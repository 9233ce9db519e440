package ragflow

import (
	"fmt"
	"log/slog"

	"github.com/randalmurphal/ragflow/pkg/ragflow/observability"
)

// compileConfig holds configuration for Compile.
type compileConfig struct {
	logger *slog.Logger
}

// CompileOption configures Compile.
type CompileOption func(*compileConfig)

// WithCompileLogger sets the logger used for compile diagnostics.
// Default: slog.Default()
func WithCompileLogger(logger *slog.Logger) CompileOption {
	return func(c *compileConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Compile turns a node and edge list into an executable graph.
//
// Compilation steps:
//  1. Index node types, rejecting duplicate IDs
//  2. Build the raw adjacency from edges in input order
//  3. Pick the entry: the first node that is no edge's target, else the first node
//  4. Mark nodes whose type is registered as schedulable
//  5. Prune edges implied by a longer path (see Prune)
//  6. Keep only edges whose endpoints are both schedulable
//  7. Wire every schedulable node that is not a raw edge source to END
//
// Unknown node types, empty graphs and a missing entry are not errors; they
// produce a graph that schedules less, or nothing. The only error is a
// duplicate node ID, reported as a StructuralError.
//
// A nil registry means DefaultRegistry().
func Compile(nodes []Node, edges []Edge, reg *Registry, opts ...CompileOption) (*CompiledGraph, error) {
	cfg := compileConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if reg == nil {
		reg = DefaultRegistry()
	}

	// 1. Node types
	typeOf := make(map[string]NodeType, len(nodes))
	for _, n := range nodes {
		if _, dup := typeOf[n.ID]; dup {
			return nil, &StructuralError{
				Kind: "duplicate_id",
				Msg:  fmt.Sprintf("node id %q appears more than once", n.ID),
			}
		}
		typeOf[n.ID] = n.Type
	}

	// 2. Raw adjacency
	raw := NewAdjacency(edges)

	// 3. Entry
	entry := selectEntry(nodes, edges)

	// 4. Schedulable nodes
	cg := &CompiledGraph{
		entry:       entry,
		nodeType:    make(map[string]NodeType),
		successors:  make(map[string][]string),
		schedulable: make(map[string]bool),
	}
	for _, n := range nodes {
		fn, ok := reg.Lookup(n.Type)
		if !ok {
			cfg.logger.Warn("node type not registered, node will not run",
				slog.String("node_id", n.ID),
				slog.String("node_type", string(n.Type)))
			continue
		}
		cg.order = append(cg.order, n.ID)
		cg.schedulable[n.ID] = true
		cg.nodeType[n.ID] = n.Type
		if cg.funcs == nil {
			cg.funcs = make(map[string]NodeFunc)
		}
		cg.funcs[n.ID] = fn
		cfg.logger.Debug("scheduled node",
			slog.String("node_id", n.ID),
			slog.String("node_type", string(n.Type)))
	}
	cfg.logger.Debug("entry node selected", slog.String("entry", entry))

	// 5. Pruning runs over the raw adjacency; unknown nodes still count as hops.
	pruned, removed := Prune(raw)
	for _, e := range removed {
		observability.LogEdgePruned(cfg.logger, e.Source, e.Target)
	}
	cg.pruned = removed

	// 6. Restriction
	for _, src := range pruned.Sources() {
		if !cg.schedulable[src] {
			continue
		}
		cg.successors[src] = []string{}
		for _, tgt := range pruned.Targets(src) {
			if !cg.schedulable[tgt] {
				continue
			}
			cg.successors[src] = append(cg.successors[src], tgt)
			cg.edgeCount++
			cfg.logger.Debug("added edge",
				slog.String("source", src),
				slog.String("target", tgt))
		}
	}

	// 7. Exit edges
	for _, id := range cg.order {
		if raw.HasSource(id) {
			continue
		}
		cg.successors[id] = []string{END}
		cfg.logger.Debug("added exit edge", slog.String("node_id", id))
	}

	observability.LogGraphCompiled(cfg.logger, entry, len(cg.order), cg.edgeCount, len(removed))
	return cg, nil
}

// selectEntry returns the first node that is not the target of any edge.
// If every node is a target, the first node is used. Empty input has no entry.
func selectEntry(nodes []Node, edges []Edge) string {
	if len(nodes) == 0 {
		return ""
	}
	targets := make(map[string]bool, len(edges))
	for _, e := range edges {
		targets[e.Target] = true
	}
	for _, n := range nodes {
		if !targets[n.ID] {
			return n.ID
		}
	}
	return nodes[0].ID
}
