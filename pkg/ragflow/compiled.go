package ragflow

import "slices"

// CompiledGraph is an executable workflow produced by Compile.
//
// A CompiledGraph is not modified after compilation and may be run
// concurrently, but it is cheap to build and is normally compiled fresh for
// each execution.
type CompiledGraph struct {
	entry       string
	order       []string
	schedulable map[string]bool
	nodeType    map[string]NodeType
	funcs       map[string]NodeFunc
	successors  map[string][]string
	pruned      []PrunedEdge
	edgeCount   int
}

// Entry returns the entry node ID. It may be empty or name a node that is
// not schedulable; running such a graph does nothing.
func (cg *CompiledGraph) Entry() string {
	return cg.entry
}

// NodeIDs returns the schedulable node IDs in input order.
func (cg *CompiledGraph) NodeIDs() []string {
	return slices.Clone(cg.order)
}

// Schedulable reports whether id names a node with a registered type.
func (cg *CompiledGraph) Schedulable(id string) bool {
	return cg.schedulable[id]
}

// NodeType returns the type of a schedulable node.
func (cg *CompiledGraph) NodeType(id string) (NodeType, bool) {
	t, ok := cg.nodeType[id]
	return t, ok
}

// Successors returns the targets of id in execution order. Exit nodes
// return []string{END}. Returns nil for END and for unscheduled nodes.
func (cg *CompiledGraph) Successors(id string) []string {
	if id == END {
		return nil
	}
	return slices.Clone(cg.successors[id])
}

// Adjacency returns the compiled adjacency without exit edges.
// Sources whose only successor is END are omitted.
func (cg *CompiledGraph) Adjacency() map[string][]string {
	adj := make(map[string][]string)
	for _, id := range cg.order {
		succ, ok := cg.successors[id]
		if !ok {
			continue
		}
		targets := make([]string, 0, len(succ))
		for _, t := range succ {
			if t != END {
				targets = append(targets, t)
			}
		}
		if len(targets) == 0 && slices.Contains(succ, END) {
			continue
		}
		adj[id] = targets
	}
	return adj
}

// IsExit reports whether id is wired to END.
func (cg *CompiledGraph) IsExit(id string) bool {
	return slices.Contains(cg.successors[id], END)
}

// Pruned returns the edges removed as redundant, in removal order.
func (cg *CompiledGraph) Pruned() []PrunedEdge {
	return slices.Clone(cg.pruned)
}

func (cg *CompiledGraph) getNode(id string) (NodeFunc, bool) {
	fn, ok := cg.funcs[id]
	return fn, ok
}
