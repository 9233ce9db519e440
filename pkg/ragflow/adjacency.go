package ragflow

import "slices"

// Adjacency maps each source node to its ordered target list. Sources keep
// the order in which they first appear, and duplicate targets are kept.
type Adjacency struct {
	order   []string
	targets map[string][]string
}

// NewAdjacency builds an adjacency from edges in input order.
func NewAdjacency(edges []Edge) Adjacency {
	a := Adjacency{targets: make(map[string][]string)}
	for _, e := range edges {
		a.add(e.Source, e.Target)
	}
	return a
}

func (a *Adjacency) add(source, target string) {
	if a.targets == nil {
		a.targets = make(map[string][]string)
	}
	if _, ok := a.targets[source]; !ok {
		a.order = append(a.order, source)
	}
	a.targets[source] = append(a.targets[source], target)
}

// Sources returns the source IDs in first-appearance order.
func (a Adjacency) Sources() []string {
	return slices.Clone(a.order)
}

// Targets returns the targets of source in order.
func (a Adjacency) Targets(source string) []string {
	return slices.Clone(a.targets[source])
}

// HasSource reports whether source appears as an edge source, even if all
// of its targets were later removed.
func (a Adjacency) HasSource(source string) bool {
	_, ok := a.targets[source]
	return ok
}

// Map returns a copy as a plain map. Sources with no targets map to an
// empty slice.
func (a Adjacency) Map() map[string][]string {
	m := make(map[string][]string, len(a.order))
	for _, src := range a.order {
		m[src] = append([]string{}, a.targets[src]...)
	}
	return m
}

// EdgeCount returns the number of source/target pairs.
func (a Adjacency) EdgeCount() int {
	n := 0
	for _, ts := range a.targets {
		n += len(ts)
	}
	return n
}

func (a Adjacency) clone() Adjacency {
	c := Adjacency{
		order:   slices.Clone(a.order),
		targets: make(map[string][]string, len(a.targets)),
	}
	for src, ts := range a.targets {
		c.targets[src] = slices.Clone(ts)
	}
	return c
}

// hasPath reports whether end is reachable from start. A node always
// reaches itself.
func (a Adjacency) hasPath(start, end string) bool {
	queue := []string{start}
	visited := make(map[string]bool)

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if node == end {
			return true
		}
		if visited[node] {
			continue
		}
		visited[node] = true
		queue = append(queue, a.targets[node]...)
	}
	return false
}

// PrunedEdge is an edge removed by Prune.
type PrunedEdge struct {
	Source string
	Target string
}

// Prune removes edges implied by a longer path.
//
// Edges are visited once, sources in first-appearance order and targets in
// list order. Each edge is taken out of a working copy; if its target is
// still reachable from its source it stays out, otherwise it is appended
// back to the end of the source's list. The pass is not repeated, so the
// result depends on edge order and may keep edges that a later removal
// made redundant. A self-loop is always removed.
func Prune(a Adjacency) (Adjacency, []PrunedEdge) {
	work := a.clone()
	var pruned []PrunedEdge

	for _, src := range a.order {
		for _, tgt := range a.targets[src] {
			idx := slices.Index(work.targets[src], tgt)
			if idx < 0 {
				continue
			}
			work.targets[src] = slices.Delete(work.targets[src], idx, idx+1)

			if work.hasPath(src, tgt) {
				pruned = append(pruned, PrunedEdge{Source: src, Target: tgt})
				continue
			}
			work.targets[src] = append(work.targets[src], tgt)
		}
	}
	return work, pruned
}
