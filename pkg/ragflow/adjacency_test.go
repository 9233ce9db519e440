package ragflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAdjacency_OrderAndDuplicates(t *testing.T) {
	a := NewAdjacency(edges("B", "C", "A", "B", "B", "D", "A", "B"))

	assert.Equal(t, []string{"B", "A"}, a.Sources())
	assert.Equal(t, []string{"C", "D"}, a.Targets("B"))
	assert.Equal(t, []string{"B", "B"}, a.Targets("A"))
	assert.Equal(t, 4, a.EdgeCount())
	assert.True(t, a.HasSource("A"))
	assert.False(t, a.HasSource("C"))
}

func TestAdjacency_HasPath(t *testing.T) {
	a := NewAdjacency(edges("A", "B", "B", "C", "D", "A"))

	tests := []struct {
		start, end string
		want       bool
	}{
		{"A", "C", true},
		{"D", "C", true},
		{"C", "A", false},
		{"A", "D", false},
		{"A", "A", true},
		{"Z", "Z", true},
	}

	for _, tt := range tests {
		t.Run(tt.start+"->"+tt.end, func(t *testing.T) {
			assert.Equal(t, tt.want, a.hasPath(tt.start, tt.end))
		})
	}
}

func TestPrune_TransitiveEdgeRemoved(t *testing.T) {
	pruned, removed := Prune(NewAdjacency(edges("A", "B", "B", "C", "A", "C")))

	assert.Equal(t, map[string][]string{"A": {"B"}, "B": {"C"}}, pruned.Map())
	assert.Equal(t, []PrunedEdge{{Source: "A", Target: "C"}}, removed)
}

func TestPrune_Idempotent(t *testing.T) {
	inputs := [][]Edge{
		edges("A", "B", "B", "C", "A", "C"),
		edges("A", "B", "A", "C", "B", "D", "C", "D", "A", "D"),
		edges("1", "2", "2", "3", "3", "4", "1", "4", "1", "3"),
		edges("A", "B", "A", "B", "A", "A"),
	}

	for _, in := range inputs {
		once, _ := Prune(NewAdjacency(in))
		twice, removed := Prune(once)

		assert.Equal(t, once.Map(), twice.Map())
		assert.Empty(t, removed)
	}
}

func TestPrune_DoesNotModifyInput(t *testing.T) {
	raw := NewAdjacency(edges("A", "B", "B", "C", "A", "C"))
	_, _ = Prune(raw)

	assert.Equal(t, []string{"B", "C"}, raw.Targets("A"))
}

func TestPrune_KeepsTargetOrder(t *testing.T) {
	pruned, removed := Prune(NewAdjacency(edges("A", "B", "A", "C")))

	assert.Equal(t, []string{"B", "C"}, pruned.Targets("A"))
	assert.Empty(t, removed)

	pruned, _ = Prune(NewAdjacency(edges("A", "B", "A", "C", "B", "C")))
	assert.Equal(t, []string{"B"}, pruned.Targets("A"))
}

func TestPrune_DuplicateEdgeCollapses(t *testing.T) {
	pruned, removed := Prune(NewAdjacency(edges("A", "B", "A", "B")))

	assert.Equal(t, []string{"B"}, pruned.Targets("A"))
	assert.Equal(t, []PrunedEdge{{Source: "A", Target: "B"}}, removed)
}

func TestPrune_SelfLoopRemoved(t *testing.T) {
	pruned, removed := Prune(NewAdjacency(edges("A", "A", "A", "B")))

	assert.Equal(t, []string{"B"}, pruned.Targets("A"))
	assert.Equal(t, []PrunedEdge{{Source: "A", Target: "A"}}, removed)
}

func TestPrune_OrderDependent(t *testing.T) {
	forward, _ := Prune(NewAdjacency(edges("A", "B", "B", "A", "A", "C", "B", "C")))
	backward, _ := Prune(NewAdjacency(edges("B", "A", "A", "B", "B", "C", "A", "C")))

	assert.Equal(t, map[string][]string{"A": {"B"}, "B": {"A", "C"}}, forward.Map())
	assert.Equal(t, map[string][]string{"B": {"A"}, "A": {"B", "C"}}, backward.Map())
}

func TestPrune_SourceKeptWhenAllTargetsRemoved(t *testing.T) {
	pruned, _ := Prune(NewAdjacency(edges("A", "A")))

	assert.True(t, pruned.HasSource("A"))
	assert.Empty(t, pruned.Targets("A"))
	assert.Equal(t, map[string][]string{"A": {}}, pruned.Map())
}
