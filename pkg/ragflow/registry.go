package ragflow

import (
	"github.com/randalmurphal/ragflow/pkg/ragflow/registry"
)

// Registry maps node type tags to node behaviors. A type that is not
// registered is never scheduled. It is safe for concurrent use.
type Registry struct {
	table *registry.Registry[NodeType, NodeFunc]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{table: registry.New[NodeType, NodeFunc]()}
}

// DefaultRegistry returns a new registry holding the four built-in
// behaviors: userQuery, knowledgeBase, llmEngine and output.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(TypeUserQuery, UserQueryNode)
	r.Register(TypeKnowledgeBase, KnowledgeBaseNode)
	r.Register(TypeLLMEngine, LLMEngineNode)
	r.Register(TypeOutput, OutputNode)
	return r
}

// Register adds or replaces the behavior for a type.
func (r *Registry) Register(t NodeType, fn NodeFunc) *Registry {
	r.table.Register(t, fn)
	return r
}

// Lookup returns the behavior for a type.
func (r *Registry) Lookup(t NodeType) (NodeFunc, bool) {
	return r.table.Get(t)
}

// Has reports whether a type is schedulable.
func (r *Registry) Has(t NodeType) bool {
	return r.table.Has(t)
}

// Types returns the registered types in ascending order.
func (r *Registry) Types() []NodeType {
	return r.table.Keys()
}

// Clone returns an independent copy.
func (r *Registry) Clone() *Registry {
	return &Registry{table: r.table.Clone()}
}
