// Package registry provides a thread-safe table of values indexed by an
// ordered key.
//
// ragflow uses it to map node type tags to node behaviors:
//
//	r := registry.New[ragflow.NodeType, ragflow.NodeFunc]()
//	r.Register(ragflow.TypeOutput, outputNode)
//
//	fn, ok := r.Get(ragflow.TypeOutput)
//
// Clone takes an independent copy, so a shared default table can be
// extended per engine without affecting other users.
package registry
