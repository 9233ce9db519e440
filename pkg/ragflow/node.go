package ragflow

// END is the terminal node identifier.
// Every schedulable node without an outgoing edge is wired to END.
const END = "__end__"

// NodeType tags a node descriptor with its behavior.
type NodeType string

// Built-in node types.
const (
	TypeUserQuery     NodeType = "userQuery"
	TypeKnowledgeBase NodeType = "knowledgeBase"
	TypeLLMEngine     NodeType = "llmEngine"
	TypeOutput        NodeType = "output"
)

// NodeFunc is the signature for all node behaviors.
// Nodes receive the execution context and the accumulated state and return
// a partial update. The executor merges the update into the state.
//
// Returning an error aborts the run. Built-in nodes absorb collaborator
// failures into the update instead.
//
// Example:
//
//	func shout(ctx ragflow.Context, s ragflow.State) (ragflow.Update, error) {
//	    return ragflow.Update{}.WithQuery(strings.ToUpper(s.Query)), nil
//	}
type NodeFunc func(ctx Context, s State) (Update, error)
