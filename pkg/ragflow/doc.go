// Package ragflow compiles and runs retrieval-augmented generation
// workflows described as node and edge lists.
//
// A workflow is a small directed graph of typed nodes: userQuery,
// knowledgeBase, llmEngine and output. Compile infers the entry node,
// removes edges implied by longer paths, drops nodes whose type is not
// registered and wires leaf nodes to END. Run walks the result from the
// entry, merging each node's Update into a shared State.
//
// # Quick Start
//
//	gen := llm.NewChatGenerator(llm.NewOpenAIFactory(os.Getenv("OPENAI_API_KEY")))
//	engine := ragflow.NewEngine(ragflow.WithEngineGenerator(gen))
//
//	nodes, _ := ragflow.ParseNodes(nodesJSON)
//	edges, _ := ragflow.ParseEdges(edgesJSON)
//	answer := engine.Execute(ctx, nodes, edges, "What is in the report?",
//	    ragflow.NodeConfigsFromNodes(nodes))
//
// # Failure Handling
//
// Built-in nodes never abort a run. A failed retrieval nulls the context, a
// failed generation nulls the response, and both record the message in
// State.Error, which the output node renders as "Error: <message>".
// Errors returned by custom nodes, panics, cancellation and the iteration
// limit abort the run; Engine.Execute renders them as
// "Workflow execution error: <message>".
//
// # Collaborators
//
// Nodes reach external services through the Context: a retrieval.Retriever,
// an llm.Generator and a search.Searcher. The Engine injects them; nodes
// never construct clients themselves.
package ragflow
