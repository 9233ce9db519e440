// Package llm provides the text-generation clients used by workflow nodes.
//
// A Client performs a single chat completion. OpenAI implements Client over
// the chat completions HTTP API and also produces embeddings for retrieval.
// MockClient is a scripted Client for tests.
//
// Generator sits on top of a Client and builds the document-first system
// prompt that llmEngine and output nodes rely on:
//
//	gen := llm.NewChatGenerator(llm.NewOpenAIFactory("sk-default"))
//	text, err := gen.Generate(ctx, llm.GenerateRequest{
//	    Provider: "openai",
//	    Model:    "gpt-4o-mini",
//	    Query:    "What skills does the candidate have?",
//	    Context:  retrievedChunks,
//	})
package llm
