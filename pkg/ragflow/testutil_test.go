package ragflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/randalmurphal/ragflow/pkg/ragflow/llm"
	"github.com/randalmurphal/ragflow/pkg/ragflow/retrieval"
	"github.com/randalmurphal/ragflow/pkg/ragflow/search"
)

// quietLogger discards all output.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCtx(opts ...ContextOption) Context {
	return NewContext(context.Background(), append([]ContextOption{WithLogger(quietLogger())}, opts...)...)
}

// node builds a descriptor with a label equal to its ID.
func node(id string, t NodeType) Node {
	return Node{ID: id, Type: t, Data: NodeData{Label: id, Config: map[string]any{}}}
}

func edge(src, tgt string) Edge {
	return Edge{ID: src + "->" + tgt, Source: src, Target: tgt}
}

func edges(pairs ...string) []Edge {
	out := make([]Edge, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, edge(pairs[i], pairs[i+1]))
	}
	return out
}

// fakeGenerator records requests and returns a scripted response.
type fakeGenerator struct {
	mu       sync.Mutex
	requests []llm.GenerateRequest
	respond  func(req llm.GenerateRequest) (string, error)
}

func (g *fakeGenerator) Generate(_ context.Context, req llm.GenerateRequest) (string, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	if g.respond == nil {
		return "generated: " + req.Query, nil
	}
	return g.respond(req)
}

func (g *fakeGenerator) calls() []llm.GenerateRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]llm.GenerateRequest(nil), g.requests...)
}

// failOnRefine succeeds for the main generation and fails the refine pass.
func failOnRefine(req llm.GenerateRequest) (string, error) {
	if req.Prompt == EditorPrompt {
		return "", errors.New("refine unavailable")
	}
	return "raw answer", nil
}

// fakeRetriever returns fixed text per collection.
type fakeRetriever struct {
	mu       sync.Mutex
	docs     map[string]string
	err      error
	requests []retrieval.Request
}

func (r *fakeRetriever) Retrieve(_ context.Context, req retrieval.Request) (string, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	return r.docs[req.Collection], nil
}

// fakeSearcher returns fixed results.
type fakeSearcher struct {
	results []search.Result
	keys    []string
}

func (s *fakeSearcher) Search(_ context.Context, apiKey, _ string) []search.Result {
	s.keys = append(s.keys, apiKey)
	return s.results
}

// trackingNode records its ID and passes the state through.
func trackingNode(tracker *[]string) NodeFunc {
	return func(ctx Context, s State) (Update, error) {
		*tracker = append(*tracker, ctx.NodeID())
		return Update{}, nil
	}
}
