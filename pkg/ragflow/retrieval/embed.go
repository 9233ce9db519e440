package retrieval

import (
	"context"
	"errors"
	"fmt"

	"github.com/randalmurphal/ragflow/pkg/ragflow/llm"
)

// Embedding defaults.
const (
	ProviderOpenAI        = "openai"
	DefaultEmbeddingModel = "text-embedding-3-small"
)

// ErrUnsupportedProvider is returned for embedding providers other than openai.
var ErrUnsupportedProvider = errors.New("unsupported embedding provider")

var dimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Dimension returns the vector length produced by model. Unknown models
// report 1536.
func Dimension(model string) int {
	if d, ok := dimensions[model]; ok {
		return d
	}
	return 1536
}

// Embedder turns texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, model string, inputs []string) ([][]float32, error)
}

// EmbedderFactory returns an Embedder for a provider and API key.
type EmbedderFactory func(provider, apiKey string) (Embedder, error)

// NewOpenAIEmbedderFactory returns an EmbedderFactory for the openai provider.
// defaultKey is used when a request carries no key of its own.
func NewOpenAIEmbedderFactory(defaultKey string, opts ...llm.OpenAIOption) EmbedderFactory {
	return func(provider, apiKey string) (Embedder, error) {
		if provider != ProviderOpenAI {
			return nil, fmt.Errorf("%w: %s. Only OpenAI is supported", ErrUnsupportedProvider, provider)
		}
		if apiKey == "" {
			apiKey = defaultKey
		}
		if apiKey == "" {
			return nil, llm.ErrMissingAPIKey
		}
		return llm.NewOpenAI(apiKey, opts...), nil
	}
}

// StaticEmbedder returns an EmbedderFactory that serves e for every provider.
func StaticEmbedder(e Embedder) EmbedderFactory {
	return func(string, string) (Embedder, error) { return e, nil }
}
