package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// DefaultK is the number of chunks returned per query.
const DefaultK = 5

// Request describes one retrieval against a collection.
type Request struct {
	Collection        string
	EmbeddingProvider string
	EmbeddingModel    string
	APIKey            string
	Query             string
	// K defaults to DefaultK when zero.
	K int
}

// Retriever returns document context for a query.
//
// A collection that does not exist yields "" and no error. Any other failure
// is returned so the caller can decide how to degrade.
type Retriever interface {
	Retrieve(ctx context.Context, req Request) (string, error)
}

// IndexRequest describes text to split, embed and store.
type IndexRequest struct {
	Collection        string
	EmbeddingProvider string
	EmbeddingModel    string
	APIKey            string
	Source            string
	Text              string
}

// Service implements Retriever over a Store and an EmbedderFactory.
type Service struct {
	store    Store
	embedder EmbedderFactory
	splitter Splitter
	logger   *slog.Logger
}

var _ Retriever = (*Service)(nil)

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithSplitter sets the splitter used by Index.
func WithSplitter(sp Splitter) ServiceOption {
	return func(s *Service) { s.splitter = sp }
}

// NewService creates a retrieval Service.
func NewService(store Store, embedder EmbedderFactory, opts ...ServiceOption) *Service {
	s := &Service{
		store:    store,
		embedder: embedder,
		splitter: DefaultSplitter(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retrieve implements Retriever. Matching chunks are joined by a blank line.
func (s *Service) Retrieve(ctx context.Context, req Request) (string, error) {
	if req.Collection == "" {
		return "", errors.New("collection name is required")
	}
	provider, model := withDefaults(req.EmbeddingProvider, req.EmbeddingModel)
	k := req.K
	if k <= 0 {
		k = DefaultK
	}

	exists, err := s.store.Exists(ctx, req.Collection)
	if err != nil {
		return "", err
	}
	if !exists {
		s.logger.Debug("collection not found", slog.String("collection", req.Collection))
		return "", nil
	}

	embedder, err := s.embedder(provider, req.APIKey)
	if err != nil {
		return "", err
	}
	vectors, err := embedder.Embed(ctx, model, []string{req.Query})
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return "", fmt.Errorf("embed query: got %d vectors", len(vectors))
	}

	matches, err := s.store.Search(ctx, req.Collection, vectors[0], k)
	if err != nil {
		return "", fmt.Errorf("search %q: %w", req.Collection, err)
	}

	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = m.Content
	}
	s.logger.Debug("retrieved context",
		slog.String("collection", req.Collection),
		slog.Int("chunks", len(matches)),
	)
	return strings.Join(parts, "\n\n"), nil
}

// Index splits req.Text, embeds the chunks and appends them to the
// collection. It returns the number of chunks stored.
func (s *Service) Index(ctx context.Context, req IndexRequest) (int, error) {
	if req.Collection == "" {
		return 0, errors.New("collection name is required")
	}
	provider, model := withDefaults(req.EmbeddingProvider, req.EmbeddingModel)

	texts := s.splitter.Split(req.Text)
	if len(texts) == 0 {
		return 0, nil
	}

	embedder, err := s.embedder(provider, req.APIKey)
	if err != nil {
		return 0, err
	}
	vectors, err := embedder.Embed(ctx, model, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vectors), len(texts))
	}

	chunks := make([]Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = Chunk{Source: req.Source, Content: text, Embedding: vectors[i]}
	}
	if err := s.store.Add(ctx, req.Collection, chunks); err != nil {
		return 0, err
	}

	s.logger.Info("indexed document",
		slog.String("collection", req.Collection),
		slog.String("source", req.Source),
		slog.Int("chunks", len(chunks)),
	)
	return len(chunks), nil
}

// DeleteCollection removes a collection from the underlying store.
func (s *Service) DeleteCollection(ctx context.Context, collection string) error {
	return s.store.DeleteCollection(ctx, collection)
}

func withDefaults(provider, model string) (string, string) {
	if provider == "" {
		provider = ProviderOpenAI
	}
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return provider, model
}
