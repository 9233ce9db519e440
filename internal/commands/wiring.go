package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/ragflow/pkg/ragflow"
	"github.com/randalmurphal/ragflow/pkg/ragflow/config"
	"github.com/randalmurphal/ragflow/pkg/ragflow/llm"
	"github.com/randalmurphal/ragflow/pkg/ragflow/retrieval"
	"github.com/randalmurphal/ragflow/pkg/ragflow/search"
)

// services holds the collaborators built from Settings.
type services struct {
	retrieval *retrieval.Service
	generator llm.Generator
	searcher  search.Searcher

	closers []func() error
}

func (s *services) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openStore opens the vector store named by settings.
func openStore(ctx context.Context, s config.Settings) (retrieval.Store, error) {
	switch s.VectorStore {
	case config.VectorStoreSQLite, "":
		store, err := retrieval.NewSQLiteStore(s.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.VectorStorePGVector:
		if s.DatabaseURL == "" {
			return nil, fmt.Errorf("vector_store %q requires database_url", s.VectorStore)
		}
		store, err := retrieval.NewPGVectorStore(ctx, s.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported vector store: %s (use %q or %q)",
			s.VectorStore, config.VectorStoreSQLite, config.VectorStorePGVector)
	}
}

// buildServices wires stores, clients and caches from settings.
func buildServices(ctx context.Context, s config.Settings, logger *slog.Logger) (*services, error) {
	svc := &services{}

	store, err := openStore(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	svc.closers = append(svc.closers, store.Close)

	openaiOpts := []llm.OpenAIOption{llm.WithBaseURL(s.OpenAIBaseURL)}
	svc.retrieval = retrieval.NewService(store,
		retrieval.NewOpenAIEmbedderFactory(s.OpenAIAPIKey, openaiOpts...),
		retrieval.WithLogger(logger))
	svc.generator = llm.NewChatGenerator(
		llm.RetryFactory(llm.NewOpenAIFactory(s.OpenAIAPIKey, openaiOpts...), generationRetry(s)))

	var searcher search.Searcher = search.NewSerpAPI(
		search.WithDefaultKey(s.SerpAPIKey),
		search.WithLogger(logger),
	)
	if s.RedisURL != "" {
		client, err := search.NewRedisClient(ctx, s.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, search cache disabled", slog.String("error", err.Error()))
		} else {
			svc.closers = append(svc.closers, client.Close)
			searcher = search.NewCached(searcher, search.NewRedisCache(client), s.SearchCacheTTL, logger)
		}
	}
	svc.searcher = searcher

	return svc, nil
}

func (s *services) engine(logger *slog.Logger, opts ...ragflow.EngineOption) *ragflow.Engine {
	base := []ragflow.EngineOption{
		ragflow.WithEngineLogger(logger),
		ragflow.WithEngineRetriever(s.retrieval),
		ragflow.WithEngineGenerator(s.generator),
		ragflow.WithEngineSearcher(s.searcher),
	}
	return ragflow.NewEngine(append(base, opts...)...)
}

// generationRetry returns NoRetry unless settings ask for more than one attempt.
func generationRetry(s config.Settings) llm.RetryConfig {
	if s.GenerationMaxAttempts <= 1 {
		return llm.NoRetry
	}
	cfg := llm.DefaultRetry
	cfg.MaxAttempts = s.GenerationMaxAttempts
	return cfg
}
