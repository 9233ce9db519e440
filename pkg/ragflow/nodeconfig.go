package ragflow

import (
	"github.com/randalmurphal/ragflow/pkg/ragflow/config"
	"github.com/randalmurphal/ragflow/pkg/ragflow/llm"
	"github.com/randalmurphal/ragflow/pkg/ragflow/retrieval"
)

// Defaults applied to missing node configuration keys.
const (
	DefaultLLMModel       = "gpt-4o-mini"
	DefaultTemperature    = 0.7
	DefaultEmbeddingModel = retrieval.DefaultEmbeddingModel
)

// KnowledgeBaseConfig is the knowledgeBase section of NodeConfigs.
type KnowledgeBaseConfig struct {
	CollectionName    string
	EmbeddingProvider string
	EmbeddingModel    string
	APIKey            string
	// FilePath is the document the collection was built from. Informational.
	FilePath string
}

// KnowledgeBaseConfigFrom reads a knowledgeBase section, applying defaults.
func KnowledgeBaseConfigFrom(cfg config.Config) KnowledgeBaseConfig {
	return KnowledgeBaseConfig{
		CollectionName:    cfg.String("collection_name", ""),
		EmbeddingProvider: cfg.String("embedding_provider", retrieval.ProviderOpenAI),
		EmbeddingModel:    cfg.String("embedding_model", DefaultEmbeddingModel),
		APIKey:            cfg.String("api_key", ""),
		FilePath:          cfg.String("file_path", ""),
	}
}

// LLMEngineConfig is the llmEngine section of NodeConfigs.
type LLMEngineConfig struct {
	Provider     string
	Model        string
	APIKey       string
	Prompt       string
	Temperature  float64
	UseWebSearch bool
	SerpAPIKey   string
}

// LLMEngineConfigFrom reads an llmEngine section, applying defaults.
func LLMEngineConfigFrom(cfg config.Config) LLMEngineConfig {
	return LLMEngineConfig{
		Provider:     cfg.String("provider", llm.ProviderOpenAI),
		Model:        cfg.String("model", DefaultLLMModel),
		APIKey:       cfg.String("api_key", ""),
		Prompt:       cfg.String("prompt", ""),
		Temperature:  cfg.Float("temperature", DefaultTemperature),
		UseWebSearch: cfg.Bool("use_web_search", false),
		SerpAPIKey:   cfg.String("serpapi_key", ""),
	}
}
