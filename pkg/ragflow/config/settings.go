package config

import (
	"os"
	"strconv"
	"time"
)

// Vector store backends understood by Settings.VectorStore.
const (
	VectorStoreSQLite   = "sqlite"
	VectorStorePGVector = "pgvector"
)

// Settings holds process-level configuration for the CLI and HTTP server.
// Per-run provider credentials travel in node configs instead; these keys
// are only fallbacks.
type Settings struct {
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	SerpAPIKey     string
	VectorStore    string
	SQLitePath     string
	DatabaseURL    string
	RedisURL       string
	SearchCacheTTL time.Duration
	ListenAddr     string
	RequestTimeout time.Duration

	// GenerationMaxAttempts bounds provider calls per generation.
	// 1 means no retry.
	GenerationMaxAttempts int
}

// DefaultSettings returns the settings used when neither a file nor the
// environment provides a value.
func DefaultSettings() Settings {
	return Settings{
		OpenAIBaseURL:  "https://api.openai.com/v1",
		VectorStore:    VectorStoreSQLite,
		SQLitePath:     "ragflow.db",
		SearchCacheTTL: 10 * time.Minute,
		ListenAddr:     ":8080",
		RequestTimeout: 2 * time.Minute,

		GenerationMaxAttempts: 1,
	}
}

// LoadSettings builds Settings from defaults, then the optional file at
// path (YAML or JSON), then environment variables. Later layers win.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	if path != "" {
		cfg, err := FromFile(path)
		if err != nil {
			return s, err
		}
		s = s.apply(cfg)
	}

	return s.applyEnv(os.LookupEnv), nil
}

func (s Settings) apply(cfg Config) Settings {
	s.OpenAIAPIKey = cfg.String("openai_api_key", s.OpenAIAPIKey)
	s.OpenAIBaseURL = cfg.String("openai_base_url", s.OpenAIBaseURL)
	s.SerpAPIKey = cfg.String("serpapi_api_key", s.SerpAPIKey)
	s.VectorStore = cfg.String("vector_store", s.VectorStore)
	s.SQLitePath = cfg.String("sqlite_path", s.SQLitePath)
	s.DatabaseURL = cfg.String("database_url", s.DatabaseURL)
	s.RedisURL = cfg.String("redis_url", s.RedisURL)
	s.SearchCacheTTL = cfg.Duration("search_cache_ttl", s.SearchCacheTTL)
	s.ListenAddr = cfg.String("listen_addr", s.ListenAddr)
	s.RequestTimeout = cfg.Duration("request_timeout", s.RequestTimeout)
	s.GenerationMaxAttempts = cfg.Int("generation_max_attempts", s.GenerationMaxAttempts)
	return s
}

func (s Settings) applyEnv(lookup func(string) (string, bool)) Settings {
	env := map[string]*string{
		"OPENAI_API_KEY":       &s.OpenAIAPIKey,
		"OPENAI_BASE_URL":      &s.OpenAIBaseURL,
		"SERPAPI_API_KEY":      &s.SerpAPIKey,
		"RAGFLOW_VECTOR_STORE": &s.VectorStore,
		"RAGFLOW_SQLITE_PATH":  &s.SQLitePath,
		"DATABASE_URL":         &s.DatabaseURL,
		"REDIS_URL":            &s.RedisURL,
		"RAGFLOW_ADDR":         &s.ListenAddr,
	}
	for key, dst := range env {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	if v, ok := lookup("RAGFLOW_SEARCH_CACHE_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			s.SearchCacheTTL = d
		}
	}
	if v, ok := lookup("RAGFLOW_GENERATION_MAX_ATTEMPTS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.GenerationMaxAttempts = n
		}
	}
	return s
}
