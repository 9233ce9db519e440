package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/randalmurphal/ragflow/pkg/ragflow/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
	}{
		{"nil map", nil},
		{"empty map", map[string]any{}},
		{"with values", map[string]any{"collection_name": "docs"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(tt.data)
			assert.NotNil(t, cfg.Raw())
		})
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		name       string
		data       map[string]any
		key        string
		defaultVal string
		want       string
	}{
		{"key exists", map[string]any{"model": "gpt-4o"}, "model", "gpt-4o-mini", "gpt-4o"},
		{"key missing", map[string]any{"other": "value"}, "model", "gpt-4o-mini", "gpt-4o-mini"},
		{"empty string", map[string]any{"model": ""}, "model", "gpt-4o-mini", ""},
		{"explicit null", map[string]any{"model": nil}, "model", "gpt-4o-mini", "gpt-4o-mini"},
		{"wrong type int", map[string]any{"model": 123}, "model", "default", "default"},
		{"wrong type bool", map[string]any{"model": true}, "model", "default", "default"},
		{"nil map", nil, "model", "default", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(tt.data)
			assert.Equal(t, tt.want, cfg.String(tt.key, tt.defaultVal))
		})
	}
}

func TestBool(t *testing.T) {
	tests := []struct {
		name       string
		value      any
		defaultVal bool
		want       bool
	}{
		{"true", true, false, true},
		{"false", false, true, false},
		{"string true", "true", false, true},
		{"string FALSE", "FALSE", true, false},
		{"garbage string", "maybe", true, true},
		{"number", 1, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"use_web_search": tt.value})
			assert.Equal(t, tt.want, cfg.Bool("use_web_search", tt.defaultVal))
		})
	}

	assert.True(t, config.New(nil).Bool("missing", true))
}

func TestFloat(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  float64
	}{
		{"float64", 0.2, 0.2},
		{"int", 1, 1},
		{"int64", int64(2), 2},
		{"numeric string", "0.35", 0.35},
		{"bad string", "hot", 0.7},
		{"bool", true, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"temperature": tt.value})
			assert.InDelta(t, tt.want, cfg.Float("temperature", 0.7), 1e-9)
		})
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int
	}{
		{"int", 5, 5},
		{"int64", int64(7), 7},
		{"whole float", float64(3), 3},
		{"fractional float", 3.5, -1},
		{"string", "5", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"k": tt.value})
			assert.Equal(t, tt.want, cfg.Int("k", -1))
		})
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  time.Duration
	}{
		{"string", "30s", 30 * time.Second},
		{"complex string", "1h30m", 90 * time.Minute},
		{"int seconds", 5, 5 * time.Second},
		{"float seconds", 1.5, 1500 * time.Millisecond},
		{"duration", 2 * time.Minute, 2 * time.Minute},
		{"invalid string", "soon", time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"ttl": tt.value})
			assert.Equal(t, tt.want, cfg.Duration("ttl", time.Second))
		})
	}
}

func TestSection(t *testing.T) {
	cfg := config.New(map[string]any{
		"llmEngine": map[string]any{"model": "gpt-4o"},
		"scalar":    "x",
	})

	assert.Equal(t, "gpt-4o", cfg.Section("llmEngine").String("model", ""))
	assert.False(t, cfg.Section("scalar").Has("model"))
	assert.False(t, cfg.Section("missing").Has("model"))
	assert.NotNil(t, cfg.Section("missing").Raw())
}

func TestFromYAML(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
openai_api_key: sk-test
search_cache_ttl: 5m
nested:
  port: 5432
`))
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.String("openai_api_key", ""))
	assert.Equal(t, 5*time.Minute, cfg.Duration("search_cache_ttl", 0))
	assert.Equal(t, 5432, cfg.Section("nested").Int("port", 0))

	_, err = config.FromYAML([]byte(`invalid: yaml: content:`))
	assert.Error(t, err)
}

func TestFromJSON(t *testing.T) {
	cfg, err := config.FromJSON([]byte(`{"count": 100, "enabled": false}`))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Int("count", 0))
	assert.False(t, cfg.Bool("enabled", true))

	_, err = config.FromJSON([]byte(`{invalid json}`))
	assert.Error(t, err)
}

func TestFromFile(t *testing.T) {
	tmpDir := t.TempDir()

	yamlPath := filepath.Join(tmpDir, "settings.YAML")
	require.NoError(t, os.WriteFile(yamlPath, []byte("name: fromyaml"), 0o644))

	jsonPath := filepath.Join(tmpDir, "settings.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"name": "fromjson"}`), 0o644))

	txtPath := filepath.Join(tmpDir, "settings.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("content"), 0o644))

	cfg, err := config.FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "fromyaml", cfg.String("name", ""))

	cfg, err = config.FromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "fromjson", cfg.String("name", ""))

	_, err = config.FromFile(txtPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config file extension")

	_, err = config.FromFile(filepath.Join(tmpDir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestYAMLToJSON(t *testing.T) {
	out, err := config.YAMLToJSON([]byte(`
nodes:
  - id: "1"
    type: userQuery
`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"nodes":[{"id":"1","type":"userQuery"}]}`, string(out))
}

func TestLoadSettings(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")
		t.Setenv("RAGFLOW_GENERATION_MAX_ATTEMPTS", "")
		s, err := config.LoadSettings("")
		require.NoError(t, err)
		assert.Equal(t, config.VectorStoreSQLite, s.VectorStore)
		assert.Equal(t, ":8080", s.ListenAddr)
		assert.Equal(t, 10*time.Minute, s.SearchCacheTTL)
		assert.Equal(t, 1, s.GenerationMaxAttempts)
	})

	t.Run("file then env", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ragflow.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
openai_api_key: from-file
vector_store: pgvector
search_cache_ttl: 30s
listen_addr: ":9000"
`), 0o644))
		t.Setenv("OPENAI_API_KEY", "from-env")
		t.Setenv("RAGFLOW_ADDR", "")

		s, err := config.LoadSettings(path)
		require.NoError(t, err)
		assert.Equal(t, "from-env", s.OpenAIAPIKey)
		assert.Equal(t, config.VectorStorePGVector, s.VectorStore)
		assert.Equal(t, 30*time.Second, s.SearchCacheTTL)
		assert.Equal(t, ":9000", s.ListenAddr)
	})

	t.Run("generation retries are opt in", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ragflow.yaml")
		require.NoError(t, os.WriteFile(path, []byte("generation_max_attempts: 3\n"), 0o644))
		t.Setenv("RAGFLOW_GENERATION_MAX_ATTEMPTS", "")

		s, err := config.LoadSettings(path)
		require.NoError(t, err)
		assert.Equal(t, 3, s.GenerationMaxAttempts)

		t.Setenv("RAGFLOW_GENERATION_MAX_ATTEMPTS", "5")
		s, err = config.LoadSettings(path)
		require.NoError(t, err)
		assert.Equal(t, 5, s.GenerationMaxAttempts)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
