package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultindex/vaultindex/internal/errors"
)

func writeConfigFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, 1500, cfg.Chunking.ChunkSize)
	assert.Equal(t, 150, cfg.Chunking.ChunkOverlap)
	assert.Equal(t, 50, cfg.Chunking.MinSection)

	assert.Equal(t, "localhost", cfg.Qdrant.Host)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
	assert.Equal(t, "vault", cfg.Qdrant.Collection)
	assert.Equal(t, "cosine", cfg.Qdrant.Metric)
	assert.False(t, cfg.Qdrant.UseTLS)

	assert.Equal(t, "static", cfg.Embeddings.Provider)
	assert.Empty(t, cfg.Embeddings.Model)

	assert.Equal(t, 100, cfg.Import.BatchSize)
	assert.Equal(t, 4, cfg.Import.Workers)

	assert.Equal(t, "500ms", cfg.Watch.Debounce)
	assert.Equal(t, "5s", cfg.Watch.PollInterval)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, NewConfig().Chunking, cfg.Chunking)
	assert.Equal(t, "vault", cfg.Qdrant.Collection)
}

func TestLoad_ReadsVaultYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, ".vaultindex.yaml", `
chunking:
  chunk_size: 800
qdrant:
  collection: research
embeddings:
  provider: ollama
  model: nomic-embed-text
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 800, cfg.Chunking.ChunkSize)
	assert.Equal(t, "research", cfg.Qdrant.Collection)
	assert.Equal(t, "ollama", cfg.Embeddings.Provider)
	assert.Equal(t, "nomic-embed-text", cfg.Embeddings.Model)

	// Unmentioned fields keep their defaults.
	assert.Equal(t, 150, cfg.Chunking.ChunkOverlap)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
}

func TestLoad_YmlFallback(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, ".vaultindex.yml", "qdrant:\n  port: 7000\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Qdrant.Port)
}

func TestLoad_YamlTakesPrecedenceOverYml(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, ".vaultindex.yaml", "qdrant:\n  port: 7001\n")
	writeConfigFile(t, dir, ".vaultindex.yml", "qdrant:\n  port: 7002\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Qdrant.Port)
}

func TestLoad_BadYAMLFails(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, ".vaultindex.yaml", "chunking: [not a map")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetCode(err))
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, ".vaultindex.yaml", "qdrant:\n  host: from-file\n")

	t.Setenv("VAULTINDEX_QDRANT_HOST", "from-env")
	t.Setenv("VAULTINDEX_QDRANT_PORT", "9999")
	t.Setenv("VAULTINDEX_COLLECTION", "env-collection")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Qdrant.Host)
	assert.Equal(t, 9999, cfg.Qdrant.Port)
	assert.Equal(t, "env-collection", cfg.Qdrant.Collection)
}

func TestLoad_InvalidPortEnvIgnored(t *testing.T) {
	t.Setenv("VAULTINDEX_QDRANT_PORT", "not-a-port")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
}

func TestLoad_OpenAIKeyFallsBackToStandardVariable(t *testing.T) {
	t.Setenv("VAULTINDEX_OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-standard")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "sk-standard", cfg.Embeddings.APIKey)
}

func TestLoad_DotEnvAtVaultRoot(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, ".env", "VAULTINDEX_COLLECTION=dotenv-collection\n")

	// Setenv registers the restore; Unsetenv then lets the .env value
	// land, since godotenv never overrides set variables.
	t.Setenv("VAULTINDEX_COLLECTION", "")
	require.NoError(t, os.Unsetenv("VAULTINDEX_COLLECTION"))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "dotenv-collection", cfg.Qdrant.Collection)
}

func TestLoad_TLSEnvFlag(t *testing.T) {
	t.Setenv("VAULTINDEX_QDRANT_TLS", "true")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.True(t, cfg.Qdrant.UseTLS)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "zero chunk size",
			mutate:  func(c *Config) { c.Chunking.ChunkSize = 0 },
			wantErr: "chunk_size must be positive",
		},
		{
			name:    "negative overlap",
			mutate:  func(c *Config) { c.Chunking.ChunkOverlap = -1 },
			wantErr: "chunk_overlap must be non-negative",
		},
		{
			name: "overlap not smaller than chunk size",
			mutate: func(c *Config) {
				c.Chunking.ChunkSize = 100
				c.Chunking.ChunkOverlap = 100
			},
			wantErr: "chunk_overlap must be smaller than chunk_size",
		},
		{
			name:    "negative min section",
			mutate:  func(c *Config) { c.Chunking.MinSection = -5 },
			wantErr: "min_section must be non-negative",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Qdrant.Port = 70000 },
			wantErr: "qdrant port",
		},
		{
			name:    "empty collection",
			mutate:  func(c *Config) { c.Qdrant.Collection = "  " },
			wantErr: "collection name must not be empty",
		},
		{
			name:    "unknown metric",
			mutate:  func(c *Config) { c.Qdrant.Metric = "hamming" },
			wantErr: "unknown distance metric",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Embeddings.Provider = "cohere" },
			wantErr: "unknown embedding provider",
		},
		{
			name:    "zero import batch",
			mutate:  func(c *Config) { c.Import.BatchSize = 0 },
			wantErr: "batch_size must be positive",
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Import.Workers = 0 },
			wantErr: "workers must be positive",
		},
		{
			name:    "bad debounce",
			mutate:  func(c *Config) { c.Watch.Debounce = "fast" },
			wantErr: "watch.debounce is not a duration",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "log_level must be",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetCode(err))
			assert.True(t, errors.IsFatal(err))
		})
	}
}

func TestValidate_MetricAliases(t *testing.T) {
	for _, metric := range []string{"", "cosine", "euclid", "euclidean", "l2", "dot", "manhattan"} {
		cfg := NewConfig()
		cfg.Qdrant.Metric = metric
		assert.NoError(t, cfg.Validate(), "metric %q", metric)
	}
}

func TestWatchConfig_Durations(t *testing.T) {
	w := WatchConfig{Debounce: "200ms", PollInterval: "2s"}
	assert.Equal(t, 200*time.Millisecond, w.DebounceDuration())
	assert.Equal(t, 2*time.Second, w.PollIntervalDuration())

	// Unparseable or missing values fall back.
	w = WatchConfig{}
	assert.Equal(t, 500*time.Millisecond, w.DebounceDuration())
	assert.Equal(t, 5*time.Second, w.PollIntervalDuration())
}
