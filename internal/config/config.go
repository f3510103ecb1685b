// Package config loads layered vaultindex configuration.
//
// Precedence, lowest to highest: built-in defaults, an optional
// .vaultindex.yaml at the vault root, VAULTINDEX_* environment
// variables, then command-line flags applied by the cmd layer. A .env
// file at the vault root or the working directory is loaded before
// environment inspection; variables already set win over .env values.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vaultindex/vaultindex/internal/errors"
)

// FileName is the canonical per-vault config file name. The loader
// also accepts a .yml variant.
const FileName = ".vaultindex.yaml"

// Config is the complete vaultindex configuration.
type Config struct {
	Chunking   ChunkingConfig   `yaml:"chunking" json:"chunking"`
	Qdrant     QdrantConfig     `yaml:"qdrant" json:"qdrant"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	Import     ImportConfig     `yaml:"import" json:"import"`
	Watch      WatchConfig      `yaml:"watch" json:"watch"`
	LogLevel   string           `yaml:"log_level" json:"log_level"`
}

// ChunkingConfig sizes the section chunker, in characters.
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size" json:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap" json:"chunk_overlap"`
	MinSection   int `yaml:"min_section" json:"min_section"`
}

// QdrantConfig locates the vector store and names the collection.
type QdrantConfig struct {
	Host       string `yaml:"host" json:"host"`
	Port       int    `yaml:"port" json:"port"`
	APIKey     string `yaml:"api_key" json:"api_key"`
	UseTLS     bool   `yaml:"use_tls" json:"use_tls"`
	Collection string `yaml:"collection" json:"collection"`
	Metric     string `yaml:"metric" json:"metric"`
}

// EmbeddingsConfig selects and configures the embedding provider.
// APIKey is environment-only so that keys never end up in vault files.
type EmbeddingsConfig struct {
	Provider      string `yaml:"provider" json:"provider"`
	Model         string `yaml:"model" json:"model"`
	Dimensions    int    `yaml:"dimensions" json:"dimensions"`
	BatchSize     int    `yaml:"batch_size" json:"batch_size"`
	CacheSize     int    `yaml:"cache_size" json:"cache_size"`
	OllamaHost    string `yaml:"ollama_host" json:"ollama_host"`
	OpenAIBaseURL string `yaml:"openai_base_url" json:"openai_base_url"`
	APIKey        string `yaml:"-" json:"-"`
}

// ImportConfig tunes the import pipeline.
type ImportConfig struct {
	BatchSize int `yaml:"batch_size" json:"batch_size"`
	Workers   int `yaml:"workers" json:"workers"`
}

// WatchConfig tunes watch mode. Durations are strings like "500ms".
type WatchConfig struct {
	Debounce     string `yaml:"debounce" json:"debounce"`
	PollInterval string `yaml:"poll_interval" json:"poll_interval"`
}

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			ChunkSize:    1500,
			ChunkOverlap: 150,
			MinSection:   50,
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "vault",
			Metric:     "cosine",
		},
		Embeddings: EmbeddingsConfig{
			Provider: "static",
			// Model, hosts and sizes left zero pick per-provider defaults.
		},
		Import: ImportConfig{
			BatchSize: 100,
			Workers:   4,
		},
		Watch: WatchConfig{
			Debounce:     "500ms",
			PollInterval: "5s",
		},
		LogLevel: "info",
	}
}

// Load builds the configuration for the vault at dir.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	// .env values never override variables already set.
	_ = godotenv.Load(filepath.Join(dir, ".env"))
	_ = godotenv.Load()

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile reads .vaultindex.yaml, or .vaultindex.yml as a
// fallback. A missing file is fine.
func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{FileName, ".vaultindex.yml"} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return c.loadYAML(path)
		}
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.New(errors.ErrCodeConfigRead, "reading config file", err).WithPath(path)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return errors.New(errors.ErrCodeConfigInvalid, "parsing config file", err).WithPath(path)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith copies non-zero values from other into c, so a sparse
// config file overrides only what it mentions.
func (c *Config) mergeWith(other *Config) {
	if other.Chunking.ChunkSize != 0 {
		c.Chunking.ChunkSize = other.Chunking.ChunkSize
	}
	if other.Chunking.ChunkOverlap != 0 {
		c.Chunking.ChunkOverlap = other.Chunking.ChunkOverlap
	}
	if other.Chunking.MinSection != 0 {
		c.Chunking.MinSection = other.Chunking.MinSection
	}

	if other.Qdrant.Host != "" {
		c.Qdrant.Host = other.Qdrant.Host
	}
	if other.Qdrant.Port != 0 {
		c.Qdrant.Port = other.Qdrant.Port
	}
	if other.Qdrant.APIKey != "" {
		c.Qdrant.APIKey = other.Qdrant.APIKey
	}
	if other.Qdrant.UseTLS {
		c.Qdrant.UseTLS = true
	}
	if other.Qdrant.Collection != "" {
		c.Qdrant.Collection = other.Qdrant.Collection
	}
	if other.Qdrant.Metric != "" {
		c.Qdrant.Metric = other.Qdrant.Metric
	}

	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Embeddings.CacheSize != 0 {
		c.Embeddings.CacheSize = other.Embeddings.CacheSize
	}
	if other.Embeddings.OllamaHost != "" {
		c.Embeddings.OllamaHost = other.Embeddings.OllamaHost
	}
	if other.Embeddings.OpenAIBaseURL != "" {
		c.Embeddings.OpenAIBaseURL = other.Embeddings.OpenAIBaseURL
	}

	if other.Import.BatchSize != 0 {
		c.Import.BatchSize = other.Import.BatchSize
	}
	if other.Import.Workers != 0 {
		c.Import.Workers = other.Import.Workers
	}

	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Watch.PollInterval != "" {
		c.Watch.PollInterval = other.Watch.PollInterval
	}

	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}

// applyEnvOverrides applies VAULTINDEX_* environment overrides.
// Unparseable numeric values are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("VAULTINDEX_QDRANT_HOST"); v != "" {
		c.Qdrant.Host = v
	}
	if v := os.Getenv("VAULTINDEX_QDRANT_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			c.Qdrant.Port = p
		}
	}
	if v := os.Getenv("VAULTINDEX_QDRANT_API_KEY"); v != "" {
		c.Qdrant.APIKey = v
	}
	if v := os.Getenv("VAULTINDEX_QDRANT_TLS"); v != "" {
		c.Qdrant.UseTLS = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("VAULTINDEX_COLLECTION"); v != "" {
		c.Qdrant.Collection = v
	}
	if v := os.Getenv("VAULTINDEX_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("VAULTINDEX_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("VAULTINDEX_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("VAULTINDEX_OPENAI_BASE_URL"); v != "" {
		c.Embeddings.OpenAIBaseURL = v
	}
	if v := os.Getenv("VAULTINDEX_OPENAI_API_KEY"); v != "" {
		c.Embeddings.APIKey = v
	} else if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Embeddings.APIKey = v
	}
	if v := os.Getenv("VAULTINDEX_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks ranges and enumerations. Every failure is a fatal
// configuration error.
func (c *Config) Validate() error {
	if c.Chunking.ChunkSize <= 0 {
		return errors.Newf(errors.ErrCodeConfigInvalid, nil,
			"chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.ChunkOverlap < 0 {
		return errors.Newf(errors.ErrCodeConfigInvalid, nil,
			"chunk_overlap must be non-negative, got %d", c.Chunking.ChunkOverlap)
	}
	if c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return errors.Newf(errors.ErrCodeConfigInvalid, nil,
			"chunk_overlap must be smaller than chunk_size, got %d >= %d",
			c.Chunking.ChunkOverlap, c.Chunking.ChunkSize)
	}
	if c.Chunking.MinSection < 0 {
		return errors.Newf(errors.ErrCodeConfigInvalid, nil,
			"min_section must be non-negative, got %d", c.Chunking.MinSection)
	}

	if c.Qdrant.Port < 1 || c.Qdrant.Port > 65535 {
		return errors.Newf(errors.ErrCodeConfigInvalid, nil,
			"qdrant port must be in 1..65535, got %d", c.Qdrant.Port)
	}
	if strings.TrimSpace(c.Qdrant.Collection) == "" {
		return errors.Newf(errors.ErrCodeConfigInvalid, nil, "collection name must not be empty")
	}
	switch strings.ToLower(c.Qdrant.Metric) {
	case "", "cosine", "euclid", "euclidean", "l2", "dot", "manhattan":
	default:
		return errors.Newf(errors.ErrCodeConfigInvalid, nil,
			"unknown distance metric %q (want cosine, euclid, dot or manhattan)", c.Qdrant.Metric)
	}

	switch strings.ToLower(c.Embeddings.Provider) {
	case "", "static", "ollama", "openai":
	default:
		return errors.Newf(errors.ErrCodeConfigInvalid, nil,
			"unknown embedding provider %q (want static, ollama or openai)", c.Embeddings.Provider)
	}

	if c.Import.BatchSize <= 0 {
		return errors.Newf(errors.ErrCodeConfigInvalid, nil,
			"import batch_size must be positive, got %d", c.Import.BatchSize)
	}
	if c.Import.Workers <= 0 {
		return errors.Newf(errors.ErrCodeConfigInvalid, nil,
			"workers must be positive, got %d", c.Import.Workers)
	}

	for _, d := range []struct{ name, value string }{
		{"watch.debounce", c.Watch.Debounce},
		{"watch.poll_interval", c.Watch.PollInterval},
	} {
		if d.value == "" {
			continue
		}
		if _, err := time.ParseDuration(d.value); err != nil {
			return errors.Newf(errors.ErrCodeConfigInvalid, err,
				"%s is not a duration: %q", d.name, d.value)
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return errors.Newf(errors.ErrCodeConfigInvalid, nil,
			"log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}

	return nil
}

// DebounceDuration parses Watch.Debounce, falling back to 500ms.
func (w WatchConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// PollIntervalDuration parses Watch.PollInterval, falling back to 5s.
func (w WatchConfig) PollIntervalDuration() time.Duration {
	d, err := time.ParseDuration(w.PollInterval)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
