package embed

import (
	"strings"

	"github.com/vaultindex/vaultindex/internal/errors"
)

// Config selects and configures an embedding provider.
type Config struct {
	// Provider is one of "static", "ollama", "openai". Empty means
	// static, which needs no external service.
	Provider string

	// CacheSize controls the text-to-vector cache wrapped around the
	// provider: 0 uses the default, negative disables caching.
	CacheSize int

	Ollama OllamaConfig
	OpenAI OpenAIConfig
}

// New creates the configured embedder, wrapped with an LRU cache
// unless caching is disabled.
func New(cfg Config) (Embedder, error) {
	var (
		embedder Embedder
		err      error
	)

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderStatic:
		embedder = NewStaticEmbedder()
	case ProviderOllama:
		embedder = NewOllamaEmbedder(cfg.Ollama)
	case ProviderOpenAI:
		embedder, err = NewOpenAIEmbedder(cfg.OpenAI)
	default:
		return nil, errors.Newf(errors.ErrCodeConfigInvalid, nil,
			"unknown embedding provider %q (want static, ollama or openai)", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheSize < 0 {
		return embedder, nil
	}
	return NewCachedEmbedder(embedder, cfg.CacheSize), nil
}
