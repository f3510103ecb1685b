// Package embed computes vector embeddings for chunk text. The vector
// store needs one vector per point; providers range from a fully
// offline hash-based embedder to the Ollama and OpenAI HTTP APIs.
package embed

import (
	"context"
	"math"
	"time"
)

const (
	// DefaultBatchSize is how many texts go to a provider per request.
	DefaultBatchSize = 32

	// MaxBatchSize caps a single provider request.
	MaxBatchSize = 256

	// DefaultTimeout bounds one embedding request.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the retry budget for transient provider errors.
	DefaultMaxRetries = 3
)

// Provider names accepted by New.
const (
	ProviderStatic = "static"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Available reports whether the provider is reachable and ready.
	Available(ctx context.Context) bool

	// Close releases provider resources.
	Close() error
}

// normalizeVector scales a vector to unit length. A zero vector is
// returned unchanged.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
