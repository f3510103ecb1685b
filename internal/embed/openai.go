package embed

import (
	"context"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vaultindex/vaultindex/internal/errors"
)

// DefaultOpenAIModel is the default OpenAI embedding model.
const DefaultOpenAIModel = string(openai.SmallEmbedding3)

// defaultOpenAIDimensions is the native dimension of text-embedding-3-small.
const defaultOpenAIDimensions = 1536

// OpenAIConfig configures the OpenAI embedder. BaseURL supports
// OpenAI-compatible endpoints (Azure gateways, LiteLLM, LM Studio).
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	BatchSize  int
	MaxRetries int

	// Dimensions asks v3 models for shortened vectors; zero keeps the
	// model's native size.
	Dimensions int
}

// OpenAIEmbedder generates embeddings through the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	cfg    OpenAIConfig

	mu     sync.RWMutex
	dims   int
	closed bool
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder creates an OpenAI embedder. An API key is required
// even for compatible endpoints; pass a placeholder if the gateway
// ignores it.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "openai api key is required", nil)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchSize > MaxBatchSize {
		cfg.BatchSize = MaxBatchSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		dims:   cfg.Dimensions,
	}, nil
}

// Embed generates the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, errors.New(errors.ErrCodeEmbed, "no embedding returned", nil)
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts, preserving order.
// Blank texts become zero vectors without an API call.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, errors.New(errors.ErrCodeEmbed, "embedder is closed", nil)
	}
	e.mu.RUnlock()

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	type indexedText struct {
		idx  int
		text string
	}
	var nonEmpty []indexedText
	results := make([][]float32, len(texts))
	var blanks []int

	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			blanks = append(blanks, i)
		} else {
			nonEmpty = append(nonEmpty, indexedText{i, text})
		}
	}

	for start := 0; start < len(nonEmpty); start += e.cfg.BatchSize {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		end := start + e.cfg.BatchSize
		if end > len(nonEmpty) {
			end = len(nonEmpty)
		}
		batch := nonEmpty[start:end]
		batchTexts := make([]string, len(batch))
		for i, it := range batch {
			batchTexts[i] = it.text
		}

		var resp openai.EmbeddingResponse
		err := withRetry(ctx, e.cfg.MaxRetries, func() error {
			var reqErr error
			resp, reqErr = e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
				Input:      batchTexts,
				Model:      openai.EmbeddingModel(e.cfg.Model),
				Dimensions: e.cfg.Dimensions,
			})
			return reqErr
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeEmbed, err)
		}
		if len(resp.Data) != len(batch) {
			return nil, errors.Newf(errors.ErrCodeEmbed, nil,
				"expected %d embeddings, got %d", len(batch), len(resp.Data))
		}

		// The API reports each vector's position explicitly.
		for _, item := range resp.Data {
			if item.Index < 0 || item.Index >= len(batch) {
				return nil, errors.Newf(errors.ErrCodeEmbed, nil,
					"embedding index %d out of range", item.Index)
			}
			results[batch[item.Index].idx] = item.Embedding
		}
	}

	e.rememberDims(results)

	for _, i := range blanks {
		results[i] = make([]float32, e.Dimensions())
	}
	return results, nil
}

func (e *OpenAIEmbedder) rememberDims(vecs [][]float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dims > 0 {
		return
	}
	for _, v := range vecs {
		if len(v) > 0 {
			e.dims = len(v)
			return
		}
	}
}

// Dimensions returns the configured or detected embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.dims > 0 {
		return e.dims
	}
	return defaultOpenAIDimensions
}

// ModelName returns the model identifier.
func (e *OpenAIEmbedder) ModelName() string {
	return e.cfg.Model
}

// Available checks the API with a model listing call.
func (e *OpenAIEmbedder) Available(ctx context.Context) bool {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return false
	}
	e.mu.RUnlock()

	_, err := e.client.ListModels(ctx)
	return err == nil
}

// Close marks the embedder closed.
func (e *OpenAIEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
