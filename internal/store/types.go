// Package store persists chunks to an external vector store. The rest
// of the pipeline only sees the Store and Collection interfaces; the
// Qdrant backend and the embedder it composes stay behind them.
package store

import (
	"context"

	"github.com/vaultindex/vaultindex/internal/chunk"
)

// DefaultUpsertBatchSize bounds one upsert request, respecting backend
// request-size limits.
const DefaultUpsertBatchSize = 100

// Store is a handle to the vector store backend.
type Store interface {
	// Collection returns a handle to the named collection, creating it
	// when absent.
	Collection(ctx context.Context, name string) (Collection, error)

	// CollectionExists reports whether the named collection exists,
	// without creating it.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// OpenCollection returns a handle to an existing collection. Unlike
	// Collection it neither creates anything nor consults the embedder,
	// so read-only callers work while the provider is down.
	OpenCollection(ctx context.Context, name string) (Collection, error)

	// DeleteCollection removes the collection and all its points.
	// Deleting an absent collection is not an error.
	DeleteCollection(ctx context.Context, name string) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the client connection.
	Close() error
}

// Collection is a handle to one collection.
type Collection interface {
	// Name returns the collection name.
	Name() string

	// Upsert writes chunks in bounded batches, replacing points whose
	// derived ID already exists.
	Upsert(ctx context.Context, chunks []*chunk.Chunk) error

	// Count returns the number of stored points.
	Count(ctx context.Context) (uint64, error)

	// Peek returns up to n stored records for diagnostic summaries.
	Peek(ctx context.Context, n int) ([]*Record, error)
}

// Record is one stored point as returned by Peek.
type Record struct {
	// PointID is the backend's point identifier.
	PointID string

	// ChunkID is the deterministic chunk identifier the point was
	// derived from.
	ChunkID string

	// Text is the chunk body.
	Text string

	// Metadata holds the remaining payload fields.
	Metadata map[string]any
}
