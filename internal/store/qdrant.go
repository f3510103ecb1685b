package store

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/vaultindex/vaultindex/internal/chunk"
	"github.com/vaultindex/vaultindex/internal/embed"
	"github.com/vaultindex/vaultindex/internal/errors"
)

// Default Qdrant gRPC endpoint.
const (
	DefaultQdrantHost = "localhost"
	DefaultQdrantPort = 6334
)

// Payload keys written alongside the chunk metadata.
const (
	payloadChunkID = "chunk_id"
	payloadText    = "text"
)

// Config configures the Qdrant backend.
type Config struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool

	// Metric is the distance function for new collections: cosine
	// (default), euclid, dot or manhattan.
	Metric string

	// BatchSize bounds one upsert request.
	BatchSize int
}

// QdrantStore talks to Qdrant over gRPC. Vectors are computed by the
// composed embedder at upsert time.
type QdrantStore struct {
	client    *qdrant.Client
	embedder  embed.Embedder
	metric    qdrant.Distance
	batchSize int
}

var _ Store = (*QdrantStore)(nil)

// NewQdrantStore creates the backend handle. The gRPC connection is
// lazy; Ping is the reachability check.
func NewQdrantStore(cfg Config, embedder embed.Embedder) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultQdrantHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultQdrantPort
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultUpsertBatchSize
	}

	metric, err := distanceFromMetric(cfg.Metric)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, errors.New(errors.ErrCodeStoreUnavailable, "creating qdrant client", err)
	}

	return &QdrantStore{
		client:    client,
		embedder:  embedder,
		metric:    metric,
		batchSize: cfg.BatchSize,
	}, nil
}

// distanceFromMetric maps a config metric name to the Qdrant distance.
func distanceFromMetric(metric string) (qdrant.Distance, error) {
	switch strings.ToLower(strings.TrimSpace(metric)) {
	case "", "cosine":
		return qdrant.Distance_Cosine, nil
	case "euclid", "euclidean", "l2":
		return qdrant.Distance_Euclid, nil
	case "dot":
		return qdrant.Distance_Dot, nil
	case "manhattan":
		return qdrant.Distance_Manhattan, nil
	default:
		return 0, errors.Newf(errors.ErrCodeConfigInvalid, nil,
			"unknown distance metric %q (want cosine, euclid, dot or manhattan)", metric)
	}
}

// PointID derives the stable point UUID for a chunk identifier.
// Qdrant point IDs must be UUIDs; hashing keeps them a pure function
// of the chunk ID, which is what makes re-import replace instead of
// append.
func PointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(chunkID)).String()
}

// Ping verifies the backend is reachable.
func (s *QdrantStore) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return errors.New(errors.ErrCodeStoreUnavailable, "qdrant is unreachable", err)
	}
	return nil
}

// CollectionExists reports whether the named collection exists,
// without creating it.
func (s *QdrantStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return false, errors.New(errors.ErrCodeStoreUnavailable, "checking collection existence", err)
	}
	return exists, nil
}

// OpenCollection returns a handle to an existing collection without
// creating it or probing the embedder.
func (s *QdrantStore) OpenCollection(ctx context.Context, name string) (Collection, error) {
	exists, err := s.CollectionExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.Newf(errors.ErrCodeCollection, nil, "collection %q does not exist", name)
	}
	return &qdrantCollection{store: s, name: name}, nil
}

// Collection returns a handle to the named collection, creating it
// with the embedder's dimension when absent. An existing collection
// with a different vector size is an error, not silent corruption.
func (s *QdrantStore) Collection(ctx context.Context, name string) (Collection, error) {
	dims, err := s.probeDimensions(ctx)
	if err != nil {
		return nil, err
	}

	exists, err := s.CollectionExists(ctx, name)
	if err != nil {
		return nil, err
	}

	if !exists {
		slog.Info("creating collection", "collection", name, "dimensions", dims, "metric", s.metric.String())
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dims),
				Distance: s.metric,
			}),
		})
		if err != nil {
			return nil, errors.Newf(errors.ErrCodeCollection, err, "creating collection %q", name)
		}
		return &qdrantCollection{store: s, name: name}, nil
	}

	size, err := s.collectionVectorSize(ctx, name)
	if err != nil {
		return nil, err
	}
	if size != 0 && size != dims {
		return nil, errors.Newf(errors.ErrCodeCollection, nil,
			"collection %q stores %d-dimensional vectors but embedder %q produces %d",
			name, size, s.embedder.ModelName(), dims)
	}
	return &qdrantCollection{store: s, name: name}, nil
}

// probeDimensions embeds a fixed text once so providers that detect
// their dimension from the first response resolve it before the
// collection is sized.
func (s *QdrantStore) probeDimensions(ctx context.Context) (int, error) {
	if _, err := s.embedder.Embed(ctx, "dimension probe"); err != nil {
		return 0, errors.New(errors.ErrCodeStoreUnavailable, "embedding provider unavailable", err)
	}
	return s.embedder.Dimensions(), nil
}

// collectionVectorSize reads the configured vector size of an existing
// collection.
func (s *QdrantStore) collectionVectorSize(ctx context.Context, name string) (int, error) {
	info, err := s.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return 0, errors.Newf(errors.ErrCodeCollection, err, "reading collection %q", name)
	}
	config := info.GetConfig()
	if config == nil || config.GetParams() == nil {
		return 0, nil
	}
	vectorsConfig := config.GetParams().GetVectorsConfig()
	if vectorsConfig == nil {
		return 0, nil
	}
	params := vectorsConfig.GetParams()
	if params == nil {
		return 0, nil
	}
	return int(params.GetSize()), nil
}

// DeleteCollection removes the collection. Absent collections are a
// no-op so clear stays idempotent.
func (s *QdrantStore) DeleteCollection(ctx context.Context, name string) error {
	exists, err := s.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	if err := s.client.DeleteCollection(ctx, name); err != nil {
		return errors.Newf(errors.ErrCodeCollection, err, "deleting collection %q", name)
	}
	return nil
}

// Close releases the gRPC connection and the embedder.
func (s *QdrantStore) Close() error {
	embErr := s.embedder.Close()
	if err := s.client.Close(); err != nil {
		return err
	}
	return embErr
}

type qdrantCollection struct {
	store *QdrantStore
	name  string
}

var _ Collection = (*qdrantCollection)(nil)

func (c *qdrantCollection) Name() string { return c.name }

// Upsert embeds and writes chunks in bounded batches. Wait is set so a
// Count right after an import sees the new points.
func (c *qdrantCollection) Upsert(ctx context.Context, chunks []*chunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for start := 0; start < len(chunks); start += c.store.batchSize {
		end := start + c.store.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, ch := range batch {
			texts[i] = ch.Text
		}
		vecs, err := c.store.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}

		points := make([]*qdrant.PointStruct, len(batch))
		for i, ch := range batch {
			points[i] = &qdrant.PointStruct{
				Id:      qdrant.NewID(PointID(ch.ID)),
				Vectors: qdrant.NewVectors(vecs[i]...),
				Payload: qdrant.NewValueMap(pointPayload(ch)),
			}
		}

		_, err = c.store.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: c.name,
			Points:         points,
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			return errors.Newf(errors.ErrCodeUpsert, err, "upserting %d points", len(points))
		}
		slog.Debug("upserted batch", "collection", c.name, "points", len(points))
	}
	return nil
}

// pointPayload merges the chunk's metadata with the chunk ID and body.
func pointPayload(ch *chunk.Chunk) map[string]any {
	payload := make(map[string]any, len(ch.Metadata)+2)
	for k, v := range ch.Metadata {
		payload[k] = v
	}
	payload[payloadChunkID] = ch.ID
	payload[payloadText] = ch.Text
	return payload
}

// Count returns the reported point count.
func (c *qdrantCollection) Count(ctx context.Context) (uint64, error) {
	info, err := c.store.client.GetCollectionInfo(ctx, c.name)
	if err != nil {
		return 0, errors.Newf(errors.ErrCodeCollection, err, "reading collection %q", c.name)
	}
	if info.PointsCount == nil {
		return 0, nil
	}
	return *info.PointsCount, nil
}

// Peek scrolls up to n points with their payloads.
func (c *qdrantCollection) Peek(ctx context.Context, n int) ([]*Record, error) {
	if n <= 0 {
		return nil, nil
	}

	points, err := c.store.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: c.name,
		Limit:          qdrant.PtrOf(uint32(n)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, errors.Newf(errors.ErrCodeCollection, err, "scrolling collection %q", c.name)
	}

	records := make([]*Record, 0, len(points))
	for _, p := range points {
		rec := &Record{Metadata: make(map[string]any)}
		if p.Id != nil {
			rec.PointID = p.Id.GetUuid()
		}
		for k, v := range p.Payload {
			if v == nil {
				continue
			}
			switch k {
			case payloadChunkID:
				rec.ChunkID, _ = fromQdrantValue(v).(string)
			case payloadText:
				rec.Text, _ = fromQdrantValue(v).(string)
			default:
				rec.Metadata[k] = fromQdrantValue(v)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// fromQdrantValue converts a payload value back to a plain Go value.
func fromQdrantValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			list[i] = fromQdrantValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		fields := make(map[string]any, len(val.StructValue.Fields))
		for k, item := range val.StructValue.Fields {
			if item != nil {
				fields[k] = fromQdrantValue(item)
			}
		}
		return fields
	default:
		return nil
	}
}
