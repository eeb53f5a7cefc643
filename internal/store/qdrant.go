package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	payloadChunkID  = "chunk_id"
	payloadDocument = "document"
	payloadMetaKey  = "meta."
)

// Qdrant is a Store backed by a qdrant server over gRPC. Chunk ids are
// arbitrary strings, so each point id is a deterministic UUID derived from
// the collection and chunk id, which keeps upserts idempotent.
type Qdrant struct {
	conn        *grpc.ClientConn
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
}

// NewQdrant connects to a qdrant gRPC endpoint (host:port).
func NewQdrant(addr string) (*Qdrant, error) {
	if addr == "" {
		return nil, fmt.Errorf("qdrant address is empty")
	}
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant at %s: %w", addr, err)
	}
	return &Qdrant{
		conn:        conn,
		collections: qdrantclient.NewCollectionsClient(conn),
		points:      qdrantclient.NewPointsClient(conn),
	}, nil
}

func pointID(collection, chunkID string) *qdrantclient.PointId {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(collection+"/"+chunkID))
	return &qdrantclient.PointId{
		PointIdOptions: &qdrantclient.PointId_Uuid{Uuid: id.String()},
	}
}

// HasCollection reports whether the named collection exists on the server.
func (s *Qdrant) HasCollection(ctx context.Context, collection string) (bool, error) {
	resp, err := s.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return false, fmt.Errorf("list collections: %w", err)
	}
	for _, col := range resp.GetCollections() {
		if col.GetName() == collection {
			return true, nil
		}
	}
	return false, nil
}

// DropCollection deletes the named collection if it exists.
func (s *Qdrant) DropCollection(ctx context.Context, collection string) error {
	exists, err := s.HasCollection(ctx, collection)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	if _, err := s.collections.Delete(ctx, &qdrantclient.DeleteCollection{
		CollectionName: collection,
	}); err != nil {
		return fmt.Errorf("delete collection %s: %w", collection, err)
	}
	return nil
}

// Upsert writes records as points, creating the collection on first write
// with the dimension of the first record's embedding.
func (s *Qdrant) Upsert(ctx context.Context, collection string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx, collection, len(records[0].Embedding)); err != nil {
		return err
	}

	points := make([]*qdrantclient.PointStruct, 0, len(records))
	for _, rec := range records {
		payload := map[string]*qdrantclient.Value{
			payloadChunkID:  {Kind: &qdrantclient.Value_StringValue{StringValue: rec.ID}},
			payloadDocument: {Kind: &qdrantclient.Value_StringValue{StringValue: rec.Document}},
		}
		for key, val := range rec.Metadata {
			payload[payloadMetaKey+key] = &qdrantclient.Value{
				Kind: &qdrantclient.Value_StringValue{StringValue: fmt.Sprintf("%v", val)},
			}
		}

		points = append(points, &qdrantclient.PointStruct{
			Id: pointID(collection, rec.ID),
			Vectors: &qdrantclient.Vectors{
				VectorsOptions: &qdrantclient.Vectors_Vector{
					Vector: &qdrantclient.Vector{Data: rec.Embedding},
				},
			},
			Payload: payload,
		})
	}

	if _, err := s.points.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: collection,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("upsert %d points into %s: %w", len(points), collection, err)
	}
	return nil
}

// Query runs a nearest-neighbor search, optionally filtered on metadata.
// Qdrant reports cosine similarity; it is converted to a distance so callers
// see the same ascending-is-better ordering as the local store.
func (s *Qdrant) Query(ctx context.Context, collection string, embedding []float32, n int, filter map[string]string) ([]QueryResult, error) {
	req := &qdrantclient.SearchPoints{
		CollectionName: collection,
		Vector:         embedding,
		Limit:          uint64(n),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
	}
	if len(filter) > 0 {
		conditions := make([]*qdrantclient.Condition, 0, len(filter))
		for key, want := range filter {
			conditions = append(conditions, &qdrantclient.Condition{
				ConditionOneOf: &qdrantclient.Condition_Field{
					Field: &qdrantclient.FieldCondition{
						Key: payloadMetaKey + key,
						Match: &qdrantclient.Match{
							MatchValue: &qdrantclient.Match_Keyword{Keyword: want},
						},
					},
				},
			})
		}
		req.Filter = &qdrantclient.Filter{Must: conditions}
	}

	resp, err := s.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search collection %s: %w", collection, err)
	}

	results := make([]QueryResult, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		results = append(results, QueryResult{
			ID:       point.GetPayload()[payloadChunkID].GetStringValue(),
			Document: point.GetPayload()[payloadDocument].GetStringValue(),
			Metadata: metadataFromPayload(point.GetPayload()),
			Distance: 1 - float64(point.GetScore()),
		})
	}
	return results, nil
}

// Count returns the exact number of points in the collection.
func (s *Qdrant) Count(ctx context.Context, collection string) (int, error) {
	exact := true
	resp, err := s.points.Count(ctx, &qdrantclient.CountPoints{
		CollectionName: collection,
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("count collection %s: %w", collection, err)
	}
	return int(resp.GetResult().GetCount()), nil
}

// Peek scrolls up to limit points from the collection.
func (s *Qdrant) Peek(ctx context.Context, collection string, limit int) ([]Record, error) {
	scrollLimit := uint32(limit)
	resp, err := s.points.Scroll(ctx, &qdrantclient.ScrollPoints{
		CollectionName: collection,
		Limit:          &scrollLimit,
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("scroll collection %s: %w", collection, err)
	}

	records := make([]Record, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		records = append(records, Record{
			ID:       point.GetPayload()[payloadChunkID].GetStringValue(),
			Document: point.GetPayload()[payloadDocument].GetStringValue(),
			Metadata: metadataFromPayload(point.GetPayload()),
		})
	}
	return records, nil
}

// Close tears down the gRPC connection.
func (s *Qdrant) Close() error {
	return s.conn.Close()
}

func (s *Qdrant) ensureCollection(ctx context.Context, collection string, dim int) error {
	exists, err := s.HasCollection(ctx, collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if _, err := s.collections.Create(ctx, &qdrantclient.CreateCollection{
		CollectionName: collection,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     uint64(dim),
					Distance: qdrantclient.Distance_Cosine,
				},
			},
		},
	}); err != nil {
		return fmt.Errorf("create collection %s: %w", collection, err)
	}
	return nil
}

func metadataFromPayload(payload map[string]*qdrantclient.Value) map[string]any {
	meta := make(map[string]any)
	for key, val := range payload {
		if len(key) > len(payloadMetaKey) && key[:len(payloadMetaKey)] == payloadMetaKey {
			meta[key[len(payloadMetaKey):]] = val.GetStringValue()
		}
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}
