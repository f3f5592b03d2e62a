package qdrant

import (
	"context"
	"fmt"

	"github.com/kunaldev758/chataffy-sub000/pkg/vectorindex"

	"github.com/qdrant/go-client/qdrant"
)

// Index implements vectorindex.VectorIndex over a qdrant deployment.
type Index struct {
	client *qdrant.Client
}

var _ vectorindex.VectorIndex = &Index{}

func NewIndex(host string, port int) (*Index, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant client: %w", err)
	}
	return &Index{client: client}, nil
}

func (i *Index) Close() error {
	return i.client.Close()
}

func (i *Index) EnsureCollection(ctx context.Context, name string, dim uint64) error {
	exists, err := i.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("qdrant collection check: %w", err)
	}
	if exists {
		return nil
	}

	err = i.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dim,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant create collection: %w", err)
	}
	return nil
}

func (i *Index) Upsert(ctx context.Context, name string, points []vectorindex.Point) error {
	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(points))
	for idx, p := range points {
		qdrantPoints[idx] = &qdrant.PointStruct{
			Id:      qdrant.NewID(p.Id),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(p.Payload),
		}
	}

	_, err := i.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func (i *Index) Search(ctx context.Context, name string, vector []float32, k uint64, filter vectorindex.Filter) ([]vectorindex.Hit, error) {
	result, err := i.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(k),
		Filter:         buildFilter(filter),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	hits := make([]vectorindex.Hit, 0, len(result))
	for _, scored := range result {
		hits = append(hits, vectorindex.Hit{
			Id:      scored.Id.GetUuid(),
			Score:   scored.Score,
			Payload: decodePayload(scored.Payload),
		})
	}
	return hits, nil
}

func (i *Index) DeleteByFilter(ctx context.Context, name string, filter vectorindex.Filter) error {
	_, err := i.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: name,
		Points:         qdrant.NewPointsSelectorFilter(buildFilter(filter)),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant delete: %w", err)
	}
	return nil
}

func buildFilter(filter vectorindex.Filter) *qdrant.Filter {
	var must []*qdrant.Condition
	if filter.TenantId != "" {
		must = append(must, qdrant.NewMatch("tenant_id", filter.TenantId))
	}
	if filter.ItemId != "" {
		must = append(must, qdrant.NewMatch("item_id", filter.ItemId))
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

func decodePayload(payload map[string]*qdrant.Value) map[string]any {
	decoded := make(map[string]any, len(payload))
	for key, value := range payload {
		switch v := value.GetKind().(type) {
		case *qdrant.Value_StringValue:
			decoded[key] = v.StringValue
		case *qdrant.Value_IntegerValue:
			decoded[key] = v.IntegerValue
		case *qdrant.Value_DoubleValue:
			decoded[key] = v.DoubleValue
		case *qdrant.Value_BoolValue:
			decoded[key] = v.BoolValue
		}
	}
	return decoded
}
