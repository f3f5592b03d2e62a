package vectorindex

import "context"

// Point is one embedded passage ready for upsert.
type Point struct {
	Id      string
	Vector  []float32
	Payload map[string]any
}

// Hit is a scored search result. Payload carries the passage text plus
// provenance fields (item_id, source_ref, title, passage_index).
type Hit struct {
	Id      string
	Score   float32
	Payload map[string]any
}

// Filter scopes search and delete operations. TenantId is mandatory for
// every query; ItemId additionally narrows to one item's passages.
type Filter struct {
	TenantId string
	ItemId   string
}

// VectorIndex abstracts the similarity index so services never talk to
// the vector database client directly.
type VectorIndex interface {
	EnsureCollection(ctx context.Context, name string, dim uint64) error
	Upsert(ctx context.Context, name string, points []Point) error
	Search(ctx context.Context, name string, vector []float32, k uint64, filter Filter) ([]Hit, error)
	DeleteByFilter(ctx context.Context, name string, filter Filter) error
}
