package retriever

import (
	"context"
	"testing"

	"github.com/kunaldev758/chataffy-sub000/pkg/embedding"
	"github.com/kunaldev758/chataffy-sub000/pkg/vectorindex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedProvider struct{}

func (fixedProvider) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 0, 0}},
	}, nil
}

type stubIndex struct {
	hits   []vectorindex.Hit
	filter vectorindex.Filter
}

func (s *stubIndex) EnsureCollection(ctx context.Context, name string, dim uint64) error { return nil }
func (s *stubIndex) Upsert(ctx context.Context, name string, points []vectorindex.Point) error {
	return nil
}
func (s *stubIndex) DeleteByFilter(ctx context.Context, name string, filter vectorindex.Filter) error {
	return nil
}

func (s *stubIndex) Search(ctx context.Context, name string, vector []float32, k uint64, filter vectorindex.Filter) ([]vectorindex.Hit, error) {
	s.filter = filter
	return s.hits, nil
}

func hit(score float32, text string) vectorindex.Hit {
	return vectorindex.Hit{
		Score: score,
		Payload: map[string]any{
			"item_id":    "item-1",
			"source_ref": "https://example.com/page",
			"title":      "Page",
			"text":       text,
		},
	}
}

func TestRetrieveFiltersByThreshold(t *testing.T) {
	index := &stubIndex{hits: []vectorindex.Hit{
		hit(0.82, "strong match"),
		hit(0.55, "decent match"),
		hit(0.31, "weak match"),
	}}
	r := NewRetriever(fixedProvider{}, index, "tenant_passages", 5, 0.15, 0.2)

	res, err := r.Retrieve(context.Background(), "tenant-a", "how much is the plan?", 0.4)
	require.NoError(t, err)

	assert.InDelta(t, 0.82, res.MaxScore, 1e-6)
	assert.False(t, res.Relaxed)
	require.Len(t, res.Passages, 2)
	assert.Equal(t, "strong match", res.Passages[0].Text)
	assert.Equal(t, "decent match", res.Passages[1].Text)
	assert.Equal(t, "tenant-a", index.filter.TenantId)
}

func TestRetrieveRelaxesThresholdOnce(t *testing.T) {
	index := &stubIndex{hits: []vectorindex.Hit{
		hit(0.37, "borderline match"),
	}}
	r := NewRetriever(fixedProvider{}, index, "tenant_passages", 5, 0.15, 0.2)

	// 0.5 admits nothing; one relax step to 0.35 admits the hit.
	res, err := r.Retrieve(context.Background(), "tenant-a", "question", 0.5)
	require.NoError(t, err)

	assert.True(t, res.Relaxed)
	require.Len(t, res.Passages, 1)
	assert.Equal(t, "borderline match", res.Passages[0].Text)
}

func TestRetrieveRelaxationStopsAtFloor(t *testing.T) {
	index := &stubIndex{hits: []vectorindex.Hit{
		hit(0.1, "far below the floor"),
	}}
	r := NewRetriever(fixedProvider{}, index, "tenant_passages", 5, 0.15, 0.2)

	res, err := r.Retrieve(context.Background(), "tenant-a", "question", 0.25)
	require.NoError(t, err)

	// The relaxed threshold clamps at 0.2, which still excludes 0.1.
	assert.False(t, res.Relaxed)
	assert.Empty(t, res.Passages)
	assert.InDelta(t, 0.1, res.MaxScore, 1e-6)
}

func TestRetrieveEmptyIndex(t *testing.T) {
	index := &stubIndex{}
	r := NewRetriever(fixedProvider{}, index, "tenant_passages", 5, 0.15, 0.2)

	res, err := r.Retrieve(context.Background(), "tenant-a", "question", 0.4)
	require.NoError(t, err)

	assert.Empty(t, res.Passages)
	assert.Zero(t, res.MaxScore)
	assert.False(t, res.Relaxed)
}
