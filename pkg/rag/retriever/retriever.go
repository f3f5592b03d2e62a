package retriever

import (
	"context"
	"fmt"

	"github.com/kunaldev758/chataffy-sub000/pkg/embedding"
	"github.com/kunaldev758/chataffy-sub000/pkg/vectorindex"
)

// Passage is one retrieved context passage with its provenance.
type Passage struct {
	ItemId    string
	SourceRef string
	Title     string
	Text      string
	Score     float64
}

// Result carries the passages that survived the score threshold, best
// first. MaxScore is the best raw score before any filtering, so the
// caller can tell "nothing relevant at all" apart from "relevant but
// below this tenant's bar". Relaxed is set when the threshold had to be
// lowered once to admit anything.
type Result struct {
	Passages []Passage
	MaxScore float64
	Relaxed  bool
}

type Retriever struct {
	provider   embedding.EmbeddingProvider
	index      vectorindex.VectorIndex
	collection string
	topK       uint64
	relaxStep  float64
	floor      float64
}

func NewRetriever(
	provider embedding.EmbeddingProvider,
	index vectorindex.VectorIndex,
	collection string,
	topK int,
	relaxStep float64,
	floor float64,
) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{
		provider:   provider,
		index:      index,
		collection: collection,
		topK:       uint64(topK),
		relaxStep:  relaxStep,
		floor:      floor,
	}
}

// Retrieve embeds the query and returns the tenant's passages scoring at
// or above threshold. When the threshold admits nothing it is relaxed a
// single step (never below the floor) before giving up.
func (r *Retriever) Retrieve(ctx context.Context, tenantId string, query string, threshold float64) (*Result, error) {
	res, err := r.provider.Generate(query, embedding.TaskTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.index.Search(ctx, r.collection, res.Embedding.Values, r.topK, vectorindex.Filter{
		TenantId: tenantId,
	})
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	result := &Result{}
	for _, hit := range hits {
		if float64(hit.Score) > result.MaxScore {
			result.MaxScore = float64(hit.Score)
		}
	}

	result.Passages = filterByScore(hits, threshold)
	if len(result.Passages) == 0 && len(hits) > 0 {
		relaxed := threshold - r.relaxStep
		if relaxed < r.floor {
			relaxed = r.floor
		}
		if relaxed < threshold {
			result.Passages = filterByScore(hits, relaxed)
			result.Relaxed = len(result.Passages) > 0
		}
	}

	return result, nil
}

func filterByScore(hits []vectorindex.Hit, threshold float64) []Passage {
	var passages []Passage
	for _, hit := range hits {
		if float64(hit.Score) < threshold {
			continue
		}
		passages = append(passages, Passage{
			ItemId:    payloadString(hit.Payload, "item_id"),
			SourceRef: payloadString(hit.Payload, "source_ref"),
			Title:     payloadString(hit.Payload, "title"),
			Text:      payloadString(hit.Payload, "text"),
			Score:     float64(hit.Score),
		})
	}
	return passages
}

func payloadString(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}
