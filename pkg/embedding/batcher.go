package embedding

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Task types passed through to providers that distinguish them (Gemini).
const (
	TaskTypeDocument = "RETRIEVAL_DOCUMENT"
	TaskTypeQuery    = "RETRIEVAL_QUERY"
)

// Batcher embeds many passages with bounded provider fan-out. One failed
// passage fails the whole batch; the caller retries the item as a unit.
type Batcher struct {
	provider    EmbeddingProvider
	concurrency int
}

func NewBatcher(provider EmbeddingProvider, concurrency int) *Batcher {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Batcher{
		provider:    provider,
		concurrency: concurrency,
	}
}

// GenerateBatch returns one vector per input text, order preserved.
func (b *Batcher) GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, text := range texts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := b.provider.Generate(text, taskType)
			if err != nil {
				return fmt.Errorf("embed passage %d: %w", i, err)
			}
			vectors[i] = res.Embedding.Values
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
