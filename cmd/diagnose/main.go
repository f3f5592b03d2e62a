package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kunaldev758/chataffy-sub000/internal/config"
	"github.com/kunaldev758/chataffy-sub000/pkg/embedding"
	"github.com/kunaldev758/chataffy-sub000/pkg/rag/retriever"
	qdrantindex "github.com/kunaldev758/chataffy-sub000/pkg/vectorindex/qdrant"

	"github.com/fatih/color"
)

// Retrieval diagnostic: run a query against a tenant's indexed passages
// and show raw scores, so threshold tuning doesn't require guesswork.
func main() {
	tenantId := flag.String("tenant", "", "tenant id (required)")
	query := flag.String("query", "", "question to retrieve for (required)")
	threshold := flag.Float64("threshold", 0, "score threshold override (0 = engine default)")
	flag.Parse()

	if *tenantId == "" || *query == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.Load()
	if *threshold <= 0 {
		*threshold = cfg.Retrieval.ScoreThreshold
	}

	color.Cyan("🔍 Retrieval Diagnostic\n")
	color.Yellow("Tenant:    %s", *tenantId)
	color.Yellow("Query:     %s", *query)
	color.Yellow("Threshold: %.2f (cutoff %.2f, relax %.2f, floor %.2f)\n",
		*threshold, cfg.Retrieval.IrrelevantCutoff, cfg.Retrieval.ThresholdRelaxStep, cfg.Retrieval.ThresholdFloor)

	var provider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		provider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	} else {
		provider = embedding.NewGeminiProvider(cfg.Ai.GeminiAPIKey)
	}

	index, err := qdrantindex.NewIndex(cfg.Qdrant.Host, cfg.Qdrant.Port)
	if err != nil {
		color.Red("Failed to connect to qdrant: %v", err)
		os.Exit(1)
	}
	defer index.Close()

	ret := retriever.NewRetriever(
		provider,
		index,
		cfg.Qdrant.Collection,
		cfg.Retrieval.TopK,
		cfg.Retrieval.ThresholdRelaxStep,
		cfg.Retrieval.ThresholdFloor,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := ret.Retrieve(ctx, *tenantId, *query, *threshold)
	if err != nil {
		color.Red("Retrieval failed: %v", err)
		os.Exit(1)
	}

	color.Cyan("Max score: %.4f", res.MaxScore)
	if res.MaxScore < cfg.Retrieval.IrrelevantCutoff {
		color.Red("Verdict: IRRELEVANT (below cutoff %.2f) → redirect", cfg.Retrieval.IrrelevantCutoff)
	} else if len(res.Passages) == 0 {
		color.Red("Verdict: NO PASSAGES above threshold → redirect")
	} else if res.Relaxed {
		color.Yellow("Verdict: GROUNDED via relaxed threshold")
	} else {
		color.Green("Verdict: GROUNDED")
	}

	for i, p := range res.Passages {
		fmt.Println()
		color.Green("[%d] score=%.4f  %s", i+1, p.Score, p.SourceRef)
		if p.Title != "" {
			color.Yellow("    title: %s", p.Title)
		}
		text := p.Text
		if len(text) > 300 {
			text = text[:300] + "…"
		}
		fmt.Printf("    %s\n", text)
	}

	if len(res.Passages) == 0 {
		fmt.Println()
		color.Yellow("No passages passed the threshold. Try --threshold %.2f",
			maxFloat(cfg.Retrieval.ThresholdFloor, res.MaxScore-0.05))
	}
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
