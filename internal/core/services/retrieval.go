package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
	"github.com/nordvig-labs/byggqa-cli/internal/core/ports/driven"
	"github.com/nordvig-labs/byggqa-cli/internal/logger"
)

// RetrievalResult is the outcome of one retrieval operation.
type RetrievalResult struct {
	// Results are the hits that passed the language threshold, best
	// first. An empty slice is a valid outcome, not an error.
	Results []domain.SearchResult

	// TopSimilarity is the best raw similarity before threshold
	// filtering, zero when nothing was found at all.
	TopSimilarity float64

	// Tier is the store execution tier that served the search.
	Tier driven.SearchTier
}

// RetrievalEngine retrieves the top-K most similar chunks for a query,
// hard-scoped to one indexing run. Query text is embedded with the
// exact model recorded at indexing time; the nearest-neighbour call
// itself applies no distance threshold - minimum-similarity filtering
// happens afterwards using language-specific threshold tiers.
type RetrievalEngine struct {
	store    driven.VectorStore
	embedder driven.EmbeddingService
	runs     driven.RunStore
	cfg      domain.RetrievalConfig
}

// NewRetrievalEngine creates a retrieval engine.
func NewRetrievalEngine(
	store driven.VectorStore,
	embedder driven.EmbeddingService,
	runs driven.RunStore,
	cfg domain.RetrievalConfig,
) *RetrievalEngine {
	if cfg.TopK <= 0 {
		cfg.TopK = domain.DefaultTopK
	}
	return &RetrievalEngine{store: store, embedder: embedder, runs: runs, cfg: cfg}
}

// Retrieve embeds the query variations and returns the merged top-K
// hits for the run, filtered by the language's acceptable threshold.
// An embedding failure aborts retrieval for the query; no stale or
// partial substitute is returned.
func (e *RetrievalEngine) Retrieve(
	ctx context.Context, runID string, variations domain.QueryVariations, language string, topK int,
) (*RetrievalResult, error) {
	if e.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if runID == "" {
		return nil, fmt.Errorf("run id required: %w", domain.ErrInvalidInput)
	}

	logger.Section("Retrieval")

	if err := e.checkModel(ctx, runID); err != nil {
		return nil, err
	}

	k := topK
	if k <= 0 {
		k = e.cfg.TopK
	}
	if k > domain.MaxTopK {
		k = domain.MaxTopK
	}

	texts := variations.All()
	logger.Debug("Embedding %d query representation(s)", len(texts))

	embeddings, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w: %v", domain.ErrRetrievalUnavailable, err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf(
			"embedding count %d does not match input count %d: %w",
			len(embeddings), len(texts), domain.ErrInvariant)
	}

	merged, tier, err := e.searchAll(ctx, runID, embeddings, k)
	if err != nil {
		return nil, err
	}

	result := &RetrievalResult{Tier: tier}
	if len(merged) > 0 {
		result.TopSimilarity = merged[0].Similarity
	}

	threshold := e.cfg.TiersFor(language).Acceptable
	for _, hit := range merged {
		if hit.Similarity < threshold {
			continue
		}
		sr, err := e.hydrate(ctx, hit)
		if err != nil {
			return nil, err
		}
		result.Results = append(result.Results, *sr)
	}

	logger.Info("Retrieved %d/%d hits above threshold %.2f (tier %s, top %.3f)",
		len(result.Results), len(merged), threshold, tier, result.TopSimilarity)
	return result, nil
}

// checkModel verifies the query-time embedding model matches the model
// recorded on the indexing run. Mismatched models make similarity
// scores meaningless.
func (e *RetrievalEngine) checkModel(ctx context.Context, runID string) error {
	if e.runs == nil {
		return nil
	}
	run, err := e.runs.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("get run %s: %w", runID, err)
	}
	if run.EmbeddingModel != "" && run.EmbeddingModel != e.embedder.ModelName() {
		return fmt.Errorf("run %s embedded with %q, query model is %q: %w",
			runID, run.EmbeddingModel, e.embedder.ModelName(), domain.ErrModelMismatch)
	}
	return nil
}

// searchAll runs one nearest-neighbour search per query embedding and
// merges the hits by chunk id, keeping each chunk's best similarity.
func (e *RetrievalEngine) searchAll(
	ctx context.Context, runID string, embeddings [][]float32, k int,
) ([]driven.NearestHit, driven.SearchTier, error) {
	best := make(map[string]float64)
	var tier driven.SearchTier

	for i, emb := range embeddings {
		hits, t, err := e.store.SearchNearest(ctx, runID, emb, k)
		if err != nil {
			return nil, "", fmt.Errorf("search variation %d: %w", i, err)
		}
		tier = t
		for _, h := range hits {
			if h.Similarity > best[h.ChunkID] {
				best[h.ChunkID] = h.Similarity
			}
		}
	}

	merged := make([]driven.NearestHit, 0, len(best))
	for id, sim := range best {
		merged = append(merged, driven.NearestHit{ChunkID: id, Similarity: sim})
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Similarity != merged[j].Similarity {
			return merged[i].Similarity > merged[j].Similarity
		}
		return merged[i].ChunkID < merged[j].ChunkID
	})
	if len(merged) > k {
		merged = merged[:k]
	}
	return merged, tier, nil
}

// hydrate loads the chunk behind a hit into a full search result.
func (e *RetrievalEngine) hydrate(ctx context.Context, hit driven.NearestHit) (*domain.SearchResult, error) {
	chunk, err := e.store.GetChunk(ctx, hit.ChunkID)
	if err != nil {
		return nil, fmt.Errorf("get chunk %s: %w", hit.ChunkID, err)
	}
	return &domain.SearchResult{
		ChunkID:    chunk.ID,
		DocumentID: chunk.DocumentID,
		Content:    chunk.Content,
		Metadata:   chunk.Metadata,
		Similarity: hit.Similarity,
	}, nil
}
