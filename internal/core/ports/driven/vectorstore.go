package driven

import (
	"context"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
)

// SearchTier identifies which nearest-neighbour execution path served
// a search. The tiers are functionally equivalent: for identical
// inputs all tiers return the same ordered top-K chunk ids.
type SearchTier string

const (
	// TierIndexed is a server-side indexed nearest-neighbour search.
	TierIndexed SearchTier = "indexed"
	// TierScan is a server-side un-indexed distance-operator query.
	TierScan SearchTier = "scan"
	// TierInMemory is client-side cosine similarity over all fetched
	// embeddings for the run. Refused above a configured corpus size.
	TierInMemory SearchTier = "in_memory"
)

// NearestHit is one nearest-neighbour candidate, ordered by ascending
// distance. Similarity is 1 - cosine distance, in [0,1].
type NearestHit struct {
	ChunkID    string
	Similarity float64
}

// VectorStore persists chunks with their embeddings and serves
// nearest-neighbour queries scoped to one indexing run.
//
// Writes are append-only at run granularity: a run's chunks are stored
// once and never mutated. SearchNearest must not apply any distance
// threshold - exact K-nearest semantics are required even when some
// neighbours are weak matches.
type VectorStore interface {
	// UpsertChunks stores a run's embedded chunks.
	UpsertChunks(ctx context.Context, chunks []domain.Chunk) error

	// SearchNearest returns the k nearest chunks for the query vector
	// within one indexing run, ordered by ascending distance, along
	// with the tier that served the query.
	SearchNearest(ctx context.Context, runID string, query []float32, k int) ([]NearestHit, SearchTier, error)

	// GetChunk retrieves a stored chunk by id.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// CountChunks returns the number of chunks stored for a run.
	CountChunks(ctx context.Context, runID string) (int, error)

	// DeleteRun removes a run's chunks. Re-indexing never mutates an
	// old run; it writes a new one and may delete the old afterwards.
	DeleteRun(ctx context.Context, runID string) error

	// Close releases resources.
	Close() error
}
