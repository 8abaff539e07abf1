// Package memory provides an in-memory vector store for tests and
// small corpora.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
	"github.com/nordvig-labs/byggqa-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store keeps embedded chunks in memory and serves exact cosine
// nearest-neighbour queries. It honours the same corpus cap as the
// in-memory tier of the PostgreSQL store, so the two are
// interchangeable below the cap.
type Store struct {
	mu          sync.RWMutex
	chunks      map[string]domain.Chunk
	maxInMemory int
}

// New creates an in-memory store. maxCorpus bounds the per-run corpus
// a search will rank; zero uses the domain default.
func New(maxCorpus int) *Store {
	if maxCorpus <= 0 {
		maxCorpus = domain.DefaultMaxInMemoryCorpus
	}
	return &Store{
		chunks:      make(map[string]domain.Chunk),
		maxInMemory: maxCorpus,
	}
}

// UpsertChunks stores a run's embedded chunks.
func (s *Store) UpsertChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		s.chunks[c.ID] = c
	}
	return nil
}

// SearchNearest returns the k nearest chunks for the query vector
// within one run, ordered by descending similarity with chunk id as
// the tie-break.
func (s *Store) SearchNearest(
	_ context.Context, runID string, query []float32, k int,
) ([]driven.NearestHit, driven.SearchTier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, c := range s.chunks {
		if c.RunID == runID {
			count++
		}
	}
	if count > s.maxInMemory {
		return nil, "", fmt.Errorf("run %s has %d chunks, cap is %d: %w",
			runID, count, s.maxInMemory, domain.ErrCorpusTooLarge)
	}

	var hits []driven.NearestHit
	for _, c := range s.chunks {
		if c.RunID != runID {
			continue
		}
		hits = append(hits, driven.NearestHit{
			ChunkID:    c.ID,
			Similarity: cosineSimilarity(query, c.Embedding),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, driven.TierInMemory, nil
}

// GetChunk retrieves a stored chunk by id.
func (s *Store) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[id]
	if !ok {
		return nil, fmt.Errorf("chunk %s: %w", id, domain.ErrNotFound)
	}
	return &c, nil
}

// CountChunks returns the number of chunks stored for a run.
func (s *Store) CountChunks(_ context.Context, runID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, c := range s.chunks {
		if c.RunID == runID {
			count++
		}
	}
	return count, nil
}

// DeleteRun removes a run's chunks.
func (s *Store) DeleteRun(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.chunks {
		if c.RunID == runID {
			delete(s.chunks, id)
		}
	}
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		if i >= len(b) {
			break
		}
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
