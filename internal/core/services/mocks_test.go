package services

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
	"github.com/nordvig-labs/byggqa-cli/internal/core/ports/driven"
)

// --- Mock implementations shared across service tests ---

// mockEmbeddingService produces deterministic embeddings from text so
// retrieval tests can reason about similarity ordering.
type mockEmbeddingService struct {
	model      string
	dimensions int
	embedErr   error
	vectors    map[string][]float32
	calls      int
}

func newMockEmbedder() *mockEmbeddingService {
	return &mockEmbeddingService{model: "test-embed-1", dimensions: 4, vectors: map[string][]float32{}}
}

func (m *mockEmbeddingService) vectorFor(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	// Cheap deterministic hash vector.
	v := make([]float32, m.dimensions)
	for i, r := range text {
		v[i%m.dimensions] += float32(r%13) / 13
	}
	var norm float32
	for _, x := range v {
		norm += x * x
	}
	if norm > 0 {
		n := float32(math.Sqrt(float64(norm)))
		for i := range v {
			v[i] /= n
		}
	}
	return v
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	m.calls++
	return m.vectorFor(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vectorFor(t)
		m.calls++
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int               { return m.dimensions }
func (m *mockEmbeddingService) ModelName() string             { return m.model }
func (m *mockEmbeddingService) Ping(_ context.Context) error  { return nil }
func (m *mockEmbeddingService) Close() error                  { return nil }

// mockCompletionService answers by prompt lookup with optional delay.
type mockCompletionService struct {
	reply    string
	replies  map[string]string // matched by prompt prefix
	delay    time.Duration
	err      error
	mu       sync.Mutex
	prompts  []string
}

func (m *mockCompletionService) Complete(ctx context.Context, prompt string, _ driven.CompleteOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.err != nil {
		return "", m.err
	}
	for prefix, reply := range m.replies {
		if len(prompt) >= len(prefix) && prompt[:len(prefix)] == prefix {
			return reply, nil
		}
	}
	return m.reply, nil
}

func (m *mockCompletionService) ModelName() string            { return "test-llm" }
func (m *mockCompletionService) Ping(_ context.Context) error { return nil }
func (m *mockCompletionService) Close() error                 { return nil }

// mockVectorStore keeps chunks in memory and serves exact cosine
// nearest-neighbour queries.
type mockVectorStore struct {
	mu        sync.Mutex
	chunks    map[string]domain.Chunk
	lastK     int
	upsertErr error
	searchErr error
}

func newMockVectorStore() *mockVectorStore {
	return &mockVectorStore{chunks: map[string]domain.Chunk{}}
}

func (m *mockVectorStore) UpsertChunks(_ context.Context, chunks []domain.Chunk) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		m.chunks[c.ID] = c
	}
	return nil
}

func (m *mockVectorStore) SearchNearest(
	_ context.Context, runID string, query []float32, k int,
) ([]driven.NearestHit, driven.SearchTier, error) {
	if m.searchErr != nil {
		return nil, "", m.searchErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastK = k

	var hits []driven.NearestHit
	for _, c := range m.chunks {
		if c.RunID != runID {
			continue
		}
		hits = append(hits, driven.NearestHit{ChunkID: c.ID, Similarity: cosine(query, c.Embedding)})
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

func (m *mockVectorStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (m *mockVectorStore) CountChunks(_ context.Context, runID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.chunks {
		if c.RunID == runID {
			n++
		}
	}
	return n, nil
}

func (m *mockVectorStore) DeleteRun(_ context.Context, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.chunks {
		if c.RunID == runID {
			delete(m.chunks, id)
		}
	}
	return nil
}

func (m *mockVectorStore) Close() error { return nil }

func cosine(a, b []float32) float64 {
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

// mockRunStore persists runs in memory.
type mockRunStore struct {
	mu      sync.Mutex
	runs    map[string]domain.IndexingRun
	order   []string
	saveErr error
	saves   int
}

func newMockRunStore() *mockRunStore {
	return &mockRunStore{runs: map[string]domain.IndexingRun{}}
}

func (m *mockRunStore) SaveRun(_ context.Context, run *domain.IndexingRun) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.ID]; !ok {
		m.order = append(m.order, run.ID)
	}
	cp := *run
	cp.Steps = append([]domain.StepResult(nil), run.Steps...)
	m.runs[run.ID] = cp
	m.saves++
	return nil
}

func (m *mockRunStore) GetRun(_ context.Context, id string) (*domain.IndexingRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &run, nil
}

func (m *mockRunStore) LatestRun(_ context.Context, documentID string) (*domain.IndexingRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.order) - 1; i >= 0; i-- {
		if run := m.runs[m.order[i]]; run.DocumentID == documentID {
			return &run, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockRunStore) ListRuns(_ context.Context) ([]domain.IndexingRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.IndexingRun, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		out = append(out, m.runs[m.order[i]])
	}
	return out, nil
}

// mockQueryRunStore records saved query runs.
type mockQueryRunStore struct {
	mu      sync.Mutex
	saved   []domain.QueryRun
	saveErr error
}

func (m *mockQueryRunStore) SaveQueryRun(_ context.Context, run *domain.QueryRun) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, *run)
	return nil
}

func (m *mockQueryRunStore) ListQueryRuns(_ context.Context, limit int) ([]domain.QueryRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]domain.QueryRun(nil), m.saved...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// mockElementSource serves a fixed element list.
type mockElementSource struct {
	elements []domain.Element
	err      error
}

func (m *mockElementSource) Elements(_ context.Context, _ string) ([]domain.Element, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.elements, nil
}

// mockTaskRunner executes tasks synchronously and counts them.
type mockTaskRunner struct {
	mu    sync.Mutex
	count int
}

func (m *mockTaskRunner) Submit(fn func(ctx context.Context)) {
	m.mu.Lock()
	m.count++
	m.mu.Unlock()
	fn(context.Background())
}

func (m *mockTaskRunner) Close() error { return nil }
