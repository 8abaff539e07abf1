// Package postgres provides a vector store adapter backed by
// PostgreSQL with the pgvector extension.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
	"github.com/nordvig-labs/byggqa-cli/internal/core/ports/driven"
	"github.com/nordvig-labs/byggqa-cli/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Config holds configuration for the PostgreSQL vector store.
type Config struct {
	// DSN is the PostgreSQL connection string (required).
	DSN string

	// Dimensions is the embedding vector size (required).
	Dimensions int

	// MaxInMemoryCorpus bounds the in-memory fallback tier. Zero uses
	// the domain default.
	MaxInMemoryCorpus int
}

// Store persists embedded chunks in PostgreSQL and serves
// nearest-neighbour queries through a tier chain: an HNSW index when
// one exists, an un-indexed distance query otherwise, and client-side
// cosine over the run's fetched embeddings as the last resort. All
// tiers return the same ordered top-K for identical inputs.
type Store struct {
	pool        *pgxpool.Pool
	maxInMemory int
	hasIndex    bool
}

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS chunks (
	id                 TEXT PRIMARY KEY,
	run_id             TEXT NOT NULL,
	document_id        TEXT NOT NULL,
	chunk_type         TEXT NOT NULL,
	content            TEXT NOT NULL,
	source_element_ids TEXT[] NOT NULL,
	page_number        INT NOT NULL,
	section_title      TEXT NOT NULL DEFAULT '',
	chunk_index        INT NOT NULL,
	total_chunks       INT NOT NULL,
	chunk_size         INT NOT NULL,
	below_minimum      BOOLEAN NOT NULL DEFAULT FALSE,
	embedding          VECTOR(%d) NOT NULL
);

CREATE INDEX IF NOT EXISTS chunks_run_id_idx ON chunks (run_id);
`

// annIndex is attempted separately: older pgvector builds lack HNSW,
// and the store degrades to the scan tier without it.
const annIndex = `
CREATE INDEX IF NOT EXISTS chunks_embedding_hnsw_idx
ON chunks USING hnsw (embedding vector_cosine_ops);
`

// New connects to PostgreSQL, ensures the schema, and probes for the
// nearest-neighbour index.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres: DSN is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("postgres: dimensions must be positive")
	}
	if cfg.MaxInMemoryCorpus <= 0 {
		cfg.MaxInMemoryCorpus = domain.DefaultMaxInMemoryCorpus
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if _, err := pool.Exec(ctx, fmt.Sprintf(schema, cfg.Dimensions)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	s := &Store{pool: pool, maxInMemory: cfg.MaxInMemoryCorpus}
	if _, err := pool.Exec(ctx, annIndex); err != nil {
		logger.Warn("HNSW index unavailable, nearest-neighbour queries fall back to scan: %v", err)
	} else {
		s.hasIndex = true
	}
	return s, nil
}

// UpsertChunks stores a run's embedded chunks in one batch.
func (s *Store) UpsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range chunks {
		batch.Queue(`
			INSERT INTO chunks (
				id, run_id, document_id, chunk_type, content,
				source_element_ids, page_number, section_title,
				chunk_index, total_chunks, chunk_size, below_minimum,
				embedding
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (id) DO UPDATE SET
				content = EXCLUDED.content,
				source_element_ids = EXCLUDED.source_element_ids,
				page_number = EXCLUDED.page_number,
				section_title = EXCLUDED.section_title,
				chunk_index = EXCLUDED.chunk_index,
				total_chunks = EXCLUDED.total_chunks,
				chunk_size = EXCLUDED.chunk_size,
				below_minimum = EXCLUDED.below_minimum,
				embedding = EXCLUDED.embedding`,
			c.ID, c.RunID, c.DocumentID, string(c.Type), c.Content,
			c.SourceElementIDs, c.Metadata.PageNumber, c.Metadata.SectionTitle,
			c.Metadata.ChunkIndex, c.Metadata.TotalChunks, c.Metadata.ChunkSize,
			c.Metadata.BelowMinimum, pgvector.NewVector(c.Embedding),
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range chunks {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert chunk: %w", err)
		}
	}
	return nil
}

// SearchNearest returns the k nearest chunks for the query vector
// within one run. Server-side tiers share the same SQL; they differ
// only in whether the planner can use the HNSW index.
func (s *Store) SearchNearest(
	ctx context.Context, runID string, query []float32, k int,
) ([]driven.NearestHit, driven.SearchTier, error) {
	hits, err := s.searchServer(ctx, runID, query, k)
	if err == nil {
		if s.hasIndex {
			return hits, driven.TierIndexed, nil
		}
		return hits, driven.TierScan, nil
	}
	logger.Warn("Server-side nearest-neighbour query failed, trying in-memory tier: %v", err)

	hits, memErr := s.searchInMemory(ctx, runID, query, k)
	if memErr != nil {
		return nil, "", fmt.Errorf("all search tiers failed: %w (server: %v)", memErr, err)
	}
	return hits, driven.TierInMemory, nil
}

func (s *Store) searchServer(ctx context.Context, runID string, query []float32, k int) ([]driven.NearestHit, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, 1 - (embedding <=> $2) AS similarity
		FROM chunks
		WHERE run_id = $1
		ORDER BY embedding <=> $2
		LIMIT $3`,
		runID, pgvector.NewVector(query), k,
	)
	if err != nil {
		return nil, fmt.Errorf("query nearest: %w", err)
	}
	defer rows.Close()

	var hits []driven.NearestHit
	for rows.Next() {
		var h driven.NearestHit
		if err := rows.Scan(&h.ChunkID, &h.Similarity); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hits: %w", err)
	}
	return hits, nil
}

// searchInMemory fetches the run's embeddings and ranks client-side.
// Refused above the configured corpus size to bound memory use.
func (s *Store) searchInMemory(ctx context.Context, runID string, query []float32, k int) ([]driven.NearestHit, error) {
	count, err := s.CountChunks(ctx, runID)
	if err != nil {
		return nil, err
	}
	if count > s.maxInMemory {
		return nil, fmt.Errorf("run %s has %d chunks, cap is %d: %w",
			runID, count, s.maxInMemory, domain.ErrCorpusTooLarge)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, embedding FROM chunks WHERE run_id = $1`, runID)
	if err != nil {
		return nil, fmt.Errorf("fetch embeddings: %w", err)
	}
	defer rows.Close()

	var hits []driven.NearestHit
	for rows.Next() {
		var id string
		var vec pgvector.Vector
		if err := rows.Scan(&id, &vec); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		hits = append(hits, driven.NearestHit{ChunkID: id, Similarity: cosineSimilarity(query, vec.Slice())})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embeddings: %w", err)
	}

	return rankHits(hits, k), nil
}

// rankHits orders hits by similarity descending, breaking ties by
// chunk id, and truncates to the top k. Every tier honours this
// ordering contract.
func rankHits(hits []driven.NearestHit, k int) []driven.NearestHit {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// GetChunk retrieves a stored chunk by id.
func (s *Store) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	var c domain.Chunk
	var chunkType string
	var vec pgvector.Vector

	err := s.pool.QueryRow(ctx, `
		SELECT id, run_id, document_id, chunk_type, content,
		       source_element_ids, page_number, section_title,
		       chunk_index, total_chunks, chunk_size, below_minimum,
		       embedding
		FROM chunks WHERE id = $1`, id,
	).Scan(
		&c.ID, &c.RunID, &c.DocumentID, &chunkType, &c.Content,
		&c.SourceElementIDs, &c.Metadata.PageNumber, &c.Metadata.SectionTitle,
		&c.Metadata.ChunkIndex, &c.Metadata.TotalChunks, &c.Metadata.ChunkSize,
		&c.Metadata.BelowMinimum, &vec,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("chunk %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get chunk: %w", err)
	}

	c.Type = domain.ElementType(chunkType)
	c.Embedding = vec.Slice()
	return &c, nil
}

// CountChunks returns the number of chunks stored for a run.
func (s *Store) CountChunks(ctx context.Context, runID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM chunks WHERE run_id = $1`, runID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return count, nil
}

// DeleteRun removes a run's chunks.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM chunks WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
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
