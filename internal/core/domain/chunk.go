package domain

// Chunk is a retrieval-sized unit of content derived from one or more
// source elements. Chunks are created once per indexing run and are
// immutable thereafter; re-indexing produces a new chunk set under a
// new run identifier.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// RunID is the indexing run this chunk belongs to. Retrieval is
	// always scoped to exactly one run.
	RunID string

	// DocumentID links to the source document.
	DocumentID string

	// Type is the element type the chunk was derived from. Chunks
	// merged from list fragments are text.
	Type ElementType

	// Content is the chunk text.
	Content string

	// SourceElementIDs lists the element(s) the chunk was derived
	// from, in document order. Always at least one.
	SourceElementIDs []string

	// Metadata carries provenance and sizing details.
	Metadata ChunkMetadata

	// Embedding is the vector representation. Nil until the embedding
	// step runs; never altered in place afterwards.
	Embedding []float32
}

// ChunkMetadata carries per-chunk provenance, stamped from the actual
// upstream element and splitting results rather than literals.
type ChunkMetadata struct {
	// PageNumber is the page of the first source element.
	PageNumber int

	// SectionTitle is inherited from the nearest preceding element
	// that carried one.
	SectionTitle string

	// ChunkIndex is the 0-based position among chunks split from the
	// same element. Zero for unsplit chunks.
	ChunkIndex int

	// TotalChunks is the number of chunks the source element was
	// split into. One for unsplit chunks.
	TotalChunks int

	// ChunkSize is len(Content) at finalisation time.
	ChunkSize int

	// BelowMinimum flags a chunk left below the minimum size because
	// no neighbor could absorb it without overflowing the maximum.
	BelowMinimum bool
}

// ChunkStats summarises one document's finalised chunk list. Produced
// by every chunking run; mandatory output, not an optional extra.
type ChunkStats struct {
	// TotalChunks is the number of finalised chunks.
	TotalChunks int

	// CountByType maps element type to chunk count.
	CountByType map[ElementType]int

	// MinSize, AvgSize and MaxSize describe content lengths.
	MinSize int
	AvgSize int
	MaxSize int

	// MergedChunks is the number of below-minimum chunks that were
	// absorbed into a neighbor.
	MergedChunks int

	// FlaggedChunks is the number of chunks left standalone below the
	// minimum because merging would have overflowed the maximum.
	FlaggedChunks int

	// DroppedElements is the number of elements discarded as noise or
	// empty during filtering.
	DroppedElements int
}

// CollectStats computes summary statistics over a finalised chunk list.
func CollectStats(chunks []Chunk) ChunkStats {
	stats := ChunkStats{
		TotalChunks: len(chunks),
		CountByType: make(map[ElementType]int),
	}
	if len(chunks) == 0 {
		return stats
	}

	total := 0
	stats.MinSize = len(chunks[0].Content)
	for _, c := range chunks {
		size := len(c.Content)
		total += size
		if size < stats.MinSize {
			stats.MinSize = size
		}
		if size > stats.MaxSize {
			stats.MaxSize = size
		}
		stats.CountByType[c.Type]++
		if c.Metadata.BelowMinimum {
			stats.FlaggedChunks++
		}
	}
	stats.AvgSize = total / len(chunks)
	return stats
}
