package services

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
	"github.com/nordvig-labs/byggqa-cli/internal/logger"
)

// ChunkingEngine turns one document's element stream into a finalised
// chunk list honouring the size invariants and type semantics.
// Configuration is injected at construction and never mutated.
type ChunkingEngine struct {
	cfg domain.ChunkingConfig
}

// NewChunkingEngine creates a chunking engine with the given
// configuration. Zero fields fall back to defaults.
func NewChunkingEngine(cfg domain.ChunkingConfig) *ChunkingEngine {
	def := domain.DefaultChunkingConfig()
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = def.MaxChunkSize
	}
	if cfg.TargetChunkSize <= 0 {
		cfg.TargetChunkSize = def.TargetChunkSize
	}
	if cfg.OverlapSize < 0 {
		cfg.OverlapSize = def.OverlapSize
	}
	if cfg.MinChunkSize <= 0 {
		cfg.MinChunkSize = def.MinChunkSize
	}
	if cfg.MergeSeparator == "" {
		cfg.MergeSeparator = def.MergeSeparator
	}
	return &ChunkingEngine{cfg: cfg}
}

// Config returns the engine's configuration.
func (e *ChunkingEngine) Config() domain.ChunkingConfig {
	return e.cfg
}

// ChunkDocument converts a document's elements into finalised chunks.
// Processing order is fixed: noise filtering, list grouping, type
// dispatch with semantic splitting, minimum-size merging, metadata
// stamping. The returned statistics are a mandatory part of the
// output.
func (e *ChunkingEngine) ChunkDocument(
	runID, documentID string, elements []domain.Element,
) ([]domain.Chunk, domain.ChunkStats, error) {
	logger.Section("Chunking")
	logger.Debug("Document %s: %d elements", documentID, len(elements))

	for _, el := range elements {
		if el.ID == "" || !el.Type.Valid() {
			return nil, domain.ChunkStats{}, fmt.Errorf(
				"element %q type %q: %w", el.ID, el.Type, domain.ErrUpstreamData)
		}
	}

	logical, dropped := classifyElements(elements)
	logger.Debug("After classification: %d logical elements, %d dropped", len(logical), dropped)

	chunks := make([]domain.Chunk, 0, len(logical))
	section := ""
	for _, le := range logical {
		// Section titles are inherited from the nearest preceding
		// element that carried one.
		if le.SectionTitle != "" {
			section = le.SectionTitle
		}

		built, err := e.dispatch(runID, documentID, le, section)
		if err != nil {
			return nil, domain.ChunkStats{}, err
		}
		chunks = append(chunks, built...)
	}

	chunks, mergedCount := e.mergeSmallChunks(chunks)

	for i := range chunks {
		chunks[i].Metadata.ChunkSize = len(chunks[i].Content)
	}

	stats := domain.CollectStats(chunks)
	stats.MergedChunks = mergedCount
	stats.DroppedElements = dropped

	logger.Info("Chunked %s: %d chunks (%d merged, %d flagged, %d elements dropped)",
		documentID, stats.TotalChunks, stats.MergedChunks, stats.FlaggedChunks, stats.DroppedElements)
	return chunks, stats, nil
}

// dispatch builds the chunk(s) for one logical element. The switch is
// exhaustive over the closed element type set.
func (e *ChunkingEngine) dispatch(
	runID, documentID string, le logicalElement, section string,
) ([]domain.Chunk, error) {
	switch le.Type {
	case domain.ElementText:
		return e.textChunks(runID, documentID, le, section)

	case domain.ElementTable:
		content := le.Content
		if le.Caption != "" {
			content = le.Caption + "\n" + content
		}
		return []domain.Chunk{e.newChunk(runID, documentID, le, section, content, 0, 1)}, nil

	case domain.ElementImage:
		caption := le.Content
		if caption == "" {
			caption = le.Caption
		}
		if caption == "" {
			logger.Debug("Image element %s has no caption, skipping", le.ID)
			return nil, nil
		}
		return []domain.Chunk{e.newChunk(runID, documentID, le, section, caption, 0, 1)}, nil

	default:
		return nil, fmt.Errorf("element %q type %q: %w", le.ID, le.Type, domain.ErrUpstreamData)
	}
}

// textChunks builds chunks for a text element, splitting semantically
// when the content exceeds the maximum chunk size.
func (e *ChunkingEngine) textChunks(
	runID, documentID string, le logicalElement, section string,
) ([]domain.Chunk, error) {
	if len(le.Content) <= e.cfg.MaxChunkSize {
		return []domain.Chunk{e.newChunk(runID, documentID, le, section, le.Content, 0, 1)}, nil
	}

	pieces := splitText(le.Content, e.cfg.TargetChunkSize, e.cfg.OverlapSize)
	if len(pieces) == 0 {
		return nil, fmt.Errorf(
			"splitting element %q (%d bytes) produced zero pieces: %w",
			le.ID, len(le.Content), domain.ErrInvariant)
	}

	logger.Debug("Split element %s (%d bytes) into %d pieces", le.ID, len(le.Content), len(pieces))

	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, e.newChunk(runID, documentID, le, section, piece, i, len(pieces)))
	}
	return chunks, nil
}

// newChunk builds a chunk with metadata stamped from the actual
// element and splitting results. Chunk ids are deterministic so that
// re-chunking identical input yields an identical list.
func (e *ChunkingEngine) newChunk(
	runID, documentID string, le logicalElement, section, content string, index, total int,
) domain.Chunk {
	ids := make([]string, len(le.sourceIDs))
	copy(ids, le.sourceIDs)

	return domain.Chunk{
		ID:               chunkID(runID, le.ID, index),
		RunID:            runID,
		DocumentID:       documentID,
		Type:             le.Type,
		Content:          content,
		SourceElementIDs: ids,
		Metadata: domain.ChunkMetadata{
			PageNumber:   le.PageNumber,
			SectionTitle: section,
			ChunkIndex:   index,
			TotalChunks:  total,
			ChunkSize:    len(content),
		},
	}
}

// mergeSmallChunks absorbs below-minimum text chunks into a
// neighbouring text chunk: the preceding one in document order, or the
// following one when no preceding chunk exists. A merge that would
// push the result above the maximum is skipped and the chunk is left
// standalone, flagged. Table and image chunks never participate.
func (e *ChunkingEngine) mergeSmallChunks(chunks []domain.Chunk) ([]domain.Chunk, int) {
	merged := 0
	out := make([]domain.Chunk, 0, len(chunks))

	for i := 0; i < len(chunks); i++ {
		c := chunks[i]

		if c.Type != domain.ElementText || len(c.Content) >= e.cfg.MinChunkSize {
			out = append(out, c)
			continue
		}

		// Preceding neighbour first.
		if n := len(out); n > 0 && e.canAbsorb(out[n-1], c) {
			out[n-1].Content += e.cfg.MergeSeparator + c.Content
			out[n-1].SourceElementIDs = append(out[n-1].SourceElementIDs, c.SourceElementIDs...)
			merged++
			continue
		}

		// Otherwise the following neighbour, possibly absorbing a run
		// of small chunks into it.
		if i+1 < len(chunks) && e.canAbsorb(chunks[i+1], c) {
			next := &chunks[i+1]
			next.Content = c.Content + e.cfg.MergeSeparator + next.Content
			next.SourceElementIDs = append(c.SourceElementIDs, next.SourceElementIDs...)
			next.Metadata.PageNumber = c.Metadata.PageNumber
			if next.Metadata.SectionTitle == "" {
				next.Metadata.SectionTitle = c.Metadata.SectionTitle
			}
			merged++
			continue
		}

		// No mergeable neighbour in either direction: leave it
		// standalone and flag it.
		c.Metadata.BelowMinimum = true
		logger.Debug("Chunk %s left below minimum (%d bytes)", c.ID, len(c.Content))
		out = append(out, c)
	}

	return out, merged
}

// canAbsorb reports whether target can absorb small without exceeding
// the maximum chunk size. Only text chunks merge.
func (e *ChunkingEngine) canAbsorb(target, small domain.Chunk) bool {
	if target.Type != domain.ElementText {
		return false
	}
	return len(target.Content)+len(e.cfg.MergeSeparator)+len(small.Content) <= e.cfg.MaxChunkSize
}

// chunkID derives a deterministic chunk id from the run, source
// element and piece index.
func chunkID(runID, elementID string, index int) string {
	name := runID + ":" + elementID + ":" + strconv.Itoa(index)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
