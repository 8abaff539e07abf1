package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
	"github.com/nordvig-labs/byggqa-cli/internal/core/ports/driven"
	"github.com/nordvig-labs/byggqa-cli/internal/core/ports/driving"
	"github.com/nordvig-labs/byggqa-cli/internal/logger"
)

// Ensure IndexingService implements the interface.
var _ driving.IndexingOrchestrator = (*IndexingService)(nil)

// captionPrompt asks the completion service to caption an image from
// its surrounding context during the enrich step.
const captionPrompt = `Write a one-sentence caption for an image in a construction project document. The image is stored at %q and appears on page %d under the section %q. Caption only, no preamble.`

// sampleLen bounds the output excerpt stored per step.
const sampleLen = 160

// IndexingService runs the six-step indexing pipeline per document:
// partition, metadata, enrich, chunk, embed, store. Steps are strictly
// sequential within a document and fail-fast: the first failure aborts
// the remaining steps, retaining partial outputs for debugging.
// Progress persists incrementally after every step.
type IndexingService struct {
	elements   driven.ElementSource
	chunker    *ChunkingEngine
	embedder   driven.EmbeddingService
	store      driven.VectorStore
	runs       driven.RunStore
	completion driven.CompletionService
}

// NewIndexingService creates an indexing orchestrator. The completion
// service is optional; without it the enrich step leaves uncaptioned
// images alone.
func NewIndexingService(
	elements driven.ElementSource,
	chunker *ChunkingEngine,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	runs driven.RunStore,
	completion driven.CompletionService,
) *IndexingService {
	return &IndexingService{
		elements:   elements,
		chunker:    chunker,
		embedder:   embedder,
		store:      store,
		runs:       runs,
		completion: completion,
	}
}

// Index runs the full pipeline for one document. A failed run is
// returned with its status and step detail; err is reserved for
// infrastructure problems persisting the run record itself.
func (s *IndexingService) Index(ctx context.Context, documentID string) (*domain.IndexingRun, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	run := &domain.IndexingRun{
		ID:             uuid.New().String(),
		DocumentID:     documentID,
		Status:         domain.RunRunning,
		EmbeddingModel: s.embedder.ModelName(),
		StartedAt:      time.Now().UTC(),
	}
	for _, name := range []string{
		domain.StepPartition, domain.StepMetadata, domain.StepEnrich,
		domain.StepChunk, domain.StepEmbed, domain.StepStore,
	} {
		run.Steps = append(run.Steps, domain.StepResult{Name: name, Status: domain.StepPending})
	}
	if err := s.persist(ctx, run); err != nil {
		return nil, err
	}

	logger.Section("Indexing")
	logger.Info("Indexing document %s as run %s", documentID, run.ID)

	var elements []domain.Element
	var chunks []domain.Chunk

	steps := []struct {
		name string
		fn   func(context.Context) (map[string]int, string, error)
	}{
		{domain.StepPartition, func(ctx context.Context) (map[string]int, string, error) {
			var err error
			elements, err = s.partition(ctx, documentID)
			return map[string]int{"elements": len(elements)}, sampleElements(elements), err
		}},
		{domain.StepMetadata, func(_ context.Context) (map[string]int, string, error) {
			stats, err := s.validateMetadata(elements)
			return stats, "", err
		}},
		{domain.StepEnrich, func(ctx context.Context) (map[string]int, string, error) {
			captioned, err := s.enrich(ctx, elements)
			return map[string]int{"captioned_images": captioned}, "", err
		}},
		{domain.StepChunk, func(_ context.Context) (map[string]int, string, error) {
			var stats domain.ChunkStats
			var err error
			chunks, stats, err = s.chunker.ChunkDocument(run.ID, documentID, elements)
			run.Stats = stats
			return chunkStepStats(stats), sampleChunks(chunks), err
		}},
		{domain.StepEmbed, func(ctx context.Context) (map[string]int, string, error) {
			err := s.embed(ctx, chunks)
			return map[string]int{"embedded": len(chunks), "dimensions": s.embedder.Dimensions()}, "", err
		}},
		{domain.StepStore, func(ctx context.Context) (map[string]int, string, error) {
			if err := s.store.UpsertChunks(ctx, chunks); err != nil {
				return nil, "", fmt.Errorf("upsert chunks: %w: %v", domain.ErrExternalService, err)
			}
			return map[string]int{"stored": len(chunks)}, "", nil
		}},
	}

	for i, step := range steps {
		if !s.runStep(ctx, run, i, step.fn) {
			s.failRemaining(ctx, run, i+1)
			return run, nil
		}
	}

	run.Status = domain.RunCompleted
	run.FinishedAt = time.Now().UTC()
	if err := s.persist(ctx, run); err != nil {
		return nil, err
	}

	logger.Info("Run %s completed: %d chunks stored", run.ID, len(chunks))
	return run, nil
}

// IndexAll indexes documents concurrently as independent fail-fast
// units; one document's failure never aborts another's.
func (s *IndexingService) IndexAll(ctx context.Context, documentIDs []string) ([]domain.IndexingRun, error) {
	runs := make([]domain.IndexingRun, len(documentIDs))
	errs := make([]error, len(documentIDs))

	var wg sync.WaitGroup
	for i, id := range documentIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			run, err := s.Index(ctx, id)
			if err != nil {
				errs[i] = fmt.Errorf("index %s: %w", id, err)
				return
			}
			runs[i] = *run
		}(i, id)
	}
	wg.Wait()

	var firstErr error
	out := make([]domain.IndexingRun, 0, len(runs))
	for i := range runs {
		if errs[i] != nil {
			if firstErr == nil {
				firstErr = errs[i]
			}
			continue
		}
		out = append(out, runs[i])
	}
	return out, firstErr
}

// runStep executes one pipeline step, recording status, duration,
// stats and sample, and persisting the run after the step completes.
// Returns false when the step failed.
func (s *IndexingService) runStep(
	ctx context.Context,
	run *domain.IndexingRun,
	index int,
	fn func(context.Context) (map[string]int, string, error),
) bool {
	step := &run.Steps[index]
	step.Status = domain.StepRunning
	s.persistBestEffort(ctx, run)

	start := time.Now()
	stats, sample, err := fn(ctx)
	step.Duration = time.Since(start)
	step.Stats = stats
	step.Sample = sample

	if err != nil {
		step.Status = domain.StepFailed
		step.Error = domain.NewStepError(err)
		logger.Step(step.Name, step.Duration, err)
		return false
	}

	step.Status = domain.StepCompleted
	s.persistBestEffort(ctx, run)
	logger.Step(step.Name, step.Duration, nil)
	return true
}

// failRemaining marks the run failed and all unexecuted steps skipped.
func (s *IndexingService) failRemaining(ctx context.Context, run *domain.IndexingRun, from int) {
	for i := from; i < len(run.Steps); i++ {
		run.Steps[i].Status = domain.StepSkipped
	}
	run.Status = domain.RunFailed
	run.FinishedAt = time.Now().UTC()
	s.persistBestEffort(ctx, run)
}

func (s *IndexingService) persist(ctx context.Context, run *domain.IndexingRun) error {
	if s.runs == nil {
		return nil
	}
	if err := s.runs.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

func (s *IndexingService) persistBestEffort(ctx context.Context, run *domain.IndexingRun) {
	if err := s.persist(ctx, run); err != nil {
		logger.Warn("Persisting run progress failed: %v", err)
	}
}

// partition fetches the document's elements from the upstream parser.
func (s *IndexingService) partition(ctx context.Context, documentID string) ([]domain.Element, error) {
	if s.elements == nil {
		return nil, fmt.Errorf("element source not configured: %w", domain.ErrUpstreamData)
	}
	elements, err := s.elements.Elements(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch elements: %w: %v", domain.ErrUpstreamData, err)
	}
	if len(elements) == 0 {
		return nil, fmt.Errorf("document %s has no elements: %w", documentID, domain.ErrUpstreamData)
	}
	return elements, nil
}

// validateMetadata checks the parser populated the fields the pipeline
// relies on.
func (s *IndexingService) validateMetadata(elements []domain.Element) (map[string]int, error) {
	counts := make(map[string]int)
	for _, el := range elements {
		if el.ID == "" {
			return nil, fmt.Errorf("element with empty id: %w", domain.ErrUpstreamData)
		}
		if !el.Type.Valid() {
			return nil, fmt.Errorf("element %s has unknown type %q: %w", el.ID, el.Type, domain.ErrUpstreamData)
		}
		if el.PageNumber < 1 {
			return nil, fmt.Errorf("element %s has no page number: %w", el.ID, domain.ErrUpstreamData)
		}
		counts[string(el.Type)]++
	}
	return counts, nil
}

// enrich generates captions for image elements that lack one. Without
// a completion service the step is a no-op; a completion failure fails
// the document (fail-fast, no in-core retry).
func (s *IndexingService) enrich(ctx context.Context, elements []domain.Element) (int, error) {
	if s.completion == nil {
		return 0, nil
	}

	captioned := 0
	for i := range elements {
		el := &elements[i]
		if el.Type != domain.ElementImage || el.Content != "" || el.Caption != "" {
			continue
		}
		prompt := fmt.Sprintf(captionPrompt, el.ImageURL, el.PageNumber, el.SectionTitle)
		caption, err := s.completion.Complete(ctx, prompt, driven.CompleteOptions{MaxTokens: 80})
		if err != nil {
			return captioned, fmt.Errorf("caption element %s: %w: %v", el.ID, domain.ErrExternalService, err)
		}
		el.Content = strings.TrimSpace(caption)
		captioned++
	}
	return captioned, nil
}

// embed attaches embeddings to the finalised chunks, in order.
func (s *IndexingService) embed(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w: %v", domain.ErrExternalService, err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding count %d does not match chunk count %d: %w",
			len(embeddings), len(chunks), domain.ErrInvariant)
	}

	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}
	return nil
}

func chunkStepStats(stats domain.ChunkStats) map[string]int {
	out := map[string]int{
		"chunks":   stats.TotalChunks,
		"merged":   stats.MergedChunks,
		"flagged":  stats.FlaggedChunks,
		"dropped":  stats.DroppedElements,
		"min_size": stats.MinSize,
		"avg_size": stats.AvgSize,
		"max_size": stats.MaxSize,
	}
	for typ, n := range stats.CountByType {
		out[string(typ)] = n
	}
	return out
}

func sampleElements(elements []domain.Element) string {
	if len(elements) == 0 {
		return ""
	}
	return truncateSample(elements[0].Content)
}

func sampleChunks(chunks []domain.Chunk) string {
	if len(chunks) == 0 {
		return ""
	}
	return truncateSample(chunks[0].Content)
}

func truncateSample(s string) string {
	if len(s) <= sampleLen {
		return s
	}
	cut := sampleLen
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut] + "..."
}
