package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
)

// fanoutElementSource serves elements per document so IndexAll tests
// can fail one document without touching the others.
type fanoutElementSource struct {
	byDoc  map[string][]domain.Element
	errFor map[string]error
}

func (f *fanoutElementSource) Elements(_ context.Context, documentID string) ([]domain.Element, error) {
	if err := f.errFor[documentID]; err != nil {
		return nil, err
	}
	return f.byDoc[documentID], nil
}

type indexingFixture struct {
	source     *mockElementSource
	embedder   *mockEmbeddingService
	store      *mockVectorStore
	runs       *mockRunStore
	completion *mockCompletionService
	service    *IndexingService
}

func newIndexingFixture() *indexingFixture {
	f := &indexingFixture{
		source:     &mockElementSource{elements: testElements()},
		embedder:   newMockEmbedder(),
		store:      newMockVectorStore(),
		runs:       newMockRunStore(),
		completion: &mockCompletionService{reply: "En snittegning af installationen."},
	}
	f.service = NewIndexingService(
		f.source, newTestEngine(), f.embedder, f.store, f.runs, f.completion,
	)
	return f
}

func TestIndex_AllStepsCompleted(t *testing.T) {
	f := newIndexingFixture()

	run, err := f.service.Index(context.Background(), "doc-1")
	require.NoError(t, err)
	require.NotNil(t, run)

	assert.Equal(t, domain.RunCompleted, run.Status)
	assert.Equal(t, "doc-1", run.DocumentID)
	assert.Equal(t, "test-embed-1", run.EmbeddingModel)
	assert.False(t, run.FinishedAt.IsZero())

	require.Len(t, run.Steps, 6)
	wantOrder := []string{
		domain.StepPartition, domain.StepMetadata, domain.StepEnrich,
		domain.StepChunk, domain.StepEmbed, domain.StepStore,
	}
	for i, step := range run.Steps {
		assert.Equal(t, wantOrder[i], step.Name)
		assert.Equal(t, domain.StepCompleted, step.Status)
		assert.Nil(t, step.Error)
	}

	// Stored chunks carry embeddings and the run id.
	n, err := f.store.CountChunks(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Stats.TotalChunks, n)
	assert.Positive(t, n)
}

func TestIndex_StepStatsReflectActualWork(t *testing.T) {
	f := newIndexingFixture()

	run, err := f.service.Index(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Equal(t, domain.RunCompleted, run.Status)

	partition := run.Steps[0]
	assert.Equal(t, 3, partition.Stats["elements"])
	assert.NotEmpty(t, partition.Sample)

	metadata := run.Steps[1]
	assert.Equal(t, 1, metadata.Stats["text"])
	assert.Equal(t, 1, metadata.Stats["table"])
	assert.Equal(t, 1, metadata.Stats["image"])

	chunk := run.Steps[3]
	assert.Equal(t, run.Stats.TotalChunks, chunk.Stats["chunks"])
	assert.NotEmpty(t, chunk.Sample)

	embed := run.Steps[4]
	assert.Equal(t, run.Stats.TotalChunks, embed.Stats["embedded"])
	assert.Equal(t, f.embedder.Dimensions(), embed.Stats["dimensions"])

	store := run.Steps[5]
	assert.Equal(t, run.Stats.TotalChunks, store.Stats["stored"])
}

func TestIndex_EnrichCaptionsUncaptionedImages(t *testing.T) {
	f := newIndexingFixture()
	f.source.elements = append(testElements(), domain.Element{
		ID: "el-4", DocumentID: "doc-1", Type: domain.ElementImage,
		ImageURL:   "images/doc-1/p5-fig2.png",
		PageNumber: 5,
	})

	run, err := f.service.Index(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Equal(t, domain.RunCompleted, run.Status)

	assert.Equal(t, 1, run.Steps[2].Stats["captioned_images"])
	require.Len(t, f.completion.prompts, 1)
	assert.Contains(t, f.completion.prompts[0], "p5-fig2.png")
}

func TestIndex_NoCompletionServiceSkipsCaptioning(t *testing.T) {
	f := newIndexingFixture()
	f.source.elements = append(testElements(), domain.Element{
		ID: "el-4", DocumentID: "doc-1", Type: domain.ElementImage,
		ImageURL:   "images/doc-1/p5-fig2.png",
		PageNumber: 5,
	})
	f.service = NewIndexingService(f.source, newTestEngine(), f.embedder, f.store, f.runs, nil)

	run, err := f.service.Index(context.Background(), "doc-1")
	require.NoError(t, err)

	assert.Equal(t, domain.RunCompleted, run.Status)
	assert.Equal(t, 0, run.Steps[2].Stats["captioned_images"])
}

func TestIndex_PartitionFailureSkipsRemainingSteps(t *testing.T) {
	f := newIndexingFixture()
	f.source.err = errors.New("parser unreachable")

	run, err := f.service.Index(context.Background(), "doc-1")
	require.NoError(t, err, "a failed run is a result, not an error")
	require.NotNil(t, run)

	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Equal(t, domain.StepFailed, run.Steps[0].Status)
	require.NotNil(t, run.Steps[0].Error)
	assert.Equal(t, domain.CategoryUpstreamData, run.Steps[0].Error.Category)
	for _, step := range run.Steps[1:] {
		assert.Equal(t, domain.StepSkipped, step.Status)
	}
}

func TestIndex_InvalidMetadataFailsBeforeChunking(t *testing.T) {
	f := newIndexingFixture()
	elements := testElements()
	elements[1].PageNumber = 0
	f.source.elements = elements

	run, err := f.service.Index(context.Background(), "doc-1")
	require.NoError(t, err)

	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Equal(t, domain.StepCompleted, run.Steps[0].Status)
	assert.Equal(t, domain.StepFailed, run.Steps[1].Status)
	assert.Equal(t, domain.StepSkipped, run.Steps[3].Status)
	assert.Zero(t, run.Stats.TotalChunks)
}

func TestIndex_EmbedFailureRetainsChunkStats(t *testing.T) {
	f := newIndexingFixture()
	f.embedder.embedErr = errors.New("model not loaded")

	run, err := f.service.Index(context.Background(), "doc-1")
	require.NoError(t, err)

	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Equal(t, domain.StepCompleted, run.Steps[3].Status)
	assert.Equal(t, domain.StepFailed, run.Steps[4].Status)
	assert.Equal(t, domain.StepSkipped, run.Steps[5].Status)
	require.NotNil(t, run.Steps[4].Error)
	assert.Equal(t, domain.CategoryExternalService, run.Steps[4].Error.Category)

	// Partial outputs survive the failure for debugging.
	assert.Positive(t, run.Stats.TotalChunks)

	// Nothing was stored.
	n, err := f.store.CountChunks(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIndex_StoreFailureMarksRunFailed(t *testing.T) {
	f := newIndexingFixture()
	f.store.upsertErr = errors.New("connection refused")

	run, err := f.service.Index(context.Background(), "doc-1")
	require.NoError(t, err)

	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Equal(t, domain.StepFailed, run.Steps[5].Status)
	for _, step := range run.Steps[:5] {
		assert.Equal(t, domain.StepCompleted, step.Status)
	}
}

func TestIndex_PersistsProgressIncrementally(t *testing.T) {
	f := newIndexingFixture()

	run, err := f.service.Index(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Equal(t, domain.RunCompleted, run.Status)

	// Initial save, two per step (running and completed), final save.
	assert.Equal(t, 1+2*6+1, f.runs.saves)

	stored, err := f.runs.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, stored.Status)
	assert.Len(t, stored.Steps, 6)
}

func TestIndex_NilEmbedder(t *testing.T) {
	f := newIndexingFixture()
	f.service = NewIndexingService(f.source, newTestEngine(), nil, f.store, f.runs, nil)

	_, err := f.service.Index(context.Background(), "doc-1")
	require.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestIndexAll_DocumentsFailIndependently(t *testing.T) {
	source := &fanoutElementSource{
		byDoc: map[string][]domain.Element{
			"doc-ok-1": testElements(),
			"doc-ok-2": testElements(),
		},
		errFor: map[string]error{"doc-bad": errors.New("parser unreachable")},
	}
	embedder := newMockEmbedder()
	store := newMockVectorStore()
	runs := newMockRunStore()
	service := NewIndexingService(source, newTestEngine(), embedder, store, runs, nil)

	out, err := service.IndexAll(context.Background(), []string{"doc-ok-1", "doc-bad", "doc-ok-2"})
	require.NoError(t, err, "a failed run is reported in its run record")
	require.Len(t, out, 3)

	byDoc := map[string]domain.RunStatus{}
	for _, run := range out {
		byDoc[run.DocumentID] = run.Status
	}
	assert.Equal(t, domain.RunCompleted, byDoc["doc-ok-1"])
	assert.Equal(t, domain.RunFailed, byDoc["doc-bad"])
	assert.Equal(t, domain.RunCompleted, byDoc["doc-ok-2"])
}
