package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
	"github.com/nordvig-labs/byggqa-cli/internal/core/ports/driven"
	"github.com/nordvig-labs/byggqa-cli/internal/core/ports/driving"
	"github.com/nordvig-labs/byggqa-cli/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*Answerer)(nil)

// NoAnswerResponse is the explicit low-confidence message returned
// when nothing relevant was retrieved or answer generation failed. It
// replaces the answer; it is never an error.
const NoAnswerResponse = "Der kunne ikke findes et svar i projektmaterialet. " +
	"Prøv at omformulere spørgsmålet eller henvis til et specifikt dokument."

// answerPrompt frames retrieved chunks for final answer synthesis.
const answerPrompt = `You answer questions about construction project documents. Use only the excerpts below; if they do not contain the answer, say so. Answer in the language of the question.

Excerpts:
%s

Question: %s

Answer:`

// Answerer runs the query pipeline: variation generation, retrieval,
// answer synthesis. Variation failures degrade to the original query;
// generation failures degrade to an explicit low-confidence response.
type Answerer struct {
	variations *VariationGenerator
	retrieval  *RetrievalEngine
	quality    *QualityAssessor
	completion driven.CompletionService
	queryRuns  driven.QueryRunStore
	tasks      driven.TaskRunner
	runs       driven.RunStore
	cfg        domain.RetrievalConfig
}

// NewAnswerer creates the query pipeline service. completion, tasks
// and queryRuns are optional.
func NewAnswerer(
	variations *VariationGenerator,
	retrieval *RetrievalEngine,
	quality *QualityAssessor,
	completion driven.CompletionService,
	queryRuns driven.QueryRunStore,
	tasks driven.TaskRunner,
	runs driven.RunStore,
	cfg domain.RetrievalConfig,
) *Answerer {
	return &Answerer{
		variations: variations,
		retrieval:  retrieval,
		quality:    quality,
		completion: completion,
		queryRuns:  queryRuns,
		tasks:      tasks,
		runs:       runs,
		cfg:        cfg,
	}
}

// Ask answers one question. The returned QueryRun carries results,
// response, per-step timings and the quality report. Retrieval
// infrastructure failure is the only error path; everything else
// degrades gracefully.
func (a *Answerer) Ask(ctx context.Context, query string, opts driving.AskOptions) (*domain.QueryRun, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query: %w", domain.ErrInvalidInput)
	}

	language := opts.Language
	if language == "" {
		language = a.cfg.DefaultLanguage
	}

	runID, err := a.resolveRun(ctx, opts.RunID)
	if err != nil {
		return nil, err
	}

	qr := &domain.QueryRun{
		ID:            uuid.New().String(),
		IndexingRunID: runID,
		Query:         query,
		Language:      language,
	}

	// Process: build query variations. Never fails.
	start := time.Now()
	qr.Variations = a.variations.Generate(ctx, query)
	qr.Timings = append(qr.Timings, domain.StepTiming{Step: domain.StepProcess, Duration: time.Since(start)})

	// Retrieve: embedding failure aborts the query here.
	start = time.Now()
	retrieved, err := a.retrieval.Retrieve(ctx, runID, qr.Variations, language, opts.TopK)
	qr.Timings = append(qr.Timings, domain.StepTiming{Step: domain.StepRetrieve, Duration: time.Since(start)})
	if err != nil {
		return nil, err
	}
	qr.Results = retrieved.Results

	// Generate: produce the final answer, degrading to the explicit
	// low-confidence message instead of failing.
	start = time.Now()
	qr.Response = a.generate(ctx, query, retrieved.Results)
	qr.Timings = append(qr.Timings, domain.StepTiming{Step: domain.StepGenerate, Duration: time.Since(start)})

	qr.Quality = a.quality.Assess(retrieved.Results, retrieved.TopSimilarity, language)
	qr.CreatedAt = time.Now().UTC()

	a.persistQueryRun(qr)
	return qr, nil
}

// resolveRun picks the indexing run to query: an explicit run id, or
// the latest completed run.
func (a *Answerer) resolveRun(ctx context.Context, runID string) (string, error) {
	if runID != "" {
		return runID, nil
	}
	if a.runs == nil {
		return "", fmt.Errorf("no run id and no run store: %w", domain.ErrInvalidInput)
	}

	runs, err := a.runs.ListRuns(ctx)
	if err != nil {
		return "", fmt.Errorf("list runs: %w", err)
	}
	for _, r := range runs {
		if r.Status == domain.RunCompleted {
			return r.ID, nil
		}
	}
	return "", fmt.Errorf("no completed indexing run: %w", domain.ErrNotFound)
}

// generate synthesises the final answer from the retrieved chunks.
func (a *Answerer) generate(ctx context.Context, query string, results []domain.SearchResult) string {
	if len(results) == 0 {
		logger.Info("No relevant chunks retrieved, returning low-confidence response")
		return NoAnswerResponse
	}
	if a.completion == nil {
		logger.Warn("Completion service not configured, returning low-confidence response")
		return NoAnswerResponse
	}

	var excerpts strings.Builder
	for i, r := range results {
		fmt.Fprintf(&excerpts, "[%d] (page %d", i+1, r.Metadata.PageNumber)
		if r.Metadata.SectionTitle != "" {
			fmt.Fprintf(&excerpts, ", %s", r.Metadata.SectionTitle)
		}
		excerpts.WriteString(")\n")
		excerpts.WriteString(r.Content)
		excerpts.WriteString("\n\n")
	}

	prompt := fmt.Sprintf(answerPrompt, excerpts.String(), query)
	answer, err := a.completion.Complete(ctx, prompt, driven.CompleteOptions{Temperature: 0.1})
	if err != nil {
		logger.Warn("Answer generation failed: %v", err)
		return NoAnswerResponse
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return NoAnswerResponse
	}
	return answer
}

// persistQueryRun writes the analytics record off the request path.
// Its failure never affects the synchronous response.
func (a *Answerer) persistQueryRun(qr *domain.QueryRun) {
	if a.queryRuns == nil {
		return
	}

	save := func(ctx context.Context) {
		if err := a.queryRuns.SaveQueryRun(ctx, qr); err != nil {
			logger.Warn("Persisting query run %s failed: %v", qr.ID, err)
		}
	}

	if a.tasks != nil {
		a.tasks.Submit(save)
		return
	}
	save(context.Background())
}
