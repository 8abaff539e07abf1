package driving

import (
	"context"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
)

// AskOptions configures one question.
type AskOptions struct {
	// RunID scopes retrieval to one indexing run. Empty selects the
	// latest completed run.
	RunID string

	// Language selects the similarity threshold tiers. Empty uses the
	// configured default.
	Language string

	// TopK overrides the configured result count. Hard-capped.
	TopK int
}

// AnswerService runs the query pipeline: variation generation,
// retrieval, answer synthesis. It never fails a query because
// variation generation failed, and generation failure surfaces as an
// explicit low-confidence response rather than an error.
type AnswerService interface {
	// Ask answers one question and returns the completed query run
	// record, including results, response, timings and quality.
	Ask(ctx context.Context, query string, opts AskOptions) (*domain.QueryRun, error)
}
