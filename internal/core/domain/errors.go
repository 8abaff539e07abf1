package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstreamData indicates malformed or missing element input
	// from the parser. Not retried; fails the document's indexing
	// unit.
	ErrUpstreamData = errors.New("upstream data error")

	// ErrExternalService indicates an embedding, completion or store
	// failure. Fails the document during indexing; tolerated
	// per-variation during query-variation generation.
	ErrExternalService = errors.New("external service error")

	// ErrInvariant indicates an internal logic error, such as a split
	// yielding zero pieces. Always fatal for its unit, logged with
	// full context, never swallowed.
	ErrInvariant = errors.New("invariant violation")

	// ErrRetrievalUnavailable indicates the query embedding failed,
	// aborting retrieval for that query. No stale or partial
	// substitute is returned.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrModelMismatch indicates the query-time embedding model does
	// not match the model recorded on the indexing run. Similarity
	// scores would be meaningless.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrCorpusTooLarge indicates the in-memory similarity tier
	// refused because the run's corpus exceeds the configured bound.
	ErrCorpusTooLarge = errors.New("corpus too large for in-memory search")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Indexing and retrieval are impossible without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrCompletionUnavailable indicates the completion service is
	// not configured. Variation generation and answer synthesis
	// degrade to the original query / an explicit low-confidence
	// message.
	ErrCompletionUnavailable = errors.New("completion service unavailable")
)

// ErrorCategory classifies a step failure for status reporting.
type ErrorCategory string

const (
	// CategoryUpstreamData covers malformed parser output.
	CategoryUpstreamData ErrorCategory = "upstream_data"
	// CategoryExternalService covers embedding/completion/store
	// failures.
	CategoryExternalService ErrorCategory = "external_service"
	// CategoryInvariant covers internal logic errors.
	CategoryInvariant ErrorCategory = "invariant"
	// CategoryUnknown covers everything else.
	CategoryUnknown ErrorCategory = "unknown"
)

// Categorize maps an error onto its reporting category by walking the
// wrap chain.
func Categorize(err error) ErrorCategory {
	switch {
	case errors.Is(err, ErrUpstreamData), errors.Is(err, ErrInvalidInput):
		return CategoryUpstreamData
	case errors.Is(err, ErrExternalService),
		errors.Is(err, ErrEmbeddingUnavailable),
		errors.Is(err, ErrCompletionUnavailable),
		errors.Is(err, ErrRetrievalUnavailable):
		return CategoryExternalService
	case errors.Is(err, ErrInvariant), errors.Is(err, ErrModelMismatch):
		return CategoryInvariant
	default:
		return CategoryUnknown
	}
}

// StepError is the structured failure detail captured at the
// orchestrator boundary instead of a raw error crossing it.
type StepError struct {
	// Category classifies the failure.
	Category ErrorCategory

	// Message is the flattened error text.
	Message string
}

// NewStepError captures err as structured step failure detail.
func NewStepError(err error) *StepError {
	if err == nil {
		return nil
	}
	return &StepError{Category: Categorize(err), Message: err.Error()}
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}
