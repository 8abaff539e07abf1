package driven

import (
	"context"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
)

// RunStore persists indexing-run status and per-step progress.
// Progress is written incrementally after every step, not only at
// completion, so long indexing jobs are inspectable mid-flight.
type RunStore interface {
	// SaveRun stores or updates an indexing run record.
	SaveRun(ctx context.Context, run *domain.IndexingRun) error

	// GetRun retrieves a run by id.
	GetRun(ctx context.Context, id string) (*domain.IndexingRun, error)

	// LatestRun returns the most recent run for a document, or
	// domain.ErrNotFound.
	LatestRun(ctx context.Context, documentID string) (*domain.IndexingRun, error)

	// ListRuns returns all runs, newest first.
	ListRuns(ctx context.Context) ([]domain.IndexingRun, error)
}

// QueryRunStore persists query analytics records. Written once per
// query, off the request path; a write failure must never affect the
// synchronous response.
type QueryRunStore interface {
	// SaveQueryRun stores a completed query run record.
	SaveQueryRun(ctx context.Context, run *domain.QueryRun) error

	// ListQueryRuns returns persisted query runs, newest first.
	ListQueryRuns(ctx context.Context, limit int) ([]domain.QueryRun, error)
}
