package driving

import (
	"context"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
)

// IndexingOrchestrator runs the six-step indexing pipeline for
// documents. Each document is an independent fail-fast unit: the first
// failing step aborts the remaining steps for that document, and one
// document's failure never aborts another's.
type IndexingOrchestrator interface {
	// Index runs the full pipeline for one document and returns the
	// run record, including per-step results. A failed run is
	// returned alongside a nil error; the failure is captured in the
	// run's status and step detail.
	Index(ctx context.Context, documentID string) (*domain.IndexingRun, error)

	// IndexAll indexes multiple documents concurrently as independent
	// units and returns one run per document.
	IndexAll(ctx context.Context, documentIDs []string) ([]domain.IndexingRun, error)
}
