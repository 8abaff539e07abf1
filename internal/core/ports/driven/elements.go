package driven

import (
	"context"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
)

// ElementSource supplies the parsed elements for one document, in
// reading order with page numbers populated. The upstream parser is an
// external collaborator; this port is the handoff.
type ElementSource interface {
	// Elements returns the document's elements in reading order.
	Elements(ctx context.Context, documentID string) ([]domain.Element, error)
}
