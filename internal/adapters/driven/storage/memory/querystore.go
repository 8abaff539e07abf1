package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
	"github.com/nordvig-labs/byggqa-cli/internal/core/ports/driven"
)

// Ensure QueryRunStore implements the interface.
var _ driven.QueryRunStore = (*QueryRunStore)(nil)

// QueryRunStore is an in-memory implementation of driven.QueryRunStore.
type QueryRunStore struct {
	mu   sync.RWMutex
	runs []domain.QueryRun
}

// NewQueryRunStore creates a new in-memory query run store.
func NewQueryRunStore() *QueryRunStore {
	return &QueryRunStore{}
}

// SaveQueryRun stores the analytics record of one answered query.
func (s *QueryRunStore) SaveQueryRun(_ context.Context, run *domain.QueryRun) error {
	if run.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, *run)
	return nil
}

// ListQueryRuns returns query runs, newest first, up to limit. A
// non-positive limit returns all.
func (s *QueryRunStore) ListQueryRuns(_ context.Context, limit int) ([]domain.QueryRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := append([]domain.QueryRun(nil), s.runs...)
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].ID < runs[j].ID
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
