// Package memory provides in-memory implementations of the run record
// stores, used in tests and for ephemeral runs where nothing should
// outlive the process.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
	"github.com/nordvig-labs/byggqa-cli/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]domain.IndexingRun
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]domain.IndexingRun),
	}
}

// SaveRun stores or updates an indexing run.
func (s *RunStore) SaveRun(_ context.Context, run *domain.IndexingRun) error {
	if run.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *run
	cp.Steps = append([]domain.StepResult(nil), run.Steps...)
	s.runs[run.ID] = cp
	return nil
}

// GetRun retrieves an indexing run by ID.
func (s *RunStore) GetRun(_ context.Context, id string) (*domain.IndexingRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &run, nil
}

// LatestRun retrieves the most recently started run for a document.
func (s *RunStore) LatestRun(_ context.Context, documentID string) (*domain.IndexingRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.IndexingRun
	for id := range s.runs {
		run := s.runs[id]
		if run.DocumentID != documentID {
			continue
		}
		if latest == nil || run.StartedAt.After(latest.StartedAt) {
			latest = &run
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}

// ListRuns returns all indexing runs, newest first.
func (s *RunStore) ListRuns(_ context.Context) ([]domain.IndexingRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]domain.IndexingRun, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.After(runs[j].StartedAt)
		}
		return runs[i].ID < runs[j].ID
	})
	return runs, nil
}
