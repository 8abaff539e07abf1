package cli

import (
	"context"
	"errors"
	"time"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
	"github.com/nordvig-labs/byggqa-cli/internal/core/ports/driving"
)

type mockIndexing struct {
	runs    map[string]*domain.IndexingRun
	indexed []string
	err     error
}

func (m *mockIndexing) Index(_ context.Context, documentID string) (*domain.IndexingRun, error) {
	m.indexed = append(m.indexed, documentID)
	if m.err != nil {
		return nil, m.err
	}
	if run, ok := m.runs[documentID]; ok {
		return run, nil
	}
	return completedRun(documentID), nil
}

func (m *mockIndexing) IndexAll(ctx context.Context, documentIDs []string) ([]domain.IndexingRun, error) {
	out := make([]domain.IndexingRun, 0, len(documentIDs))
	for _, id := range documentIDs {
		run, err := m.Index(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	return out, nil
}

func completedRun(documentID string) *domain.IndexingRun {
	return &domain.IndexingRun{
		ID:             "run-" + documentID,
		DocumentID:     documentID,
		Status:         domain.RunCompleted,
		EmbeddingModel: "nomic-embed-text",
		Steps: []domain.StepResult{
			{Name: domain.StepPartition, Status: domain.StepCompleted},
			{Name: domain.StepMetadata, Status: domain.StepCompleted},
			{Name: domain.StepEnrich, Status: domain.StepCompleted},
			{Name: domain.StepChunk, Status: domain.StepCompleted},
			{Name: domain.StepEmbed, Status: domain.StepCompleted},
			{Name: domain.StepStore, Status: domain.StepCompleted},
		},
		Stats:     domain.ChunkStats{TotalChunks: 4, MinSize: 120, AvgSize: 600, MaxSize: 980},
		StartedAt: time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC),
	}
}

type mockAnswering struct {
	run     *domain.QueryRun
	gotOpts driving.AskOptions
	err     error
}

func (m *mockAnswering) Ask(_ context.Context, query string, opts driving.AskOptions) (*domain.QueryRun, error) {
	m.gotOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	run := *m.run
	run.Query = query
	return &run, nil
}

type mockRunStore struct {
	runs []domain.IndexingRun
}

func (m *mockRunStore) SaveRun(_ context.Context, _ *domain.IndexingRun) error { return nil }

func (m *mockRunStore) GetRun(_ context.Context, id string) (*domain.IndexingRun, error) {
	for i := range m.runs {
		if m.runs[i].ID == id {
			return &m.runs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockRunStore) LatestRun(_ context.Context, documentID string) (*domain.IndexingRun, error) {
	for i := range m.runs {
		if m.runs[i].DocumentID == documentID {
			return &m.runs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockRunStore) ListRuns(_ context.Context) ([]domain.IndexingRun, error) {
	return m.runs, nil
}

type mockQueryRunStore struct {
	runs []domain.QueryRun
	err  error
}

func (m *mockQueryRunStore) SaveQueryRun(_ context.Context, _ *domain.QueryRun) error { return nil }

func (m *mockQueryRunStore) ListQueryRuns(_ context.Context, limit int) ([]domain.QueryRun, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit > 0 && limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

type mockLister struct {
	ids []string
	err error
}

func (m *mockLister) ListDocuments() ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.ids, nil
}

var errMockFailure = errors.New("mock failure")
