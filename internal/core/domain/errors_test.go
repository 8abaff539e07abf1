package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUpstreamData", ErrUpstreamData},
		{"ErrExternalService", ErrExternalService},
		{"ErrInvariant", ErrInvariant},
		{"ErrRetrievalUnavailable", ErrRetrievalUnavailable},
		{"ErrModelMismatch", ErrModelMismatch},
		{"ErrCorpusTooLarge", ErrCorpusTooLarge},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrCompletionUnavailable", ErrCompletionUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"upstream", fmt.Errorf("element 4: %w", ErrUpstreamData), CategoryUpstreamData},
		{"invalid input", ErrInvalidInput, CategoryUpstreamData},
		{"external", fmt.Errorf("embed batch: %w", ErrExternalService), CategoryExternalService},
		{"embedding unavailable", ErrEmbeddingUnavailable, CategoryExternalService},
		{"retrieval unavailable", ErrRetrievalUnavailable, CategoryExternalService},
		{"invariant", fmt.Errorf("split produced zero pieces: %w", ErrInvariant), CategoryInvariant},
		{"model mismatch", ErrModelMismatch, CategoryInvariant},
		{"plain error", fmt.Errorf("boom"), CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.err))
		})
	}
}

func TestNewStepError(t *testing.T) {
	assert.Nil(t, NewStepError(nil))

	se := NewStepError(fmt.Errorf("store chunks: %w", ErrExternalService))
	assert.Equal(t, CategoryExternalService, se.Category)
	assert.Contains(t, se.Message, "store chunks")
	assert.Contains(t, se.Error(), "external_service")
}
