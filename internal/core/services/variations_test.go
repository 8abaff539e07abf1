package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
)

const variationQuery = "Hvor skal føringsvejene være?"

func TestGenerate_AllVariationsSucceed(t *testing.T) {
	completion := &mockCompletionService{replies: map[string]string{
		semanticExpansionPrompt: "Hvor placeres kabelbakker og føringsveje?",
		hydePrompt:              "Føringsvejene udføres som kabelbakker under loft.",
		formalPrompt:            "Hvor skal føringsvejene placeres?",
	}}
	gen := NewVariationGenerator(completion, domain.DefaultVariationConfig())

	v := gen.Generate(context.Background(), variationQuery)

	assert.Equal(t, variationQuery, v.Original)
	assert.Equal(t, "Hvor placeres kabelbakker og føringsveje?", v.SemanticExpansion)
	assert.Equal(t, "Føringsvejene udføres som kabelbakker under loft.", v.HydeDocument)
	assert.Equal(t, "Hvor skal føringsvejene placeres?", v.FormalVariation)
	assert.Len(t, v.All(), 4)
}

func TestGenerate_NilCompletionFallsBack(t *testing.T) {
	gen := NewVariationGenerator(nil, domain.DefaultVariationConfig())

	v := gen.Generate(context.Background(), variationQuery)

	assert.Equal(t, []string{variationQuery}, v.All())
}

func TestGenerate_ErrorFallsBackToOriginal(t *testing.T) {
	completion := &mockCompletionService{err: errors.New("model unavailable")}
	gen := NewVariationGenerator(completion, domain.DefaultVariationConfig())

	v := gen.Generate(context.Background(), variationQuery)

	assert.Equal(t, variationQuery, v.SemanticExpansion)
	assert.Equal(t, variationQuery, v.HydeDocument)
	assert.Equal(t, variationQuery, v.FormalVariation)
	assert.Equal(t, []string{variationQuery}, v.All())
}

// All three variation calls timing out still yields a usable set
// containing the original query.
func TestGenerate_TimeoutFallsBackToOriginal(t *testing.T) {
	completion := &mockCompletionService{
		reply: "aldrig leveret",
		delay: 200 * time.Millisecond,
	}
	gen := NewVariationGenerator(completion, domain.VariationConfig{Timeout: 20 * time.Millisecond})

	start := time.Now()
	v := gen.Generate(context.Background(), variationQuery)
	elapsed := time.Since(start)

	assert.Equal(t, []string{variationQuery}, v.All())
	// Calls ran concurrently, bounded by the per-variation timeout.
	assert.Less(t, elapsed, 150*time.Millisecond)
}

func TestGenerate_EmptyReplyFallsBack(t *testing.T) {
	completion := &mockCompletionService{reply: "   "}
	gen := NewVariationGenerator(completion, domain.DefaultVariationConfig())

	v := gen.Generate(context.Background(), variationQuery)

	assert.Equal(t, []string{variationQuery}, v.All())
}
