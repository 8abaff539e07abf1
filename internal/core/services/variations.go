package services

import (
	"context"
	"strings"
	"sync"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
	"github.com/nordvig-labs/byggqa-cli/internal/core/ports/driven"
	"github.com/nordvig-labs/byggqa-cli/internal/logger"
)

// Variation prompts. The completion gets the raw query appended.
const (
	semanticExpansionPrompt = `Rephrase the following construction project question using domain synonyms and related technical terms. Answer with the rephrased question only.

Question: `

	hydePrompt = `Write a short, plausible passage from a construction project document that would answer the following question. Write the passage only, no preamble.

Question: `

	formalPrompt = `Restate the following question in formal written register, as it would appear in official project correspondence. Answer with the restated question only.

Question: `
)

// VariationGenerator produces alternate phrasings of one query
// concurrently. Every variation independently falls back to the
// original query text on failure or timeout; generation as a whole
// never fails.
type VariationGenerator struct {
	completion driven.CompletionService
	cfg        domain.VariationConfig
}

// NewVariationGenerator creates a variation generator. The completion
// service may be nil, in which case all variations fall back to the
// original query.
func NewVariationGenerator(completion driven.CompletionService, cfg domain.VariationConfig) *VariationGenerator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = domain.DefaultVariationTimeout
	}
	return &VariationGenerator{completion: completion, cfg: cfg}
}

// Generate produces the variation set for a query. The three
// completion calls run concurrently, each bounded by the per-variation
// timeout, and the call blocks on the join.
func (g *VariationGenerator) Generate(ctx context.Context, query string) domain.QueryVariations {
	variations := domain.QueryVariations{
		Original:          query,
		SemanticExpansion: query,
		HydeDocument:      query,
		FormalVariation:   query,
	}

	if g.completion == nil {
		logger.Debug("Completion service not configured, using original query only")
		return variations
	}

	logger.Section("Query Variations")

	targets := []struct {
		name   string
		prompt string
		dest   *string
	}{
		{"semantic_expansion", semanticExpansionPrompt, &variations.SemanticExpansion},
		{"hyde", hydePrompt, &variations.HydeDocument},
		{"formal", formalPrompt, &variations.FormalVariation},
	}

	var wg sync.WaitGroup
	wg.Add(len(targets))

	for _, tgt := range targets {
		go func(name, prompt string, dest *string) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
			defer cancel()

			text, err := g.completion.Complete(callCtx, prompt+query, driven.CompleteOptions{
				Temperature: 0.3,
				Timeout:     g.cfg.Timeout,
			})
			if err != nil {
				logger.Warn("Variation %s failed: %v (falling back to original)", name, err)
				return
			}

			text = strings.TrimSpace(text)
			if text == "" {
				logger.Warn("Variation %s returned empty text (falling back to original)", name)
				return
			}

			*dest = text
			logger.Debug("Variation %s: %q", name, text)
		}(tgt.name, tgt.prompt, tgt.dest)
	}

	wg.Wait()
	return variations
}
