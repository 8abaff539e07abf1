// Package ai provides factory functions for creating model provider
// adapters from configuration.
package ai

import (
	"context"
	"fmt"
	"time"

	completionanthropic "github.com/nordvig-labs/byggqa-cli/internal/adapters/driven/completion/anthropic"
	completionollama "github.com/nordvig-labs/byggqa-cli/internal/adapters/driven/completion/ollama"
	completionopenai "github.com/nordvig-labs/byggqa-cli/internal/adapters/driven/completion/openai"
	configfile "github.com/nordvig-labs/byggqa-cli/internal/adapters/driven/config/file"
	embedollama "github.com/nordvig-labs/byggqa-cli/internal/adapters/driven/embedding/ollama"
	embedopenai "github.com/nordvig-labs/byggqa-cli/internal/adapters/driven/embedding/openai"
	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
	"github.com/nordvig-labs/byggqa-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity
// validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingService creates the configured embedding service. An
// empty provider selects Ollama, the local default.
func CreateEmbeddingService(cfg configfile.ProviderSettings) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case "", "ollama":
		return embedollama.NewEmbeddingService(embedollama.Config{
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			Timeout:           cfg.Timeout(),
			Dimensions:        cfg.Dimensions,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}), nil

	case "openai":
		return embedopenai.NewEmbeddingService(embedopenai.Config{
			APIKey:            cfg.APIKey,
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			Timeout:           cfg.Timeout(),
			Dimensions:        cfg.Dimensions,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})

	case "anthropic":
		// Anthropic does not support embeddings.
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// CreateCompletionService creates the configured completion service.
// An empty provider returns nil: the completion service is optional
// and the pipelines degrade gracefully without it.
func CreateCompletionService(cfg configfile.ProviderSettings) (driven.CompletionService, error) {
	switch cfg.Provider {
	case "":
		return nil, nil

	case "ollama":
		return completionollama.NewCompletionService(completionollama.Config{
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			Timeout:           cfg.Timeout(),
			RequestsPerSecond: cfg.RequestsPerSecond,
		}), nil

	case "openai":
		return completionopenai.NewCompletionService(completionopenai.Config{
			APIKey:            cfg.APIKey,
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			Timeout:           cfg.Timeout(),
			RequestsPerSecond: cfg.RequestsPerSecond,
		})

	case "anthropic":
		return completionanthropic.NewCompletionService(completionanthropic.Config{
			APIKey:            cfg.APIKey,
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			Timeout:           cfg.Timeout(),
			RequestsPerSecond: cfg.RequestsPerSecond,
		})

	default:
		return nil, fmt.Errorf("unsupported completion provider: %s", cfg.Provider)
	}
}

// ValidateEmbedding pings the embedding service with a bounded
// timeout. Used before committing to a long indexing job.
func ValidateEmbedding(ctx context.Context, svc driven.EmbeddingService) error {
	if svc == nil {
		return domain.ErrEmbeddingUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s unreachable: %v", domain.ErrEmbeddingUnavailable, svc.ModelName(), err)
	}
	return nil
}

// ValidateCompletion pings the completion service with a bounded
// timeout. A nil service is valid: completion is optional.
func ValidateCompletion(ctx context.Context, svc driven.CompletionService) error {
	if svc == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s unreachable: %v", domain.ErrCompletionUnavailable, svc.ModelName(), err)
	}
	return nil
}
