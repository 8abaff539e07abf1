package driven

import (
	"context"
	"time"
)

// CompletionService provides language model completions.
// This is an optional service - when nil, variation generation falls
// back to the original query text and answer synthesis yields an
// explicit low-confidence message.
//
// Implementations may include:
//   - OpenAI (GPT-4o, GPT-4o-mini)
//   - Ollama (local models)
type CompletionService interface {
	// Complete produces a text completion for the prompt. A non-zero
	// opts.Timeout bounds the call independently of ctx.
	Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error)

	// ModelName returns the model identifier.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompleteOptions configures a completion call.
type CompleteOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// Timeout bounds the call. Zero means the caller's ctx governs.
	Timeout time.Duration
}
