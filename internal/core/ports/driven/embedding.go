package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// The same model/version must be used at indexing time and query time;
// retrieval refuses to run against a run embedded with a different
// model, since similarity scores would be meaningless across models.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Local models via inference servers
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, one vector
	// per input in the same order. Preferred for chunk embedding.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536).
	// This must match the VectorStore configuration.
	Dimensions() int

	// ModelName returns the model identifier, recorded on every
	// indexing run and checked at query time.
	ModelName() string

	// Ping validates the service is reachable with a lightweight
	// request. Used at startup before committing to indexing.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
