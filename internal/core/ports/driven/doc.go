// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - ElementSource: Supplies parsed elements for a document
//   - EmbeddingService: Generates vector embeddings
//   - VectorStore: Chunk/embedding persistence and nearest-neighbour search
//   - RunStore: Indexing-run status and step-progress persistence
//   - QueryRunStore: Persisted query analytics records
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - CompletionService: LLM completions. Without it, query variation
//     generation falls back to the original query and answers degrade
//     to an explicit low-confidence message.
//   - TaskRunner: Fire-and-forget analytics persistence. Without it,
//     query runs are written synchronously.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
