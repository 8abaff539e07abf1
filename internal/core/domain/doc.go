// Package domain defines the core business entities for byggqa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Element: A typed unit of parsed document content (text/table/image)
//   - Chunk: A retrieval-sized unit derived from one or more elements
//   - QueryRun: A persisted record of one answered query
//   - IndexingRun: A versioned execution of the indexing pipeline
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
