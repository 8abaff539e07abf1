package domain

import "time"

// QueryVariations holds the alternate phrasings generated for one
// query instance. It is scoped to that query and never persisted on
// its own; the QueryRun record captures it for analytics.
type QueryVariations struct {
	// Original is the user's query text, always present.
	Original string

	// SemanticExpansion is a domain paraphrase of the query.
	SemanticExpansion string

	// HydeDocument is a hypothetical answer passage, embedded in place
	// of the question to match similarly-worded passages.
	HydeDocument string

	// FormalVariation restates the query in formal register.
	FormalVariation string
}

// All returns the original plus every generated variation, in a fixed
// order, with exact duplicates removed. Fallbacks collapse onto the
// original, so de-duplication saves embedding calls.
func (v QueryVariations) All() []string {
	out := make([]string, 0, 4)
	seen := make(map[string]bool, 4)
	for _, s := range []string{v.Original, v.SemanticExpansion, v.HydeDocument, v.FormalVariation} {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// SearchResult is a single retrieval hit.
type SearchResult struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the chunk's source document.
	DocumentID string

	// Content is the chunk text.
	Content string

	// Metadata is the chunk's provenance metadata.
	Metadata ChunkMetadata

	// Similarity is the cosine similarity in [0,1], derived
	// monotonically from the store's distance metric (1 - distance).
	Similarity float64
}

// StepTiming records how long one pipeline step took for a query.
type StepTiming struct {
	Step     string
	Duration time.Duration
}

// QueryRun is the persisted record of one answered query, written once
// per query for a separate reporting collaborator.
type QueryRun struct {
	// ID is the unique identifier for the run.
	ID string

	// IndexingRunID is the indexing run the query was scoped to.
	IndexingRunID string

	// Query is the original question text.
	Query string

	// Language is the query language used for threshold selection.
	Language string

	// Variations are the phrasings used for retrieval.
	Variations QueryVariations

	// Results are the retrieval hits after threshold filtering.
	Results []SearchResult

	// Response is the final synthesised answer, or the explicit
	// "could not generate a response" text on generation failure.
	Response string

	// Timings records per-step durations.
	Timings []StepTiming

	// Quality is the advisory quality report for the result set.
	Quality QualityReport

	// CreatedAt is when the query completed.
	CreatedAt time.Time
}
