package domain

import "time"

// Default chunking and retrieval configuration values.
const (
	DefaultMaxChunkSize     = 2000
	DefaultTargetChunkSize  = 1000
	DefaultOverlapSize      = 200
	DefaultMinChunkSize     = 100
	DefaultVariationTimeout = time.Second
	DefaultTopK             = 5
	// MaxTopK is the hard cap on K regardless of caller request.
	MaxTopK = 200
	// DefaultMaxInMemoryCorpus bounds the in-memory similarity tier;
	// above it the tier refuses since cost is O(N) per query.
	DefaultMaxInMemoryCorpus = 10000
)

// ChunkingConfig is the immutable configuration injected into the
// chunking engine at construction. A zero value is not usable; build
// one with DefaultChunkingConfig and override fields as needed.
type ChunkingConfig struct {
	// MaxChunkSize is the hard upper bound on chunk content length.
	// Oversized text is split, never truncated.
	MaxChunkSize int

	// TargetChunkSize is the preferred piece size for semantic
	// splitting.
	TargetChunkSize int

	// OverlapSize is the number of characters consecutive split
	// pieces share, taken from the previous piece's tail.
	OverlapSize int

	// MinChunkSize is the lower bound below which text chunks are
	// merged into a neighbor.
	MinChunkSize int

	// MergeSeparator joins contents when a below-minimum chunk is
	// absorbed.
	MergeSeparator string
}

// DefaultChunkingConfig returns the standard chunking configuration.
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{
		MaxChunkSize:    DefaultMaxChunkSize,
		TargetChunkSize: DefaultTargetChunkSize,
		OverlapSize:     DefaultOverlapSize,
		MinChunkSize:    DefaultMinChunkSize,
		MergeSeparator:  "\n\n",
	}
}

// RetrievalConfig is the immutable configuration injected into the
// retrieval engine and quality assessor.
type RetrievalConfig struct {
	// TopK is the default number of neighbors to retrieve. Capped at
	// MaxTopK.
	TopK int

	// MaxInMemoryCorpus bounds the in-memory fallback tier.
	MaxInMemoryCorpus int

	// DefaultLanguage selects the threshold tiers when the caller
	// does not specify a language.
	DefaultLanguage string

	// Thresholds maps language code to its similarity tiers.
	Thresholds map[string]ThresholdTiers
}

// DefaultRetrievalConfig returns the standard retrieval configuration
// with threshold tiers for Danish and English.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		TopK:              DefaultTopK,
		MaxInMemoryCorpus: DefaultMaxInMemoryCorpus,
		DefaultLanguage:   "da",
		Thresholds: map[string]ThresholdTiers{
			"da": {Excellent: 0.70, Good: 0.55, Acceptable: 0.30, Minimum: 0.20},
			"en": {Excellent: 0.80, Good: 0.65, Acceptable: 0.45, Minimum: 0.30},
		},
	}
}

// TiersFor returns the threshold tiers for the given language, falling
// back to the default language when the language is unknown.
func (c RetrievalConfig) TiersFor(language string) ThresholdTiers {
	if t, ok := c.Thresholds[language]; ok {
		return t
	}
	return c.Thresholds[c.DefaultLanguage]
}

// VariationConfig configures query variation generation.
type VariationConfig struct {
	// Timeout bounds each variation call independently.
	Timeout time.Duration
}

// DefaultVariationConfig returns the standard variation configuration.
func DefaultVariationConfig() VariationConfig {
	return VariationConfig{Timeout: DefaultVariationTimeout}
}
