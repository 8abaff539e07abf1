package domain

// QualityTier is a named confidence bucket for a result set, derived
// from comparing the top similarity score against language-specific
// thresholds.
type QualityTier string

const (
	// TierExcellent indicates a very strong top match.
	TierExcellent QualityTier = "excellent"
	// TierGood indicates a strong top match.
	TierGood QualityTier = "good"
	// TierAcceptable indicates a usable top match.
	TierAcceptable QualityTier = "acceptable"
	// TierMinimum indicates a weak but reportable top match.
	TierMinimum QualityTier = "minimum"
	// TierPoor indicates no usable match, including the empty result
	// set. Poor is a valid outcome, not an error.
	TierPoor QualityTier = "poor"
)

// ThresholdTiers holds the ordered similarity cutoffs for one
// language. Embedding models show systematically different similarity
// distributions per language, so the tiers are configured per
// deployment rather than hardcoded.
type ThresholdTiers struct {
	Excellent  float64
	Good       float64
	Acceptable float64
	Minimum    float64
}

// Tier maps a raw top similarity score onto a quality tier. Raising a
// score never lowers the tier.
func (t ThresholdTiers) Tier(similarity float64) QualityTier {
	switch {
	case similarity >= t.Excellent:
		return TierExcellent
	case similarity >= t.Good:
		return TierGood
	case similarity >= t.Acceptable:
		return TierAcceptable
	case similarity >= t.Minimum:
		return TierMinimum
	default:
		return TierPoor
	}
}

// QualityReport carries the advisory quality metrics attached to a
// QueryRun. It may drive user-visible suggestions but never blocks
// returning the best-available answer.
type QualityReport struct {
	// Tier is the confidence tier from the top similarity score.
	Tier QualityTier

	// TopSimilarity is the best similarity in the result set, zero
	// when the set is empty.
	TopSimilarity float64

	// SourceDiversity is unique source documents / total results.
	// Zero for an empty set.
	SourceDiversity float64

	// PageSpread is the distance between the lowest and highest page
	// number among results, flagging over-concentration in one
	// passage.
	PageSpread int

	// ResultCount is the number of results assessed.
	ResultCount int
}
