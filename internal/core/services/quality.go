package services

import (
	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
	"github.com/nordvig-labs/byggqa-cli/internal/logger"
)

// QualityAssessor computes advisory quality metrics for a result set.
// Metrics attach to the QueryRun and may drive user-visible
// suggestions; they never block returning the best-available answer.
type QualityAssessor struct {
	cfg domain.RetrievalConfig
}

// NewQualityAssessor creates a quality assessor.
func NewQualityAssessor(cfg domain.RetrievalConfig) *QualityAssessor {
	return &QualityAssessor{cfg: cfg}
}

// Assess grades a result set. topSimilarity is the best raw similarity
// before threshold filtering, so an all-filtered set still reports how
// close the nearest miss was. An empty set is a valid outcome carrying
// the poor tier.
func (a *QualityAssessor) Assess(
	results []domain.SearchResult, topSimilarity float64, language string,
) domain.QualityReport {
	report := domain.QualityReport{
		TopSimilarity: topSimilarity,
		ResultCount:   len(results),
		Tier:          domain.TierPoor,
	}

	if topSimilarity > 0 {
		report.Tier = a.cfg.TiersFor(language).Tier(topSimilarity)
	}

	if len(results) == 0 {
		return report
	}

	docs := make(map[string]bool, len(results))
	minPage, maxPage := results[0].Metadata.PageNumber, results[0].Metadata.PageNumber
	for _, r := range results {
		docs[r.DocumentID] = true
		if p := r.Metadata.PageNumber; p > 0 {
			if p < minPage || minPage == 0 {
				minPage = p
			}
			if p > maxPage {
				maxPage = p
			}
		}
	}

	report.SourceDiversity = float64(len(docs)) / float64(len(results))
	report.PageSpread = maxPage - minPage

	logger.Debug("Quality: tier=%s top=%.3f diversity=%.2f spread=%d",
		report.Tier, report.TopSimilarity, report.SourceDiversity, report.PageSpread)
	return report
}
