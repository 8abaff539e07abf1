package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var danishTiers = ThresholdTiers{Excellent: 0.70, Good: 0.55, Acceptable: 0.30, Minimum: 0.20}

func TestThresholdTiers_Tier(t *testing.T) {
	tests := []struct {
		name       string
		similarity float64
		want       QualityTier
	}{
		{"excellent", 0.85, TierExcellent},
		{"excellent boundary", 0.70, TierExcellent},
		{"good", 0.58, TierGood},
		{"acceptable", 0.40, TierAcceptable},
		{"acceptable boundary", 0.30, TierAcceptable},
		{"minimum", 0.25, TierMinimum},
		{"poor", 0.10, TierPoor},
		{"zero", 0, TierPoor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, danishTiers.Tier(tt.similarity))
		})
	}
}

// Raising a similarity score must never move the result to a lower tier.
func TestThresholdTiers_Monotonic(t *testing.T) {
	rank := map[QualityTier]int{
		TierPoor:       0,
		TierMinimum:    1,
		TierAcceptable: 2,
		TierGood:       3,
		TierExcellent:  4,
	}

	prev := danishTiers.Tier(0)
	for s := 0.0; s <= 1.0; s += 0.01 {
		cur := danishTiers.Tier(s)
		assert.GreaterOrEqual(t, rank[cur], rank[prev], "similarity %.2f", s)
		prev = cur
	}
}

func TestRetrievalConfig_TiersFor(t *testing.T) {
	cfg := DefaultRetrievalConfig()

	da := cfg.TiersFor("da")
	assert.InDelta(t, 0.30, da.Acceptable, 1e-9)

	// Unknown language falls back to the default language tiers.
	fallback := cfg.TiersFor("sv")
	assert.Equal(t, da, fallback)
}
