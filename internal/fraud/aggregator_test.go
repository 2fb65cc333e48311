package fraud

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ZanzyTHEbar/tender-integrity/internal/types"
)

func TestRiskLevelFor(t *testing.T) {
	tests := []struct {
		score float64
		want  RiskLevel
	}{
		{0, RiskLow},
		{49.99, RiskLow},
		{50, RiskMedium},
		{99.9, RiskMedium},
		{100, RiskHigh},
		{199.99, RiskHigh},
		{200, RiskCritical},
		{1000, RiskCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RiskLevelFor(tt.score), "score %v", tt.score)
	}
}

func TestAggregateAttributesFullScoreToBothParties(t *testing.T) {
	participants := []types.Participant{{ID: 1}, {ID: 2}, {ID: 3}}
	detections := []Detection{
		{Type: TypeIPSimilarity, RiskScore: 60, Subject: Binary(1, 2)},
		{Type: TypeTimePattern, RiskScore: 40, Subject: Binary(2, 1)},
		{Type: TypePriceAnomaly, RiskScore: 52.9, Subject: Unary(2)},
		{Type: TypePriceAnomaly, RiskScore: 10, Subject: Unary(99)},
	}

	profiles := Aggregate(participants, detections)
	assert.Len(t, profiles, 3)

	assert.InDelta(t, 100.0, profiles[1].TotalRiskScore, 1e-9)
	assert.Equal(t, RiskHigh, profiles[1].RiskLevel)
	assert.Equal(t, 2, profiles[1].DetectionCount)
	assert.Equal(t, []DetectionType{TypeIPSimilarity, TypeTimePattern}, profiles[1].DetectionTypes)

	assert.InDelta(t, 152.9, profiles[2].TotalRiskScore, 1e-9)
	assert.Equal(t, 3, profiles[2].DetectionCount)

	assert.Equal(t, 0.0, profiles[3].TotalRiskScore)
	assert.Equal(t, RiskLow, profiles[3].RiskLevel)
	assert.Empty(t, profiles[3].DetectionTypes)
}

func TestAggregateAttributionInvariant(t *testing.T) {
	participants := []types.Participant{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}
	detections := []Detection{
		{Type: TypeContentSimilarity, RiskScore: 75, Subject: Binary(1, 3)},
		{Type: TypeContentSimilarity, RiskScore: 72, Subject: Binary(3, 4)},
		{Type: TypeMetadataSimilarity, RiskScore: 91, Subject: Binary(1, 4)},
		{Type: TypePriceAnomaly, RiskScore: 30, Subject: Unary(3)},
	}
	profiles := Aggregate(participants, detections)

	for _, p := range participants {
		want := 0.0
		for _, d := range detections {
			if d.Subject.Includes(p.ID) {
				want += d.RiskScore
			}
		}
		assert.InDelta(t, want, profiles[p.ID].TotalRiskScore, 1e-9, "participant %d", p.ID)
	}
}

func TestRecommendations(t *testing.T) {
	assert.Empty(t, Recommendations(nil))
	recs := Recommendations([]Detection{
		{Type: TypeTimePattern}, {Type: TypeTimePattern}, {Type: TypePriceAnomaly},
	})
	assert.Len(t, recs, 2)
}
