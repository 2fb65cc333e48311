package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/tender-integrity/internal/compliance"
	"github.com/ZanzyTHEbar/tender-integrity/internal/fraud"
	"github.com/ZanzyTHEbar/tender-integrity/internal/types"
)

func newTestEngine() *Engine {
	clock := func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	return NewEngine(compliance.NewRuleChecker(), nil).WithClock(clock)
}

func TestScoreParticipantWeightedTotal(t *testing.T) {
	e := newTestEngine()
	ps := e.ScoreParticipant(budgetTender("1000"), strongBid(1), fraud.RiskProfile{RiskLevel: fraud.RiskLow})

	// 100*.25 + 91*.20 + 48*.30 + 87*.15 + 95*.10
	assert.InDelta(t, 80.15, ps.TotalScore, 1e-9)
	assert.Equal(t, 0.0, ps.RiskPenalty)
	assert.True(t, ps.IsQualified)
	assert.Len(t, ps.Details, 5)
	assert.Equal(t, 100.0, ps.Scores[CategoryCompliance])
	assert.Contains(t, ps.ScoreReasoning, "qualified")
	assert.Equal(t, "No risk factors detected.", ps.RiskReasoning)
}

func TestScoreParticipantRiskPenalty(t *testing.T) {
	tests := []struct {
		level     fraud.RiskLevel
		penalty   float64
		qualified bool
	}{
		{fraud.RiskLow, 0, true},
		{fraud.RiskMedium, -5, true},
		{fraud.RiskHigh, -15, true},
		{fraud.RiskCritical, -30, false},
	}
	e := newTestEngine()
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			profile := fraud.RiskProfile{RiskLevel: tt.level, DetectionCount: 1, DetectionTypes: []fraud.DetectionType{fraud.TypeIPSimilarity}}
			ps := e.ScoreParticipant(budgetTender("1000"), strongBid(1), profile)
			assert.Equal(t, tt.penalty, ps.RiskPenalty)
			assert.InDelta(t, 80.15+tt.penalty, ps.TotalScore, 1e-9)
			assert.Equal(t, tt.qualified, ps.IsQualified)
			assert.Equal(t, []fraud.DetectionType{fraud.TypeIPSimilarity}, ps.RedFlags)
		})
	}
}

func TestScoreClampedAtZero(t *testing.T) {
	e := newTestEngine()
	p := types.Participant{ID: 9, TrustScore: ptr(0.0)}
	ps := e.ScoreParticipant(types.Tender{}, p, fraud.RiskProfile{RiskLevel: fraud.RiskCritical})
	assert.GreaterOrEqual(t, ps.TotalScore, 0.0)
	assert.LessOrEqual(t, ps.TotalScore, 100.0)
	assert.False(t, ps.IsQualified)
}

func TestQualifies(t *testing.T) {
	assert.False(t, Qualifies(75, fraud.RiskCritical), "critical risk never qualifies")
	assert.True(t, Qualifies(75, fraud.RiskHigh))
	assert.True(t, Qualifies(60, fraud.RiskLow))
	assert.False(t, Qualifies(59.99, fraud.RiskLow))
}

func TestRank(t *testing.T) {
	in := []ParticipantScore{
		{ParticipantID: 4, TotalScore: 70, IsQualified: true},
		{ParticipantID: 2, TotalScore: 90, IsQualified: false},
		{ParticipantID: 3, TotalScore: 70, IsQualified: true},
		{ParticipantID: 1, TotalScore: 40, IsQualified: false},
	}
	out := Rank(in)

	ids := []int64{}
	for i, r := range out {
		ids = append(ids, r.ParticipantID)
		assert.Equal(t, i+1, r.Rank)
	}
	assert.Equal(t, []int64{2, 3, 4, 1}, ids)

	assert.False(t, out[0].IsWinner, "disqualified top score cannot win")
	assert.True(t, out[1].IsWinner, "tie goes to the lower id")
	assert.False(t, out[2].IsWinner)

	assert.Equal(t, int64(4), in[0].ParticipantID, "input left untouched")
	assert.Equal(t, 0, in[0].Rank)
}

func TestRankNoQualifiedMeansNoWinner(t *testing.T) {
	out := Rank([]ParticipantScore{{ParticipantID: 1, TotalScore: 30}, {ParticipantID: 2, TotalScore: 50}})
	for _, r := range out {
		assert.False(t, r.IsWinner)
	}
	s := Summarize(out)
	assert.Nil(t, s.WinnerID)
	assert.Equal(t, 0, s.QualifiedCount)
	assert.Equal(t, 2, s.DisqualifiedCount)
	assert.Equal(t, 0.0, s.AverageScore)
}

func TestEvaluate(t *testing.T) {
	tender := budgetTender("1000")
	weak := strongBid(3)
	weak.TrustScore = ptr(20.0)
	weak.ProposedPrice = money("1500")
	weak.DeliveryTimeDays = 120
	tender.Participants = []types.Participant{weak, strongBid(2), strongBid(1)}

	report := fraud.Report{Profiles: map[int64]fraud.RiskProfile{
		1: {ParticipantID: 1, RiskLevel: fraud.RiskCritical, TotalRiskScore: 240, DetectionCount: 4},
	}}

	eval, err := newTestEngine().Evaluate(context.Background(), tender, report)
	require.NoError(t, err)
	require.Len(t, eval.Results, 3)

	assert.Equal(t, int64(2), eval.Results[0].ParticipantID)
	assert.True(t, eval.Results[0].IsWinner)
	assert.False(t, eval.Results[1].IsQualified)

	winners := 0
	for _, r := range eval.Results {
		if r.IsWinner {
			winners++
		}
		assert.Equal(t, Qualifies(r.TotalScore, r.RiskLevel), r.IsQualified)
	}
	assert.Equal(t, 1, winners)

	require.NotNil(t, eval.Summary.WinnerID)
	assert.Equal(t, int64(2), *eval.Summary.WinnerID)
	assert.Equal(t, 1, eval.Summary.QualifiedCount)
	assert.InDelta(t, 80.15, eval.Summary.AverageScore, 1e-9)

	w, ok := eval.Winner()
	require.True(t, ok)
	assert.Equal(t, int64(2), w.ParticipantID)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	tender := budgetTender("1000")
	tender.Participants = []types.Participant{strongBid(5), strongBid(4), strongBid(6)}
	e := newTestEngine()

	first, err := e.Evaluate(context.Background(), tender, fraud.Report{})
	require.NoError(t, err)
	second, err := e.Evaluate(context.Background(), tender, fraud.Report{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(4), first.Results[0].ParticipantID)
}

func TestEvaluateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tender := budgetTender("1000")
	tender.Participants = []types.Participant{strongBid(1)}
	_, err := newTestEngine().Evaluate(ctx, tender, fraud.Report{})
	assert.Error(t, err)
}
