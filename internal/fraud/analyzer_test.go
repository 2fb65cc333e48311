package fraud

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/tender-integrity/internal/monitoring"
	"github.com/ZanzyTHEbar/tender-integrity/internal/types"
)

type stubDetector struct {
	name DetectionType
	dets []Detection
	err  error
	boom bool
}

func (s stubDetector) Name() DetectionType { return s.name }

func (s stubDetector) Detect([]types.Participant) ([]Detection, error) {
	if s.boom {
		panic("detector exploded")
	}
	return s.dets, s.err
}

func sampleTender() types.Tender {
	p1 := priced(3, "100.10")
	p1.IPAddress = "10.0.0.5"
	p1.RegistrationTime = at(0)
	p2 := priced(1, "100.10")
	p2.IPAddress = "10.0.0.5"
	p2.RegistrationTime = at(100 * time.Second)
	p3 := priced(2, "40.10")
	return types.Tender{ID: 42, Participants: []types.Participant{p1, p2, p3, priced(4, "100.10")}}
}

func TestAnalyzerEndToEnd(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds(), nil)
	report, err := a.Analyze(context.Background(), sampleTender())
	require.NoError(t, err)

	assert.Equal(t, int64(42), report.TenderID)
	assert.Empty(t, report.FailedDetectors)
	assert.Len(t, findByType(report.Detections, TypeIPSimilarity), 1)
	assert.Len(t, findByType(report.Detections, TypeTimePattern), 1)
	assert.Len(t, findByType(report.Detections, TypePriceAnomaly), 1)

	// ip 60 + registration 40
	assert.InDelta(t, 100.0, report.Profiles[1].TotalRiskScore, 1e-9)
	assert.InDelta(t, 100.0, report.Profiles[3].TotalRiskScore, 1e-9)
	assert.Equal(t, RiskHigh, report.Profiles[1].RiskLevel)
	assert.Equal(t, SeverityCritical, findByType(report.Detections, TypePriceAnomaly)[0].Severity)

	sum := 0.0
	for _, d := range report.Detections {
		sum += d.RiskScore
	}
	assert.InDelta(t, sum, report.TotalRiskScore, 1e-9)
	assert.Equal(t, RiskLevelFor(sum), report.RiskLevel)
	assert.Len(t, report.Recommendations, 3)
}

func TestAnalyzerIsIdempotent(t *testing.T) {
	clock := func() time.Time { return baseTime }
	a := NewAnalyzer(DefaultThresholds(), nil, WithClock(clock))
	first, err := a.Analyze(context.Background(), sampleTender())
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), sampleTender())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAnalyzerDegradesOnDetectorFailure(t *testing.T) {
	m, err := monitoring.NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	good := stubDetector{name: TypeIPSimilarity, dets: []Detection{
		{Type: TypeIPSimilarity, Severity: SeverityHigh, RiskScore: 60, Subject: Binary(1, 2)},
	}}
	a := NewAnalyzer(DefaultThresholds(), nil,
		WithMetrics(m),
		WithDetectors(
			stubDetector{name: TypeContentSimilarity, err: errors.New("vectorizer failed")},
			good,
			stubDetector{name: TypeMetadataSimilarity, boom: true},
		),
	)

	report, err := a.Analyze(context.Background(), types.Tender{
		ID:           1,
		Participants: []types.Participant{{ID: 1}, {ID: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, []DetectionType{TypeContentSimilarity, TypeMetadataSimilarity}, report.FailedDetectors)
	require.Len(t, report.Detections, 1)
	assert.Equal(t, 60.0, report.Profiles[2].TotalRiskScore)
}

func TestAnalyzerTooFewParticipants(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds(), nil)
	report, err := a.Analyze(context.Background(), types.Tender{ID: 5, Participants: []types.Participant{priced(1, "10")}})
	require.NoError(t, err)
	assert.Empty(t, report.Detections)
	assert.Equal(t, RiskLow, report.RiskLevel)
	assert.Contains(t, report.Profiles, int64(1))
}

func TestAnalyzerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewAnalyzer(DefaultThresholds(), nil).Analyze(ctx, sampleTender())
	assert.Error(t, err)
}

func TestSnapshotSortsWithoutMutating(t *testing.T) {
	in := []types.Participant{
		{ID: 3, IPAddress: " 10.0.0.1 "},
		{ID: 1, Documents: []types.Document{{ExtractedText: "  text  "}}},
	}
	out := Snapshot(in)
	assert.Equal(t, int64(1), out[0].ID)
	assert.Equal(t, "10.0.0.1", out[1].IPAddress)
	assert.Equal(t, "text", out[0].Documents[0].ExtractedText)

	assert.Equal(t, int64(3), in[0].ID)
	assert.Equal(t, "  text  ", in[1].Documents[0].ExtractedText)
}
