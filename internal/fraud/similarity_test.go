package fraud

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/tender-integrity/internal/types"
)

func docsParticipant(id int64, docs ...types.Document) types.Participant {
	return types.Participant{ID: id, Documents: docs}
}

func TestMetadataDetector(t *testing.T) {
	d := NewMetadataDetector(DefaultThresholds())

	dets, err := d.Detect([]types.Participant{
		docsParticipant(1, types.Document{CreatedBySoftware: "Word 2016", CreationDate: at(0), FileSizeBytes: 1000}),
		docsParticipant(2, types.Document{CreatedBySoftware: "Word 2016", CreationDate: at(6 * time.Minute), FileSizeBytes: 1000}),
		docsParticipant(3, types.Document{CreatedBySoftware: "LibreOffice", CreationDate: at(48 * time.Hour), FileSizeBytes: 90000}),
	})
	require.NoError(t, err)
	require.Len(t, dets, 1)

	det := dets[0]
	assert.Equal(t, []int64{1, 2}, det.Subject.Participants())
	// (1 + 0.9 + 1) / 3
	assert.InDelta(t, 0.9667, det.Evidence["similarity_score"].(float64), 1e-3)
	assert.InDelta(t, 96.67, det.RiskScore, 0.01)
	assert.Equal(t, SeverityHigh, det.Severity)
	assert.Equal(t, []string{"Word 2016"}, det.Evidence["shared_software"])
}

func TestMetadataDetectorIgnoresDistantDates(t *testing.T) {
	d := NewMetadataDetector(DefaultThresholds())

	// dates too far apart drop out of the mean; software and sizes still match
	dets, err := d.Detect([]types.Participant{
		docsParticipant(1, types.Document{CreatedBySoftware: "Word", CreationDate: at(0), FileSizeBytes: 500}),
		docsParticipant(2, types.Document{CreatedBySoftware: "Word", CreationDate: at(5 * time.Hour), FileSizeBytes: 500}),
	})
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.InDelta(t, 1.0, dets[0].Evidence["similarity_score"].(float64), 1e-9)
}

func TestMetadataDetectorMediumSeverity(t *testing.T) {
	d := NewMetadataDetector(DefaultThresholds())
	dets, err := d.Detect([]types.Participant{
		docsParticipant(1, types.Document{CreatedBySoftware: "Word", FileSizeBytes: 1000}),
		docsParticipant(2, types.Document{CreatedBySoftware: "Word", FileSizeBytes: 700}),
	})
	require.NoError(t, err)
	require.Len(t, dets, 1)
	// (1 + 0.7) / 2
	assert.InDelta(t, 0.85, dets[0].Evidence["similarity_score"].(float64), 1e-9)
	assert.Equal(t, SeverityMedium, dets[0].Severity)
}

func TestMetadataDetectorNeedsTwoFeatureSets(t *testing.T) {
	d := NewMetadataDetector(DefaultThresholds())
	dets, err := d.Detect([]types.Participant{
		docsParticipant(1, types.Document{CreatedBySoftware: "Word"}),
		docsParticipant(2),
	})
	require.NoError(t, err)
	assert.Empty(t, dets)
}

func TestContentDetector(t *testing.T) {
	d := NewContentDetector(DefaultThresholds())
	shared := "We will supply portland cement grade 400 to the construction site within thirty days of signing"

	dets, err := d.Detect([]types.Participant{
		docsParticipant(1, types.Document{ExtractedText: shared}),
		docsParticipant(2, types.Document{ExtractedText: shared}),
		docsParticipant(3, types.Document{ExtractedText: "Office furniture chairs desks cabinets delivered assembled"}),
		docsParticipant(4),
	})
	require.NoError(t, err)
	require.Len(t, dets, 1)

	det := dets[0]
	assert.Equal(t, []int64{1, 2}, det.Subject.Participants())
	assert.Equal(t, SeverityCritical, det.Severity)
	assert.InDelta(t, 80.0, det.RiskScore, 1e-6)
	phrases := det.Evidence["matching_phrases"].([]string)
	assert.NotEmpty(t, phrases)
	assert.LessOrEqual(t, len(phrases), 10)
}

func TestContentDetectorSkipsWithOneText(t *testing.T) {
	d := NewContentDetector(DefaultThresholds())
	dets, err := d.Detect([]types.Participant{
		docsParticipant(1, types.Document{ExtractedText: "only one text"}),
		docsParticipant(2, types.Document{ExtractedText: "   "}),
	})
	require.NoError(t, err)
	assert.Empty(t, dets)
}

func TestContentDetectorDegenerateText(t *testing.T) {
	d := NewContentDetector(DefaultThresholds())
	_, err := d.Detect([]types.Participant{
		docsParticipant(1, types.Document{ExtractedText: "va ham"}),
		docsParticipant(2, types.Document{ExtractedText: "the and"}),
	})
	assert.Error(t, err)
}

func TestIPDetector(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		wantHit  bool
		score    float64
		severity Severity
	}{
		{"identical", "192.168.1.10", "192.168.1.10", true, 60, SeverityHigh},
		{"same /24", "192.168.1.10", "192.168.1.77", true, 48, SeverityHigh},
		{"same /16", "192.168.1.10", "192.168.9.77", true, 36, SeverityMedium},
		{"unrelated", "10.0.0.1", "192.168.1.10", false, 0, ""},
		{"identical v6", "2001:db8::1", "2001:db8::1", true, 60, SeverityHigh},
		{"v6 neighbours", "2001:db8::1", "2001:db8::2", false, 0, ""},
		{"mapped v4", "::ffff:10.1.1.1", "10.1.1.1", true, 60, SeverityHigh},
		{"garbage", "not-an-ip", "10.1.1.1", false, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewIPDetector(DefaultThresholds())
			dets, err := d.Detect([]types.Participant{
				{ID: 1, IPAddress: tt.a},
				{ID: 2, IPAddress: tt.b},
				{ID: 3},
			})
			require.NoError(t, err)
			if !tt.wantHit {
				assert.Empty(t, dets)
				return
			}
			require.Len(t, dets, 1)
			assert.InDelta(t, tt.score, dets[0].RiskScore, 1e-9)
			assert.Equal(t, tt.severity, dets[0].Severity)
			assert.Equal(t, []int64{1, 2}, dets[0].Subject.Participants())
		})
	}
}

func TestTimingDetector(t *testing.T) {
	d := NewTimingDetector(DefaultThresholds())

	t.Run("registration within window", func(t *testing.T) {
		dets, err := d.Detect([]types.Participant{
			{ID: 1, RegistrationTime: at(0)},
			{ID: 2, RegistrationTime: at(200 * time.Second)},
		})
		require.NoError(t, err)
		require.Len(t, dets, 1)
		assert.Equal(t, TypeTimePattern, dets[0].Type)
		assert.Equal(t, 40.0, dets[0].RiskScore)
		assert.Equal(t, SeverityMedium, dets[0].Severity)
		assert.Equal(t, "registration", dets[0].Evidence["kind"])
	})

	t.Run("registration outside window, submission inside", func(t *testing.T) {
		dets, err := d.Detect([]types.Participant{
			{ID: 1, RegistrationTime: at(0), SubmissionTime: at(time.Hour)},
			{ID: 2, RegistrationTime: at(400 * time.Second), SubmissionTime: at(time.Hour + 9*time.Minute)},
		})
		require.NoError(t, err)
		require.Len(t, dets, 1)
		assert.Equal(t, "submission", dets[0].Evidence["kind"])
		assert.Equal(t, 30.0, dets[0].RiskScore)
	})

	t.Run("both fire", func(t *testing.T) {
		dets, err := d.Detect([]types.Participant{
			{ID: 1, RegistrationTime: at(0), SubmissionTime: at(time.Hour)},
			{ID: 2, RegistrationTime: at(300 * time.Second), SubmissionTime: at(time.Hour)},
		})
		require.NoError(t, err)
		assert.Len(t, dets, 2)
	})
}
