package fraud

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/tender-integrity/internal/errors"
	"github.com/ZanzyTHEbar/tender-integrity/internal/textsim"
	"github.com/ZanzyTHEbar/tender-integrity/internal/types"
)

// ContentDetector compares proposal text across participants with TF-IDF cosine similarity
type ContentDetector struct {
	th Thresholds
}

func NewContentDetector(th Thresholds) *ContentDetector {
	return &ContentDetector{th: th}
}

func (d *ContentDetector) Name() DetectionType { return TypeContentSimilarity }

func (d *ContentDetector) Detect(participants []types.Participant) ([]Detection, error) {
	var ids []int64
	var texts []string
	for _, p := range participants {
		parts := make([]string, 0, len(p.Documents))
		for _, doc := range p.Documents {
			if doc.ExtractedText != "" {
				parts = append(parts, doc.ExtractedText)
			}
		}
		text := strings.TrimSpace(strings.Join(parts, " "))
		if text == "" {
			continue
		}
		ids = append(ids, p.ID)
		texts = append(texts, text)
	}
	if len(texts) < 2 {
		return nil, nil
	}

	vectors, err := textsim.NewVectorizer(d.th.MaxFeatures).FitTransform(texts)
	if err != nil {
		return nil, errors.NewComputationError(string(TypeContentSimilarity), err)
	}

	var out []Detection
	for i := 0; i < len(texts); i++ {
		for j := i + 1; j < len(texts); j++ {
			similarity := textsim.Cosine(vectors[i], vectors[j])
			if similarity < d.th.ContentSimilarity {
				continue
			}
			severity := SeverityHigh
			if similarity >= d.th.ContentCritical {
				severity = SeverityCritical
			}
			out = append(out, Detection{
				Type:        TypeContentSimilarity,
				Severity:    severity,
				RiskScore:   similarity * d.th.ContentRiskScale,
				Description: fmt.Sprintf("Proposal texts are %.1f%% similar", similarity*100),
				Subject:     Binary(ids[i], ids[j]),
				Evidence: map[string]any{
					"similarity_score": similarity,
					"matching_phrases": textsim.MatchingPhrases(texts[i], texts[j], d.th.MaxPhrases),
				},
			})
		}
	}
	return out, nil
}
