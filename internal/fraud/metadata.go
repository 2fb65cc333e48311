package fraud

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ZanzyTHEbar/tender-integrity/internal/stats"
	"github.com/ZanzyTHEbar/tender-integrity/internal/types"
)

// MetadataDetector flags pairs whose documents share authoring software,
// creation time and file sizes.
type MetadataDetector struct {
	th Thresholds
}

func NewMetadataDetector(th Thresholds) *MetadataDetector {
	return &MetadataDetector{th: th}
}

func (d *MetadataDetector) Name() DetectionType { return TypeMetadataSimilarity }

type docFeatures struct {
	id       int64
	software map[string]struct{}
	created  []time.Time
	sizes    []float64
}

func (f docFeatures) empty() bool {
	return len(f.software) == 0 && len(f.created) == 0 && len(f.sizes) == 0
}

func extractFeatures(p types.Participant) docFeatures {
	f := docFeatures{id: p.ID, software: make(map[string]struct{})}
	for _, doc := range p.Documents {
		if doc.CreatedBySoftware != "" {
			f.software[doc.CreatedBySoftware] = struct{}{}
		}
		if doc.CreationDate != nil {
			f.created = append(f.created, *doc.CreationDate)
		}
		if doc.FileSizeBytes > 0 {
			f.sizes = append(f.sizes, float64(doc.FileSizeBytes))
		}
	}
	return f
}

func (d *MetadataDetector) Detect(participants []types.Participant) ([]Detection, error) {
	var features []docFeatures
	for _, p := range participants {
		if f := extractFeatures(p); !f.empty() {
			features = append(features, f)
		}
	}
	if len(features) < 2 {
		return nil, nil
	}

	var out []Detection
	for i := 0; i < len(features); i++ {
		for j := i + 1; j < len(features); j++ {
			a, b := features[i], features[j]
			similarity, evidence := d.similarity(a, b)
			if similarity < d.th.MetadataSimilarity {
				continue
			}

			severity := SeverityMedium
			if similarity >= d.th.MetadataHigh {
				severity = SeverityHigh
			}
			evidence["similarity_score"] = similarity
			out = append(out, Detection{
				Type:        TypeMetadataSimilarity,
				Severity:    severity,
				RiskScore:   similarity * 100,
				Description: fmt.Sprintf("Document metadata is %.1f%% similar", similarity*100),
				Subject:     Binary(a.id, b.id),
				Evidence:    evidence,
			})
		}
	}
	return out, nil
}

// similarity averages the sub-scores for which both sides have data
func (d *MetadataDetector) similarity(a, b docFeatures) (float64, map[string]any) {
	evidence := map[string]any{}
	var sum float64
	checks := 0

	if len(a.software) > 0 && len(b.software) > 0 {
		shared := sharedSoftware(a.software, b.software)
		union := len(a.software) + len(b.software) - len(shared)
		sum += float64(len(shared)) / float64(union)
		checks++
		evidence["shared_software"] = shared
	}

	if len(a.created) > 0 && len(b.created) > 0 {
		gap := closestGap(a.created, b.created)
		window := d.th.CreationWindow.Seconds()
		if gap <= window {
			sum += 1 - math.Min(1, gap/window)
			checks++
		}
		evidence["creation_gap_seconds"] = gap
		evidence["creation_times"] = map[string]any{
			"participant_1": earliest(a.created).Format(time.RFC3339),
			"participant_2": earliest(b.created).Format(time.RFC3339),
		}
	}

	if len(a.sizes) > 0 && len(b.sizes) > 0 {
		avgA, avgB := stats.Mean(a.sizes), stats.Mean(b.sizes)
		if avgA > 0 && avgB > 0 {
			sum += math.Min(avgA, avgB) / math.Max(avgA, avgB)
			checks++
			evidence["avg_file_size_1"] = avgA
			evidence["avg_file_size_2"] = avgB
		}
	}

	if checks == 0 {
		return 0, evidence
	}
	return sum / float64(checks), evidence
}

func sharedSoftware(a, b map[string]struct{}) []string {
	shared := []string{}
	for name := range a {
		if _, ok := b[name]; ok {
			shared = append(shared, name)
		}
	}
	sort.Strings(shared)
	return shared
}

func closestGap(a, b []time.Time) float64 {
	best := math.Inf(1)
	for _, ta := range a {
		for _, tb := range b {
			best = math.Min(best, math.Abs(ta.Sub(tb).Seconds()))
		}
	}
	return best
}

func earliest(ts []time.Time) time.Time {
	first := ts[0]
	for _, t := range ts[1:] {
		if t.Before(first) {
			first = t
		}
	}
	return first
}
