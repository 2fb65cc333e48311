package fraud

import (
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/tender-integrity/internal/types"
)

// Detector inspects a participant snapshot and reports findings.
// Implementations must not mutate participants. Fewer than two usable data
// points yields no detections and no error.
type Detector interface {
	Name() DetectionType
	Detect(participants []types.Participant) ([]Detection, error)
}

// DefaultDetectors returns the five detectors in their canonical order
func DefaultDetectors(th Thresholds) []Detector {
	return []Detector{
		NewMetadataDetector(th),
		NewPriceDetector(th),
		NewContentDetector(th),
		NewIPDetector(th),
		NewTimingDetector(th),
	}
}

// Snapshot returns a sorted, trimmed copy of participants that detectors can
// share read-only. Ordering by id makes pair orientation reproducible.
func Snapshot(participants []types.Participant) []types.Participant {
	out := make([]types.Participant, len(participants))
	for i, p := range participants {
		p.CompanyName = strings.TrimSpace(p.CompanyName)
		p.IPAddress = strings.TrimSpace(p.IPAddress)

		docs := make([]types.Document, len(p.Documents))
		for j, d := range p.Documents {
			d.CreatedBySoftware = strings.TrimSpace(d.CreatedBySoftware)
			d.Author = strings.TrimSpace(d.Author)
			d.ExtractedText = strings.TrimSpace(d.ExtractedText)
			docs[j] = d
		}
		p.Documents = docs
		out[i] = p
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}
