package fraud

import (
	"fmt"
	"math"
	"time"

	"github.com/ZanzyTHEbar/tender-integrity/internal/types"
)

// TimingDetector flags pairs that registered or submitted within minutes of each other
type TimingDetector struct {
	th Thresholds
}

func NewTimingDetector(th Thresholds) *TimingDetector {
	return &TimingDetector{th: th}
}

func (d *TimingDetector) Name() DetectionType { return TypeTimePattern }

type stamp struct {
	id int64
	at time.Time
}

type timingRule struct {
	kind   string
	verb   string
	window time.Duration
	score  float64
	pick   func(types.Participant) *time.Time
}

func (d *TimingDetector) rules() []timingRule {
	return []timingRule{
		{
			kind:   "registration",
			verb:   "registered",
			window: d.th.RegistrationWindow,
			score:  d.th.RegistrationRiskScore,
			pick:   func(p types.Participant) *time.Time { return p.RegistrationTime },
		},
		{
			kind:   "submission",
			verb:   "submitted",
			window: d.th.SubmissionWindow,
			score:  d.th.SubmissionRiskScore,
			pick:   func(p types.Participant) *time.Time { return p.SubmissionTime },
		},
	}
}

func (d *TimingDetector) Detect(participants []types.Participant) ([]Detection, error) {
	var out []Detection
	for _, rule := range d.rules() {
		var stamps []stamp
		for _, p := range participants {
			if t := rule.pick(p); t != nil {
				stamps = append(stamps, stamp{id: p.ID, at: *t})
			}
		}
		if len(stamps) < 2 {
			continue
		}

		window := rule.window.Seconds()
		for i := 0; i < len(stamps); i++ {
			for j := i + 1; j < len(stamps); j++ {
				a, b := stamps[i], stamps[j]
				gap := math.Abs(a.at.Sub(b.at).Seconds())
				if gap > window {
					continue
				}
				out = append(out, Detection{
					Type:        TypeTimePattern,
					Severity:    SeverityMedium,
					RiskScore:   rule.score,
					Description: fmt.Sprintf("Both participants %s %.1f minutes apart", rule.verb, gap/60),
					Subject:     Binary(a.id, b.id),
					Evidence: map[string]any{
						"kind":              rule.kind,
						"time_diff_seconds": gap,
						"time_1":            a.at.Format(time.RFC3339),
						"time_2":            b.at.Format(time.RFC3339),
					},
				})
			}
		}
	}
	return out, nil
}
