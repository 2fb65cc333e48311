package fraud

import (
	"sort"

	"github.com/ZanzyTHEbar/tender-integrity/internal/types"
)

// RiskLevel is the discretised total risk of a participant or tender
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// riskBands is ordered by ascending upper bound; the last band is open-ended
var riskBands = []struct {
	below float64
	level RiskLevel
}{
	{50, RiskLow},
	{100, RiskMedium},
	{200, RiskHigh},
}

// RiskLevelFor maps a cumulative risk score to its level
func RiskLevelFor(score float64) RiskLevel {
	for _, band := range riskBands {
		if score < band.below {
			return band.level
		}
	}
	return RiskCritical
}

// RiskProfile is the per-participant fold of every detection naming them
type RiskProfile struct {
	ParticipantID  int64           `json:"participant_id"`
	CompanyName    string          `json:"company_name"`
	TotalRiskScore float64         `json:"total_risk_score"`
	RiskLevel      RiskLevel       `json:"risk_level"`
	DetectionCount int             `json:"detection_count"`
	DetectionTypes []DetectionType `json:"detection_types"`
}

// Aggregate attributes each detection's full risk score to every participant
// in its subject. Participants without detections get a zero low-risk profile;
// subjects naming unknown ids are ignored.
func Aggregate(participants []types.Participant, detections []Detection) map[int64]RiskProfile {
	profiles := make(map[int64]*RiskProfile, len(participants))
	typeSets := make(map[int64]map[DetectionType]struct{}, len(participants))
	for _, p := range participants {
		profiles[p.ID] = &RiskProfile{ParticipantID: p.ID, CompanyName: p.CompanyName}
		typeSets[p.ID] = make(map[DetectionType]struct{})
	}

	for _, det := range detections {
		for _, id := range det.Subject.Participants() {
			profile, ok := profiles[id]
			if !ok {
				continue
			}
			profile.TotalRiskScore += det.RiskScore
			profile.DetectionCount++
			typeSets[id][det.Type] = struct{}{}
		}
	}

	out := make(map[int64]RiskProfile, len(profiles))
	for id, profile := range profiles {
		profile.RiskLevel = RiskLevelFor(profile.TotalRiskScore)
		profile.DetectionTypes = sortedTypes(typeSets[id])
		out[id] = *profile
	}
	return out
}

func sortedTypes(set map[DetectionType]struct{}) []DetectionType {
	out := make([]DetectionType, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
