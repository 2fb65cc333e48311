package analysis

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/tender-integrity/internal/fraud"
)

type verdict struct {
	good, fair, poor string
}

var categoryVerdicts = []struct {
	category Category
	verdict  verdict
}{
	{CategoryCompliance, verdict{"fully meets compliance requirements", "partially meets compliance requirements", "has compliance gaps"}},
	{CategoryFinancial, verdict{"financial offer is very favourable", "financial offer is acceptable", "financial offer has problems"}},
	{CategoryTechnical, verdict{"strong technical capability", "satisfactory technical capability", "insufficient technical capability"}},
}

func scoreReasoning(scores map[Category]float64, penalty float64, qualified bool) string {
	best, worst := Categories[0], Categories[0]
	for _, c := range Categories[1:] {
		if scores[c] > scores[best] {
			best = c
		}
		if scores[c] < scores[worst] {
			worst = c
		}
	}

	parts := []string{
		fmt.Sprintf("Highest score: %s (%.1f)", best, scores[best]),
		fmt.Sprintf("Lowest score: %s (%.1f)", worst, scores[worst]),
	}
	for _, cv := range categoryVerdicts {
		switch s := scores[cv.category]; {
		case s >= 80:
			parts = append(parts, cv.verdict.good)
		case s >= 60:
			parts = append(parts, cv.verdict.fair)
		default:
			parts = append(parts, cv.verdict.poor)
		}
	}
	if penalty < 0 {
		parts = append(parts, fmt.Sprintf("%.1f points deducted for risk", -penalty))
	}
	if qualified {
		parts = append(parts, "qualified")
	} else {
		parts = append(parts, "not qualified")
	}
	return strings.Join(parts, ". ") + "."
}

func riskReasoning(profile fraud.RiskProfile) string {
	if profile.DetectionCount == 0 {
		return "No risk factors detected."
	}
	parts := []string{fmt.Sprintf("Risk level: %s", profile.RiskLevel)}
	if len(profile.DetectionTypes) > 0 {
		names := make([]string, len(profile.DetectionTypes))
		for i, t := range profile.DetectionTypes {
			names[i] = string(t)
		}
		parts = append(parts, "Detected risk types: "+strings.Join(names, ", "))
	}
	switch profile.RiskLevel {
	case fraud.RiskCritical:
		parts = append(parts, "critical risk, further investigation required")
	case fraud.RiskHigh:
		parts = append(parts, "high risk, proceed with caution")
	case fraud.RiskMedium:
		parts = append(parts, "medium risk, monitor closely")
	}
	return strings.Join(parts, ". ") + "."
}
