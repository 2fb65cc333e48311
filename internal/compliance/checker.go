// Package compliance supplies the compliance category score for a participant.
package compliance

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/tender-integrity/internal/stats"
	"github.com/ZanzyTHEbar/tender-integrity/internal/types"
)

// Status buckets a compliance score
type Status string

const (
	StatusPassed  Status = "passed"
	StatusWarning Status = "warning"
	StatusFailed  Status = "failed"
)

// Check is the outcome of one compliance rule
type Check struct {
	Rule        string  `json:"rule"`
	Passed      bool    `json:"passed"`
	Points      float64 `json:"points"`
	MaxPoints   float64 `json:"max_points"`
	Severity    string  `json:"severity,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Result is the compliance score for one participant
type Result struct {
	ParticipantID int64   `json:"participant_id"`
	Score         float64 `json:"score"`
	Status        Status  `json:"status"`
	Source        string  `json:"source"`
	Checks        []Check `json:"checks,omitempty"`
}

// Checker produces a 0-100 compliance score
type Checker interface {
	Check(tender types.Tender, p types.Participant) Result
}

// RequiredDocumentTypes must all be present in a complete bid
var RequiredDocumentTypes = []string{"proposal", "financial", "technical"}

type rule struct {
	name     string
	points   float64
	severity string
	eval     func(types.Tender, types.Participant) (bool, string)
}

var rules = []rule{
	{"required_documents", 25, "critical", checkRequiredDocuments},
	{"qualification", 25, "high", checkQualification},
	{"price_offer", 25, "critical", checkPrice},
	{"technical_document", 25, "critical", checkTechnicalDocument},
}

// RuleChecker uses a precomputed score when the participant carries one and
// falls back to the built-in rule table otherwise.
type RuleChecker struct{}

func NewRuleChecker() *RuleChecker { return &RuleChecker{} }

func (c *RuleChecker) Check(tender types.Tender, p types.Participant) Result {
	if p.ComplianceScore != nil {
		score := stats.Clip(*p.ComplianceScore, 0, 100)
		return Result{ParticipantID: p.ID, Score: score, Status: statusFor(score), Source: "precomputed"}
	}

	res := Result{ParticipantID: p.ID, Source: "rules"}
	var earned, possible float64
	for _, r := range rules {
		ok, msg := r.eval(tender, p)
		check := Check{Rule: r.name, Passed: ok, MaxPoints: r.points}
		if ok {
			check.Points = r.points
		} else {
			check.Severity = r.severity
			check.Description = msg
		}
		earned += check.Points
		possible += r.points
		res.Checks = append(res.Checks, check)
	}
	res.Score = stats.Round(earned/possible*100, 2)
	res.Status = statusFor(res.Score)
	return res
}

func statusFor(score float64) Status {
	switch {
	case score >= 85:
		return StatusPassed
	case score >= 60:
		return StatusWarning
	default:
		return StatusFailed
	}
}

func checkRequiredDocuments(_ types.Tender, p types.Participant) (bool, string) {
	var missing []string
	for _, t := range RequiredDocumentTypes {
		if len(p.DocumentsOfType(t)) == 0 {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return false, "missing required documents: " + strings.Join(missing, ", ")
	}
	return true, ""
}

func checkQualification(t types.Tender, p types.Participant) (bool, string) {
	for _, req := range t.Requirements {
		if !req.IsMandatory || (req.RequirementType != "qualification" && req.RequirementType != "experience") {
			continue
		}
		if p.Trust() < 30 {
			return false, fmt.Sprintf("does not meet mandatory requirement %q", req.Title)
		}
	}
	return true, ""
}

func checkPrice(t types.Tender, p types.Participant) (bool, string) {
	if !p.HasPrice() {
		return false, "no price offer submitted"
	}
	if budget, ok := t.Budget(); ok && p.Price() > budget {
		return false, fmt.Sprintf("price %s exceeds the estimated budget", p.ProposedPrice.StringFixed(2))
	}
	return true, ""
}

func checkTechnicalDocument(_ types.Tender, p types.Participant) (bool, string) {
	if len(p.DocumentsOfType("technical")) == 0 {
		return false, "no technical document"
	}
	return true, ""
}
