package analysis

import (
	"time"

	"github.com/ZanzyTHEbar/tender-integrity/internal/fraud"
)

// Category names one of the five scoring dimensions
type Category string

const (
	CategoryCompliance Category = "compliance"
	CategoryFinancial  Category = "financial"
	CategoryTechnical  Category = "technical"
	CategoryExperience Category = "experience"
	CategoryPrice      Category = "price"
)

// Categories lists the dimensions in reporting order
var Categories = []Category{
	CategoryCompliance,
	CategoryFinancial,
	CategoryTechnical,
	CategoryExperience,
	CategoryPrice,
}

// CategoryScore is one 0-100 sub-score with its rationale
type CategoryScore struct {
	Category  Category       `json:"category"`
	Score     float64        `json:"score"`
	Breakdown map[string]any `json:"breakdown"`
}

// ParticipantScore is the final, ranked outcome for one participant
type ParticipantScore struct {
	ParticipantID  int64                 `json:"participant_id"`
	CompanyName    string                `json:"company_name"`
	TotalScore     float64               `json:"total_score"`
	WeightedScore  float64               `json:"weighted_score"`
	Scores         map[Category]float64  `json:"scores"`
	Details        []CategoryScore       `json:"score_details"`
	RiskLevel      fraud.RiskLevel       `json:"risk_level"`
	RiskScore      float64               `json:"risk_score"`
	RiskPenalty    float64               `json:"risk_penalty"`
	RedFlags       []fraud.DetectionType `json:"red_flags"`
	IsQualified    bool                  `json:"is_qualified"`
	Rank           int                   `json:"rank"`
	IsWinner       bool                  `json:"is_winner"`
	ScoreReasoning string                `json:"score_reasoning"`
	RiskReasoning  string                `json:"risk_reasoning"`
}

// Summary aggregates one evaluation
type Summary struct {
	TotalParticipants int     `json:"total_participants"`
	QualifiedCount    int     `json:"qualified_count"`
	DisqualifiedCount int     `json:"disqualified_count"`
	AverageScore      float64 `json:"average_score"`
	WinnerID          *int64  `json:"winner_id,omitempty"`
	WinnerName        string  `json:"winner_name,omitempty"`
}

// Evaluation is the ranked scoring result for a tender
type Evaluation struct {
	TenderID    int64              `json:"tender_id"`
	Results     []ParticipantScore `json:"results"`
	Summary     Summary            `json:"summary"`
	EvaluatedAt time.Time          `json:"evaluated_at"`
}

// Winner returns the winning participant score, if any
func (e Evaluation) Winner() (ParticipantScore, bool) {
	for _, r := range e.Results {
		if r.IsWinner {
			return r, true
		}
	}
	return ParticipantScore{}, false
}
