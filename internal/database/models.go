package database

import (
	"time"

	"github.com/google/uuid"

	"github.com/ZanzyTHEbar/tender-integrity/internal/analysis"
	"github.com/ZanzyTHEbar/tender-integrity/internal/fraud"
)

// Run is one persisted analyze+score execution for a tender
type Run struct {
	ID          string              `json:"run_id"`
	TenderID    int64               `json:"tender_id"`
	Fingerprint string              `json:"fingerprint"`
	Report      fraud.Report        `json:"report"`
	Evaluation  analysis.Evaluation `json:"evaluation"`
	CreatedAt   time.Time           `json:"created_at"`
}

// DetectionRecord is a row of the detections audit table
type DetectionRecord struct {
	ID        string          `json:"id" db:"id"`
	RunID     string          `json:"run_id" db:"run_id"`
	Position  int             `json:"position" db:"position"`
	Detection fraud.Detection `json:"detection"`
}

// ScoreRecord is a row of the participant_scores audit table
type ScoreRecord struct {
	ParticipantID int64                 `json:"participant_id" db:"participant_id"`
	CompanyName   string                `json:"company_name" db:"company_name"`
	TotalScore    float64               `json:"total_score" db:"total_score"`
	RiskLevel     fraud.RiskLevel       `json:"risk_level" db:"risk_level"`
	RiskScore     float64               `json:"risk_score" db:"risk_score"`
	RiskPenalty   float64               `json:"risk_penalty" db:"risk_penalty"`
	IsQualified   bool                  `json:"is_qualified" db:"is_qualified"`
	Rank          int                   `json:"rank" db:"rank"`
	IsWinner      bool                  `json:"is_winner" db:"is_winner"`
	RedFlags      []fraud.DetectionType `json:"red_flags" db:"red_flags"`
}

// NewRun stamps a fresh run id and creation time
func NewRun(tenderID int64, fingerprint string, report fraud.Report, evaluation analysis.Evaluation) *Run {
	return &Run{
		ID:          uuid.New().String(),
		TenderID:    tenderID,
		Fingerprint: fingerprint,
		Report:      report,
		Evaluation:  evaluation,
		CreatedAt:   time.Now().UTC(),
	}
}
