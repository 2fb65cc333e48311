package types

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTrustScore is used when the reputation source has nothing for a company
const DefaultTrustScore = 50.0

// Document is one file submitted with a bid, with metadata already extracted
type Document struct {
	ID                string     `json:"id"`
	DocumentType      string     `json:"document_type"`
	CreatedBySoftware string     `json:"created_by_software"`
	CreationDate      *time.Time `json:"creation_date,omitempty"`
	Author            string     `json:"author"`
	FileSizeBytes     int64      `json:"file_size_bytes"`
	ExtractedText     string     `json:"extracted_text"`
	IsProcessed       bool       `json:"is_processed"`
}

// Participant is a single bid registered against a tender
type Participant struct {
	ID               int64            `json:"id"`
	CompanyName      string           `json:"company_name"`
	TrustScore       *float64         `json:"trust_score,omitempty"`
	ProposedPrice    *decimal.Decimal `json:"proposed_price,omitempty"`
	DeliveryTimeDays int              `json:"delivery_time_days"`
	WarrantyMonths   int              `json:"warranty_months"`
	RegistrationTime *time.Time       `json:"registration_time,omitempty"`
	SubmissionTime   *time.Time       `json:"submission_time,omitempty"`
	IPAddress        string           `json:"ip_address,omitempty"`
	ComplianceScore  *float64         `json:"compliance_score,omitempty"`
	Documents        []Document       `json:"documents"`
}

// Trust returns the reputation score, falling back to DefaultTrustScore
func (p Participant) Trust() float64 {
	if p.TrustScore == nil {
		return DefaultTrustScore
	}
	return *p.TrustScore
}

// HasPrice reports whether the participant submitted a usable price
func (p Participant) HasPrice() bool {
	return p.ProposedPrice != nil && p.ProposedPrice.IsPositive()
}

// Price returns the proposed price as a float for statistics
func (p Participant) Price() float64 {
	if p.ProposedPrice == nil {
		return 0
	}
	f, _ := p.ProposedPrice.Float64()
	return f
}

// DocumentsOfType returns the documents with the given document type
func (p Participant) DocumentsOfType(docType string) []Document {
	var out []Document
	for _, d := range p.Documents {
		if d.DocumentType == docType {
			out = append(out, d)
		}
	}
	return out
}

// Requirement is one evaluation criterion published with the tender
type Requirement struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	RequirementType string  `json:"requirement_type"`
	Weight          float64 `json:"weight"`
	MaxScore        float64 `json:"max_score"`
	IsMandatory     bool    `json:"is_mandatory"`
}

// Requirement defaults applied when the field is absent from the payload
const (
	DefaultRequirementWeight   = 1.0
	DefaultRequirementMaxScore = 10.0
)

func (r *Requirement) UnmarshalJSON(data []byte) error {
	type plain Requirement
	p := plain{Weight: DefaultRequirementWeight, MaxScore: DefaultRequirementMaxScore}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Requirement(p)
	return nil
}

// Tender is the in-memory snapshot of one procurement and all its bids
type Tender struct {
	ID              int64            `json:"id"`
	Title           string           `json:"title"`
	EstimatedBudget *decimal.Decimal `json:"estimated_budget,omitempty"`
	Currency        string           `json:"currency"`
	Requirements    []Requirement    `json:"requirements"`
	Participants    []Participant    `json:"participants"`
}

// Budget returns the estimated budget and whether one is set
func (t Tender) Budget() (float64, bool) {
	if t.EstimatedBudget == nil || !t.EstimatedBudget.IsPositive() {
		return 0, false
	}
	f, _ := t.EstimatedBudget.Float64()
	return f, true
}

// RequirementsOfType returns the requirements with the given type
func (t Tender) RequirementsOfType(reqType string) []Requirement {
	var out []Requirement
	for _, r := range t.Requirements {
		if r.RequirementType == reqType {
			out = append(out, r)
		}
	}
	return out
}

// EvaluateRequest represents the request structure for the evaluate endpoint
type EvaluateRequest struct {
	Tender Tender `json:"tender" binding:"required"`
}

// JobRequest represents the request structure for enqueueing a tender job
type JobRequest struct {
	Tender Tender `json:"tender" binding:"required"`
}
