// Package fraud implements the collusion and anomaly detectors that run over
// one tender's participants, and folds their output into per-participant risk.
package fraud

import (
	"encoding/json"
	"fmt"
)

// DetectionType names the detector that produced a Detection
type DetectionType string

const (
	TypeMetadataSimilarity DetectionType = "metadata_similarity"
	TypePriceAnomaly       DetectionType = "price_anomaly"
	TypeContentSimilarity  DetectionType = "content_similarity"
	TypeIPSimilarity       DetectionType = "ip_similarity"
	TypeTimePattern        DetectionType = "time_pattern"
)

// Severity is the discrete seriousness of one Detection
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Subject is either one participant (unary) or an unordered pair (binary).
// The zero value names nobody.
type Subject struct {
	ids []int64
}

// Unary names a single participant
func Unary(id int64) Subject {
	return Subject{ids: []int64{id}}
}

// Binary names a pair; the lower id is stored first. Binary(a, a) collapses to Unary(a).
func Binary(a, b int64) Subject {
	if a == b {
		return Unary(a)
	}
	if b < a {
		a, b = b, a
	}
	return Subject{ids: []int64{a, b}}
}

// IsBinary reports whether the subject is a pair
func (s Subject) IsBinary() bool { return len(s.ids) == 2 }

// Participants returns a copy of the participant ids in the subject
func (s Subject) Participants() []int64 {
	return append([]int64(nil), s.ids...)
}

// Includes reports whether id is part of the subject
func (s Subject) Includes(id int64) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

type subjectJSON struct {
	ParticipantID        *int64  `json:"participant_id,omitempty"`
	InvolvedParticipants []int64 `json:"involved_participants,omitempty"`
}

func (s Subject) MarshalJSON() ([]byte, error) {
	switch len(s.ids) {
	case 1:
		id := s.ids[0]
		return json.Marshal(subjectJSON{ParticipantID: &id})
	case 2:
		return json.Marshal(subjectJSON{InvolvedParticipants: s.ids})
	default:
		return []byte("{}"), nil
	}
}

func (s *Subject) UnmarshalJSON(data []byte) error {
	var raw subjectJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.ParticipantID != nil && raw.InvolvedParticipants == nil:
		*s = Unary(*raw.ParticipantID)
	case raw.ParticipantID == nil && len(raw.InvolvedParticipants) == 2:
		*s = Binary(raw.InvolvedParticipants[0], raw.InvolvedParticipants[1])
	case raw.ParticipantID == nil && raw.InvolvedParticipants == nil:
		*s = Subject{}
	default:
		return fmt.Errorf("subject must name one participant or exactly two, got %s", string(data))
	}
	return nil
}

// Detection is one finding emitted by a detector
type Detection struct {
	Type        DetectionType  `json:"detection_type"`
	Severity    Severity       `json:"severity"`
	RiskScore   float64        `json:"risk_score"`
	Description string         `json:"description"`
	Subject     Subject        `json:"subject"`
	Evidence    map[string]any `json:"evidence"`
}
