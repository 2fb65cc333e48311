package analysis

import (
	"github.com/ZanzyTHEbar/tender-integrity/internal/compliance"
	"github.com/ZanzyTHEbar/tender-integrity/internal/fraud"
	"github.com/ZanzyTHEbar/tender-integrity/internal/stats"
	"github.com/ZanzyTHEbar/tender-integrity/internal/types"
)

var (
	categoryWeights = map[Category]float64{
		CategoryCompliance: 0.25,
		CategoryFinancial:  0.20,
		CategoryTechnical:  0.30,
		CategoryExperience: 0.15,
		CategoryPrice:      0.10,
	}
	riskPenalties = map[fraud.RiskLevel]float64{
		fraud.RiskLow:      0,
		fraud.RiskMedium:   -5,
		fraud.RiskHigh:     -15,
		fraud.RiskCritical: -30,
	}
	qualifyingScore = 60.0

	// defaults for rubric components whose evidence is not collected
	paymentTermsScore  = 20.0
	guaranteeScore     = 20.0
	guaranteeShare     = 0.03
	relevanceScore     = 25.0
	certificationScore = 10.0
	transparencyScore  = 25.0
	noBudgetPrice      = 35.0
	noTechnicalReqs    = 50.0
	zeroWeightTech     = 30.0
	techComplianceCap  = 60.0
	techDocumentScore  = 20.0
)

// Weight returns the fixed weight of a category
func Weight(c Category) float64 { return categoryWeights[c] }

// RiskPenalty returns the score adjustment for a risk level
func RiskPenalty(level fraud.RiskLevel) float64 { return riskPenalties[level] }

// Scorer produces one category sub-score for a participant
type Scorer interface {
	Category() Category
	Score(tender types.Tender, p types.Participant) CategoryScore
}

// DefaultScorers returns the five scorers in reporting order
func DefaultScorers(checker compliance.Checker) []Scorer {
	return []Scorer{
		ComplianceScorer{Checker: checker},
		FinancialScorer{},
		TechnicalScorer{},
		ExperienceScorer{},
		PriceScorer{},
	}
}

// ComplianceScorer delegates to the compliance checker
type ComplianceScorer struct {
	Checker compliance.Checker
}

func (ComplianceScorer) Category() Category { return CategoryCompliance }

func (s ComplianceScorer) Score(tender types.Tender, p types.Participant) CategoryScore {
	res := s.Checker.Check(tender, p)
	return CategoryScore{
		Category: CategoryCompliance,
		Score:    stats.Clip(res.Score, 0, 100),
		Breakdown: map[string]any{
			"source": res.Source,
			"status": res.Status,
			"checks": res.Checks,
		},
	}
}

// FinancialScorer rates competitiveness against budget and financial stability
type FinancialScorer struct{}

func (FinancialScorer) Category() Category { return CategoryFinancial }

func (FinancialScorer) Score(tender types.Tender, p types.Participant) CategoryScore {
	out := CategoryScore{Category: CategoryFinancial, Breakdown: map[string]any{}}
	if !p.HasPrice() {
		out.Breakdown["error"] = "no price offer"
		return out
	}

	budget, hasBudget := tender.Budget()
	if hasBudget {
		ratio := p.Price() / budget
		s := competitivenessTiers.lookup(ratio)
		out.Score += s
		out.Breakdown["price_competitiveness"] = map[string]any{
			"score":            s,
			"price_ratio":      ratio,
			"proposed_price":   p.Price(),
			"estimated_budget": budget,
		}
	}

	out.Score += paymentTermsScore
	out.Breakdown["payment_terms"] = map[string]any{"score": paymentTermsScore, "note": "standard payment terms"}

	if hasBudget {
		out.Score += guaranteeScore
		out.Breakdown["guarantee_amount"] = map[string]any{
			"score":    guaranteeScore,
			"expected": budget * guaranteeShare,
		}
	}

	stability := p.Trust() / 100 * 20
	out.Score += stability
	out.Breakdown["financial_stability"] = map[string]any{"score": stability, "trust_score": p.Trust()}

	out.Score = stats.Clip(out.Score, 0, 100)
	return out
}

// TechnicalScorer rates requirement compliance, technical documents and delivery time
type TechnicalScorer struct{}

func (TechnicalScorer) Category() Category { return CategoryTechnical }

func (TechnicalScorer) Score(tender types.Tender, p types.Participant) CategoryScore {
	out := CategoryScore{Category: CategoryTechnical, Breakdown: map[string]any{}}

	reqs := tender.RequirementsOfType("technical")
	if len(reqs) == 0 {
		out.Score = noTechnicalReqs
		out.Breakdown["note"] = "tender has no technical requirements"
		return out
	}

	// requirement fulfilment is estimated from the trust score until per-requirement evidence exists
	trust := p.Trust()
	var totalWeight, weighted float64
	reqScores := make([]map[string]any, 0, len(reqs))
	for _, req := range reqs {
		s := trust / 100 * req.MaxScore
		if s > req.MaxScore {
			s = req.MaxScore
		}
		totalWeight += req.Weight
		weighted += s * req.Weight
		reqScores = append(reqScores, map[string]any{
			"requirement_id": req.ID,
			"title":          req.Title,
			"score":          s,
			"max_score":      req.MaxScore,
			"weight":         req.Weight,
			"mandatory":      req.IsMandatory,
		})
	}
	fulfilment := zeroWeightTech
	if totalWeight > 0 {
		fulfilment = min(weighted/totalWeight, techComplianceCap)
	}
	out.Score += fulfilment
	out.Breakdown["technical_compliance"] = map[string]any{
		"score":              fulfilment,
		"requirement_scores": reqScores,
		"total_weight":       totalWeight,
	}

	docs := p.DocumentsOfType("technical")
	docScore := 0.0
	if len(docs) > 0 {
		docScore = techDocumentScore
	}
	out.Score += docScore
	out.Breakdown["document_quality"] = map[string]any{"score": docScore, "document_count": len(docs)}

	delivery := 0.0
	if p.DeliveryTimeDays > 0 {
		delivery = deliveryTiers.lookup(float64(p.DeliveryTimeDays))
	}
	out.Score += delivery
	out.Breakdown["delivery_time"] = map[string]any{"score": delivery, "days": p.DeliveryTimeDays}

	out.Score = stats.Clip(out.Score, 0, 100)
	return out
}

// ExperienceScorer rates reputation and warranty
type ExperienceScorer struct{}

func (ExperienceScorer) Category() Category { return CategoryExperience }

func (ExperienceScorer) Score(_ types.Tender, p types.Participant) CategoryScore {
	out := CategoryScore{Category: CategoryExperience, Breakdown: map[string]any{}}

	reputation := p.Trust() / 100 * 40
	out.Score += reputation
	out.Breakdown["reputation"] = map[string]any{"score": reputation, "trust_score": p.Trust()}

	out.Score += relevanceScore
	out.Breakdown["relevant_experience"] = map[string]any{"score": relevanceScore}

	warranty := 0.0
	if p.WarrantyMonths > 0 {
		warranty = warrantyTiers.lookup(float64(p.WarrantyMonths))
	}
	out.Score += warranty
	out.Breakdown["warranty_period"] = map[string]any{"score": warranty, "months": p.WarrantyMonths}

	out.Score += certificationScore
	out.Breakdown["certifications"] = map[string]any{"score": certificationScore}

	out.Score = stats.Clip(out.Score, 0, 100)
	return out
}

// PriceScorer rates how close the price is to the 80-90% of budget sweet spot
type PriceScorer struct{}

func (PriceScorer) Category() Category { return CategoryPrice }

func (PriceScorer) Score(tender types.Tender, p types.Participant) CategoryScore {
	out := CategoryScore{Category: CategoryPrice, Breakdown: map[string]any{}}
	if !p.HasPrice() {
		out.Breakdown["error"] = "no price offer"
		return out
	}

	if budget, ok := tender.Budget(); ok {
		ratio := p.Price() / budget
		s := optimalityTiers.lookup(ratio)
		out.Score += s
		out.Breakdown["price_optimality"] = map[string]any{"score": s, "price_ratio": ratio}
	} else {
		out.Score += noBudgetPrice
		out.Breakdown["price_optimality"] = map[string]any{"score": noBudgetPrice, "note": "no estimated budget"}
	}

	out.Score += transparencyScore
	out.Breakdown["price_transparency"] = map[string]any{"score": transparencyScore}

	out.Score = stats.Clip(out.Score, 0, 100)
	return out
}
