package compliance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/tender-integrity/internal/types"
)

func ptr[T any](v T) *T { return &v }

func fullBid() types.Participant {
	price := decimal.NewFromInt(900)
	return types.Participant{
		ID:            1,
		ProposedPrice: &price,
		TrustScore:    ptr(70.0),
		Documents: []types.Document{
			{DocumentType: "proposal"},
			{DocumentType: "financial"},
			{DocumentType: "technical"},
		},
	}
}

func tenderWithBudget(budget int64) types.Tender {
	b := decimal.NewFromInt(budget)
	return types.Tender{
		ID:              1,
		EstimatedBudget: &b,
		Requirements: []types.Requirement{
			{Title: "5 years in construction", RequirementType: "experience", IsMandatory: true},
		},
	}
}

func TestRuleCheckerPrecomputedWins(t *testing.T) {
	p := fullBid()
	p.ComplianceScore = ptr(120.0)
	res := NewRuleChecker().Check(tenderWithBudget(1000), p)
	assert.Equal(t, 100.0, res.Score)
	assert.Equal(t, "precomputed", res.Source)
	assert.Empty(t, res.Checks)
}

func TestRuleChecker(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.Participant)
		want   float64
		status Status
		failed []string
	}{
		{"complete bid", func(*types.Participant) {}, 100, StatusPassed, nil},
		{"low trust", func(p *types.Participant) { p.TrustScore = ptr(10.0) }, 75, StatusWarning, []string{"qualification"}},
		{"no price", func(p *types.Participant) { p.ProposedPrice = nil }, 75, StatusWarning, []string{"price_offer"}},
		{"over budget", func(p *types.Participant) { v := decimal.NewFromInt(5000); p.ProposedPrice = &v }, 75, StatusWarning, []string{"price_offer"}},
		{"no technical", func(p *types.Participant) { p.Documents = p.Documents[:2] }, 50, StatusFailed, []string{"required_documents", "technical_document"}},
		{"nothing", func(p *types.Participant) {
			p.Documents = nil
			p.ProposedPrice = nil
			p.TrustScore = ptr(0.0)
		}, 0, StatusFailed, []string{"required_documents", "qualification", "price_offer", "technical_document"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fullBid()
			tt.mutate(&p)
			res := NewRuleChecker().Check(tenderWithBudget(1000), p)

			assert.Equal(t, tt.want, res.Score)
			assert.Equal(t, tt.status, res.Status)
			require.Len(t, res.Checks, 4)

			var failed []string
			for _, c := range res.Checks {
				if !c.Passed {
					failed = append(failed, c.Rule)
					assert.NotEmpty(t, c.Description)
				}
			}
			assert.Equal(t, tt.failed, failed)
		})
	}
}

func TestQualificationIgnoredWithoutMandatoryRequirement(t *testing.T) {
	p := fullBid()
	p.TrustScore = ptr(5.0)
	res := NewRuleChecker().Check(types.Tender{}, p)
	assert.Equal(t, 100.0, res.Score)
}
