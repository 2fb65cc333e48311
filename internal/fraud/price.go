package fraud

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ZanzyTHEbar/tender-integrity/internal/stats"
	"github.com/ZanzyTHEbar/tender-integrity/internal/types"
)

var (
	thousand = decimal.NewFromInt(1000)
	hundred  = decimal.NewFromInt(100)
)

// PriceDetector flags bids far from the tender mean and bids with suspiciously round prices
type PriceDetector struct {
	th Thresholds
}

func NewPriceDetector(th Thresholds) *PriceDetector {
	return &PriceDetector{th: th}
}

func (d *PriceDetector) Name() DetectionType { return TypePriceAnomaly }

func (d *PriceDetector) Detect(participants []types.Participant) ([]Detection, error) {
	var priced []types.Participant
	var prices []float64
	for _, p := range participants {
		if !p.HasPrice() {
			continue
		}
		priced = append(priced, p)
		prices = append(prices, p.Price())
	}
	if len(priced) < 2 {
		return nil, nil
	}

	mean := stats.Mean(prices)
	std := stats.StdDev(prices)
	if mean <= 0 {
		return nil, nil
	}

	var out []Detection
	for i, p := range priced {
		price := prices[i]
		deviation := math.Abs(price-mean) / mean

		if deviation >= d.th.PriceDeviation {
			anomaly := "too_high"
			direction := "above"
			if price < mean {
				anomaly = "too_low"
				direction = "below"
			}
			severity := SeverityHigh
			if deviation >= d.th.PriceCritical {
				severity = SeverityCritical
			}
			zScore := 0.0
			if std > 0 {
				zScore = (price - mean) / std
			}

			out = append(out, Detection{
				Type:        TypePriceAnomaly,
				Severity:    severity,
				RiskScore:   math.Min(deviation*100, 100),
				Description: fmt.Sprintf("Proposed price is %.1f%% %s the tender average", deviation*100, direction),
				Subject:     Unary(p.ID),
				Evidence: map[string]any{
					"anomaly_type":   anomaly,
					"proposed_price": p.ProposedPrice.String(),
					"mean_price":     mean,
					"std_price":      std,
					"min_price":      stats.Min(prices),
					"max_price":      stats.Max(prices),
					"deviation":      deviation,
					"z_score":        zScore,
					"robust_z":       stats.RobustZ(price, prices),
				},
			})
		}

		if reason, ok := d.unnaturallyRound(*p.ProposedPrice, deviation); ok {
			out = append(out, Detection{
				Type:        TypePriceAnomaly,
				Severity:    SeverityMedium,
				RiskScore:   d.th.RoundPriceRiskScore,
				Description: "Proposed price looks artificially rounded",
				Subject:     Unary(p.ID),
				Evidence: map[string]any{
					"anomaly_type":      "unnaturally_round",
					"unnaturally_round": true,
					"reason":            reason,
					"proposed_price":    p.ProposedPrice.StringFixed(2),
					"mean_price":        mean,
				},
			})
		}
	}
	return out, nil
}

// unnaturallyRound applies the rounding checks in decimal so 5000.00 is exact
func (d *PriceDetector) unnaturallyRound(price decimal.Decimal, deviation float64) (string, bool) {
	fixed := price.StringFixed(2)
	switch {
	case strings.HasSuffix(fixed, ".00"), strings.HasSuffix(fixed, ".50"):
		return "two-decimal form ends in " + fixed[len(fixed)-3:], true
	case price.Mod(thousand).IsZero():
		return "multiple of 1000", true
	case deviation >= d.th.RoundPriceDeviation && price.Mod(hundred).IsZero():
		return "multiple of 100 with large deviation", true
	}
	return "", false
}
