package fraud

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ZanzyTHEbar/tender-integrity/internal/types"
)

var baseTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func priced(id int64, price string) types.Participant {
	d := decimal.RequireFromString(price)
	return types.Participant{ID: id, CompanyName: "company", ProposedPrice: &d}
}

func at(offset time.Duration) *time.Time {
	t := baseTime.Add(offset)
	return &t
}

func findByType(dets []Detection, t DetectionType) []Detection {
	var out []Detection
	for _, d := range dets {
		if d.Type == t {
			out = append(out, d)
		}
	}
	return out
}
