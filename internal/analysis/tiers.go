package analysis

// band awards score to values up to upTo (inclusive or exclusive)
type band struct {
	upTo      float64
	inclusive bool
	score     float64
}

// bandTable is an ascending list of bands plus the score for anything above the last one
type bandTable struct {
	bands []band
	above float64
}

func (t bandTable) lookup(x float64) float64 {
	for _, b := range t.bands {
		if x < b.upTo || (b.inclusive && x == b.upTo) {
			return b.score
		}
	}
	return t.above
}

var (
	// price / budget for the financial competitiveness component
	competitivenessTiers = bandTable{
		bands: []band{
			{0.8, true, 40},
			{0.9, true, 35},
			{1.0, true, 30},
			{1.1, true, 20},
		},
		above: 10,
	}

	// price / budget for the price optimality curve; best at 80-90% of budget
	optimalityTiers = bandTable{
		bands: []band{
			{0.7, false, 40},
			{0.8, false, 60},
			{0.9, true, 70},
			{1.0, true, 50},
			{1.1, true, 30},
		},
		above: 10,
	}

	deliveryTiers = bandTable{
		bands: []band{
			{30, true, 20},
			{60, true, 15},
			{90, true, 10},
		},
		above: 5,
	}

	warrantyTiers = bandTable{
		bands: []band{
			{6, false, 5},
			{12, false, 10},
			{24, false, 15},
		},
		above: 20,
	}
)
