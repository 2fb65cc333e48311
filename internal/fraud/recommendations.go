package fraud

var recommendationText = []struct {
	kind DetectionType
	text string
}{
	{TypeMetadataSimilarity, "Review participants whose document metadata is similar for common authorship"},
	{TypePriceAnomaly, "Verify the financial capacity of participants with anomalous prices"},
	{TypeContentSimilarity, "Check participants with similar proposal texts for collusion"},
	{TypeIPSimilarity, "Investigate the relationship between participants bidding from related IP addresses"},
	{TypeTimePattern, "Examine participants who registered or submitted at nearly the same time"},
}

// Recommendations returns one follow-up action per detection type present
func Recommendations(detections []Detection) []string {
	present := make(map[DetectionType]bool)
	for _, d := range detections {
		present[d.Type] = true
	}
	out := []string{}
	for _, r := range recommendationText {
		if present[r.kind] {
			out = append(out, r.text)
		}
	}
	return out
}
