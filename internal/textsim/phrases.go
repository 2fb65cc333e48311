package textsim

import "strings"

const (
	minPhraseWords = 3
	maxPhraseWords = 5
	minPhraseChars = 10
)

// MatchingPhrases returns up to limit distinct 3–5 word phrases of a that occur
// verbatim (case-insensitive substring) somewhere in b, in discovery order.
func MatchingPhrases(a, b string, limit int) []string {
	words := strings.Fields(strings.ToLower(a))
	haystack := strings.ToLower(b)

	seen := make(map[string]struct{})
	out := make([]string, 0, limit)
	for n := minPhraseWords; n <= maxPhraseWords; n++ {
		for i := 0; i+n <= len(words); i++ {
			if limit > 0 && len(out) >= limit {
				return out
			}
			phrase := strings.Join(words[i:i+n], " ")
			if len(phrase) < minPhraseChars {
				continue
			}
			if _, dup := seen[phrase]; dup {
				continue
			}
			if strings.Contains(haystack, phrase) {
				seen[phrase] = struct{}{}
				out = append(out, phrase)
			}
		}
	}
	return out
}
