package textsim

// DefaultStopWords is the fixed Uzbek/English list dropped before n-gram construction.
var DefaultStopWords = []string{
	"va", "ham", "bilan", "uchun",
	"the", "and", "or", "but",
}

func stopSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[NormalizeText(w)] = struct{}{}
	}
	return set
}
