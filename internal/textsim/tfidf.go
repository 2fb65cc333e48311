package textsim

import (
	"errors"
	"math"
	"sort"
	"strings"
)

// ErrEmptyVocabulary is returned when no document yields a single term.
var ErrEmptyVocabulary = errors.New("empty vocabulary: documents contain only stop words or no tokens")

// Vectorizer is a bag-of-n-grams TF-IDF model with smoothed idf and L2-normalized rows.
type Vectorizer struct {
	MaxFeatures int
	MinN        int
	MaxN        int
	StopWords   []string
}

// NewVectorizer returns the unigram+bigram model capped at maxFeatures terms.
func NewVectorizer(maxFeatures int) *Vectorizer {
	return &Vectorizer{
		MaxFeatures: maxFeatures,
		MinN:        1,
		MaxN:        2,
		StopWords:   DefaultStopWords,
	}
}

// Terms returns the n-grams of one document after stop-word removal.
func (v *Vectorizer) Terms(doc string) []string {
	stops := stopSet(v.StopWords)
	tokens := Tokenize(doc)
	kept := tokens[:0]
	for _, t := range tokens {
		if _, ok := stops[t]; ok {
			continue
		}
		kept = append(kept, t)
	}

	minN, maxN := v.MinN, v.MaxN
	if minN < 1 {
		minN = 1
	}
	if maxN < minN {
		maxN = minN
	}
	var terms []string
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(kept); i++ {
			terms = append(terms, strings.Join(kept[i:i+n], " "))
		}
	}
	return terms
}

// FitTransform builds the vocabulary from docs and returns one dense vector per doc.
func (v *Vectorizer) FitTransform(docs []string) ([][]float64, error) {
	counts := make([]map[string]int, len(docs))
	corpusTF := make(map[string]int)
	docFreq := make(map[string]int)

	for i, doc := range docs {
		c := make(map[string]int)
		for _, term := range v.Terms(doc) {
			c[term]++
		}
		for term, n := range c {
			corpusTF[term] += n
			docFreq[term]++
		}
		counts[i] = c
	}
	if len(corpusTF) == 0 {
		return nil, ErrEmptyVocabulary
	}

	vocab := make([]string, 0, len(corpusTF))
	for term := range corpusTF {
		vocab = append(vocab, term)
	}
	// most frequent terms win the cap; ties resolve alphabetically
	sort.Slice(vocab, func(i, j int) bool {
		if corpusTF[vocab[i]] != corpusTF[vocab[j]] {
			return corpusTF[vocab[i]] > corpusTF[vocab[j]]
		}
		return vocab[i] < vocab[j]
	})
	if v.MaxFeatures > 0 && len(vocab) > v.MaxFeatures {
		vocab = vocab[:v.MaxFeatures]
	}
	sort.Strings(vocab)

	n := float64(len(docs))
	idf := make([]float64, len(vocab))
	for j, term := range vocab {
		idf[j] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	vectors := make([][]float64, len(docs))
	for i := range docs {
		vec := make([]float64, len(vocab))
		for j, term := range vocab {
			if tf := counts[i][term]; tf > 0 {
				vec[j] = float64(tf) * idf[j]
			}
		}
		normalize(vec)
		vectors[i] = vec
	}
	return vectors, nil
}

func normalize(vec []float64) {
	sum := 0.0
	for _, x := range vec {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	l := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= l
	}
}

// Cosine returns the cosine similarity of two equal-length vectors.
func Cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
