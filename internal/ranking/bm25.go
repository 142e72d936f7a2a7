package ranking

import "math"

// BM25 parameters.
const (
	DefaultK1 = 1.2
	DefaultB  = 0.75
)

// BM25 scores documents of a fixed corpus against queries.
type BM25 struct {
	k1     float64
	b      float64
	docs   []map[string]int
	lens   []int
	avgLen float64
	df     map[string]int
}

// NewBM25 indexes the given texts with the default parameters.
func NewBM25(texts []string) *BM25 {
	return NewBM25WithParams(texts, DefaultK1, DefaultB)
}

// NewBM25WithParams indexes the given texts.
func NewBM25WithParams(texts []string, k1, b float64) *BM25 {
	m := &BM25{
		k1:   k1,
		b:    b,
		docs: make([]map[string]int, len(texts)),
		lens: make([]int, len(texts)),
		df:   make(map[string]int),
	}

	total := 0
	for i, text := range texts {
		tokens := Tokenize(text)
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for tok := range tf {
			m.df[tok]++
		}
		m.docs[i] = tf
		m.lens[i] = len(tokens)
		total += len(tokens)
	}
	if len(texts) > 0 {
		m.avgLen = float64(total) / float64(len(texts))
	}
	return m
}

// Scores returns the BM25 score of every document for query, in corpus order.
// Query terms are deduplicated. Documents sharing no term score 0.
func (m *BM25) Scores(query string) []float64 {
	scores := make([]float64, len(m.docs))
	if len(m.docs) == 0 {
		return scores
	}

	seen := make(map[string]bool)
	n := float64(len(m.docs))
	for _, term := range Tokenize(query) {
		if seen[term] {
			continue
		}
		seen[term] = true

		df := m.df[term]
		if df == 0 {
			continue
		}
		idf := math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))

		for i, tf := range m.docs {
			f := float64(tf[term])
			if f == 0 {
				continue
			}
			norm := 1 - m.b
			if m.avgLen > 0 {
				norm += m.b * float64(m.lens[i]) / m.avgLen
			}
			scores[i] += idf * f * (m.k1 + 1) / (f + m.k1*norm)
		}
	}
	return scores
}
