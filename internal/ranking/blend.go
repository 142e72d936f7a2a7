package ranking

import "sort"

// Candidate is one scored record.
type Candidate struct {
	// Position is the record's insertion order in the index.
	Position int

	Lexical  float64
	Vector   float64
	Combined float64
}

// Blend normalises lexical and vector scores across candidates, computes
// the alpha-weighted combined score, orders the candidates and keeps the
// best k. The input slice is reordered.
func Blend(candidates []Candidate, alpha float64, k int) []Candidate {
	if len(candidates) == 0 || k <= 0 {
		return []Candidate{}
	}

	lex := make([]float64, len(candidates))
	vec := make([]float64, len(candidates))
	for i, c := range candidates {
		lex[i] = c.Lexical
		vec[i] = c.Vector
	}
	lexNorm := normalizeLexical(lex)
	vecNorm := normalizeVector(vec)

	for i := range candidates {
		candidates[i].Combined = alpha*vecNorm[i] + (1-alpha)*lexNorm[i]
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Combined != b.Combined {
			return a.Combined > b.Combined
		}
		if a.Vector != b.Vector {
			return a.Vector > b.Vector
		}
		return a.Position < b.Position
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

// normalizeLexical min-max scales scores into [0,1]. A candidate set where
// nothing matched stays all zero; equal positive scores all become 1.
func normalizeLexical(scores []float64) []float64 {
	lo, hi := bounds(scores)
	out := make([]float64, len(scores))
	if hi <= 0 {
		return out
	}
	if hi == lo {
		for i := range out {
			out[i] = 1
		}
		return out
	}
	for i, s := range scores {
		out[i] = (s - lo) / (hi - lo)
	}
	return out
}

// normalizeVector min-max scales scores into [0,1]; equal scores all become 1.
func normalizeVector(scores []float64) []float64 {
	lo, hi := bounds(scores)
	out := make([]float64, len(scores))
	if hi == lo {
		for i := range out {
			out[i] = 1
		}
		return out
	}
	for i, s := range scores {
		out[i] = (s - lo) / (hi - lo)
	}
	return out
}

func bounds(scores []float64) (lo, hi float64) {
	lo, hi = scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	return lo, hi
}
