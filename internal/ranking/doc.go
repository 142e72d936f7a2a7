// Package ranking implements the scoring used by hybrid retrieval.
//
// Every vector index adapter delegates to this package so the ranking
// rules are identical whatever the storage:
//
//   - Lexical relevance is Okapi BM25 over the candidate texts.
//   - Vector relevance is cosine similarity to the query vector.
//   - Both are min-max normalised across the candidates and blended as
//     alpha*vector + (1-alpha)*lexical.
//   - Ties break on raw vector score, then on insertion order.
package ranking
