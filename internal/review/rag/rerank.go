package rag

import "context"

// Reranker refines a fused candidate shortlist with a (typically more
// expensive, cross-encoder-style) relevance model.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []Candidate) ([]Candidate, error)
}

// IdentityReranker preserves input order, used when no cross-encoder model
// is configured so the pipeline still produces a result (spec §4.11 requires
// rerank to degrade gracefully rather than abort the suggestion stage).
type IdentityReranker struct{}

// Rerank returns candidates unchanged.
func (IdentityReranker) Rerank(_ context.Context, _ string, candidates []Candidate) ([]Candidate, error) {
	return candidates, nil
}
