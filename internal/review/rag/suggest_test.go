package rag

import (
	"context"
	"testing"
)

// fakeEngine implements embedding.Engine with deterministic, hand-assigned
// vectors so dense search results are predictable without a live backend.
type fakeEngine struct {
	vectors map[string][]float32
}

func (f *fakeEngine) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func (f *fakeEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEngine) Dimensions() int { return 3 }
func (f *fakeEngine) Name() string    { return "fake" }

func TestSuggestCitationsReturnsTopKAboveMinScore(t *testing.T) {
	sparse := NewBM25Index()
	for _, d := range sampleDocs() {
		sparse.AddDocument(d)
	}

	pipeline := NewPipeline(sparse, nil, nil, Config{Alpha: 1.0, TopK: 2, CandidateK: 10, MinScore: -100})
	results := pipeline.SuggestCitations(context.Background(), "results", "attention transformer architecture")
	if len(results) == 0 {
		t.Fatal("expected at least one suggestion")
	}
	if len(results) > 2 {
		t.Fatalf("expected at most TopK=2 results, got %d", len(results))
	}
}

func TestSuggestCitationsMinScoreFiltersAll(t *testing.T) {
	sparse := NewBM25Index()
	for _, d := range sampleDocs() {
		sparse.AddDocument(d)
	}
	pipeline := NewPipeline(sparse, nil, nil, Config{Alpha: 1.0, TopK: 5, CandidateK: 10, MinScore: 999})
	results := pipeline.SuggestCitations(context.Background(), "results", "attention transformer architecture")
	if len(results) != 0 {
		t.Fatalf("expected no results above an unreachable min score, got %d", len(results))
	}
}

func TestSuggestCitationsUsesDenseWhenAvailable(t *testing.T) {
	sparse := NewBM25Index()
	dense := NewDenseIndex(&fakeEngine{vectors: map[string][]float32{}})

	docs := sampleDocs()
	for _, d := range docs {
		sparse.AddDocument(d)
		if err := dense.AddDocument(context.Background(), d); err != nil {
			t.Fatalf("unexpected error embedding doc: %v", err)
		}
	}

	pipeline := NewPipeline(sparse, dense, nil, Config{Alpha: 0.5, TopK: 3, CandidateK: 10, MinScore: -100})
	results := pipeline.SuggestCitations(context.Background(), "introduction", "gradient based optimization")
	if len(results) == 0 {
		t.Fatal("expected suggestions combining sparse and dense sources")
	}
}
