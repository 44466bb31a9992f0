package rag

import "testing"

func sampleDocs() []Document {
	return []Document{
		{ID: "a", Title: "Deep Residual Learning for Image Recognition", Abstract: "We present a residual learning framework for deep networks."},
		{ID: "b", Title: "Attention Is All You Need", Abstract: "We propose a new network architecture, the Transformer, based on attention mechanisms."},
		{ID: "c", Title: "Adam: A Method for Stochastic Optimization", Abstract: "We introduce Adam, an algorithm for first-order gradient-based optimization."},
	}
}

func TestBM25SearchRanksRelevantDocFirst(t *testing.T) {
	idx := NewBM25Index()
	for _, d := range sampleDocs() {
		idx.AddDocument(d)
	}

	results := idx.Search("attention transformer architecture", 3)
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	if results[0].DocID != "b" {
		t.Fatalf("expected doc b to rank first, got %s", results[0].DocID)
	}
}

func TestBM25SearchEmptyIndexReturnsNil(t *testing.T) {
	idx := NewBM25Index()
	if got := idx.Search("anything", 10); got != nil {
		t.Fatalf("expected nil for empty index, got %v", got)
	}
}

func TestBM25SearchRespectsTopK(t *testing.T) {
	idx := NewBM25Index()
	for _, d := range sampleDocs() {
		idx.AddDocument(d)
	}
	results := idx.Search("method algorithm network", 1)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestBM25LenTracksIndexedDocs(t *testing.T) {
	idx := NewBM25Index()
	if idx.Len() != 0 {
		t.Fatalf("expected 0, got %d", idx.Len())
	}
	for _, d := range sampleDocs() {
		idx.AddDocument(d)
	}
	if idx.Len() != 3 {
		t.Fatalf("expected 3, got %d", idx.Len())
	}
}

func TestBM25ReindexingSameDocIDUpdatesContent(t *testing.T) {
	idx := NewBM25Index()
	idx.AddDocument(Document{ID: "a", Title: "old title about cats"})
	idx.AddDocument(Document{ID: "a", Title: "new title about dogs"})

	if idx.Len() != 1 {
		t.Fatalf("expected reindex to not duplicate doc, got len %d", idx.Len())
	}
	results := idx.Search("dogs", 5)
	if len(results) != 1 || results[0].DocID != "a" {
		t.Fatal("expected updated content to be searchable")
	}
}
