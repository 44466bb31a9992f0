package rag

import (
	"context"
	"fmt"
	"sync"

	"github.com/scitorrent/arandu-repro/internal/embedding"
	"github.com/scitorrent/arandu-repro/internal/logging"
)

var denseLog = logging.Get("rag_dense")

// DenseIndex holds precomputed document embeddings and ranks by cosine
// similarity, grounded on internal/embedding's FindTopK utility.
type DenseIndex struct {
	engine embedding.Engine

	mu      sync.RWMutex
	docs    map[string]Document
	order   []string
	vectors [][]float32
}

// NewDenseIndex builds an empty dense index backed by engine.
func NewDenseIndex(engine embedding.Engine) *DenseIndex {
	return &DenseIndex{engine: engine, docs: make(map[string]Document)}
}

// AddDocument embeds and indexes one document.
func (idx *DenseIndex) AddDocument(ctx context.Context, doc Document) error {
	vec, err := idx.engine.Embed(ctx, doc.searchableText())
	if err != nil {
		return fmt.Errorf("embedding document %s: %w", doc.ID, err)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.docs[doc.ID]; !exists {
		idx.order = append(idx.order, doc.ID)
		idx.vectors = append(idx.vectors, vec)
	} else {
		for i, id := range idx.order {
			if id == doc.ID {
				idx.vectors[i] = vec
				break
			}
		}
	}
	idx.docs[doc.ID] = doc
	return nil
}

// Search embeds query and returns the topK nearest documents by cosine
// similarity. Falls back to an empty result set (rather than erroring the
// whole suggestion pipeline) when the embedding backend is unreachable, so
// BM25 alone can still serve suggestions.
func (idx *DenseIndex) Search(ctx context.Context, query string, topK int) []Candidate {
	vec, err := idx.engine.Embed(ctx, query)
	if err != nil {
		denseLog.Warn("dense search unavailable, embedding query failed: %v", err)
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if len(idx.vectors) == 0 {
		return nil
	}

	ranked := embedding.FindTopK(vec, idx.vectors, topK)
	results := make([]Candidate, 0, len(ranked))
	for _, r := range ranked {
		docID := idx.order[r.Index]
		results = append(results, Candidate{DocID: docID, Score: r.Similarity, Doc: idx.docs[docID]})
	}
	return results
}

// Len returns the number of indexed documents.
func (idx *DenseIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}
