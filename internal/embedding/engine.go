// Package embedding generates dense vector representations of claim and
// document text for the review pipeline's hybrid retrieval stage (spec
// §4.11). Adapted from the teacher's multi-backend embedding engine
// (internal/embedding/engine.go), trimmed to the single local backend this
// service is configured for (internal/config's EmbeddingConfig carries only
// endpoint/model, not a cloud API key).
package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/scitorrent/arandu-repro/internal/logging"
)

var log = logging.Get("embedding")

// Engine generates vector embeddings for text.
type Engine interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
}

// HealthChecker is implemented by engines that can verify backend
// availability before a batch operation is attempted.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewEngine builds the configured embedding engine. Currently always an
// Ollama-compatible HTTP backend; kept as a factory function (rather than a
// bare constructor call) so a second backend can be added the way the
// teacher supported both Ollama and GenAI without disturbing call sites.
func NewEngine(endpoint, model string) (Engine, error) {
	span := logging.LogStep("embedding", "", "new_engine")
	engine, err := NewOllamaEngine(endpoint, model)
	span.End(err)
	if err != nil {
		return nil, fmt.Errorf("creating embedding engine: %w", err)
	}
	log.Info("embedding engine ready: %s (dim=%d)", engine.Name(), engine.Dimensions())
	return engine, nil
}

// CosineSimilarity computes cosine similarity between two equal-length
// vectors. Returns 0 for a zero-magnitude vector rather than NaN.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimension mismatch: %d != %d", len(a), len(b))
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB)), nil
}

// SimilarityResult is one entry of a FindTopK ranking.
type SimilarityResult struct {
	Index      int
	Similarity float64
}

// FindTopK returns the k corpus vectors most similar to query, sorted by
// descending cosine similarity. Vectors of mismatched dimension are skipped.
func FindTopK(query []float32, corpus [][]float32, k int) []SimilarityResult {
	if k <= 0 {
		k = 10
	}
	results := make([]SimilarityResult, 0, len(corpus))
	for i, vec := range corpus {
		sim, err := CosineSimilarity(query, vec)
		if err != nil {
			continue
		}
		results = append(results, SimilarityResult{Index: i, Similarity: sim})
	}
	for i := 0; i < len(results) && i < k; i++ {
		for j := i + 1; j < len(results); j++ {
			if results[j].Similarity > results[i].Similarity {
				results[i], results[j] = results[j], results[i]
			}
		}
	}
	if len(results) > k {
		results = results[:k]
	}
	return results
}
