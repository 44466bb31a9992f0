package rag

import (
	"context"

	"github.com/scitorrent/arandu-repro/internal/logging"
)

var suggestLog = logging.Get("rag_suggest")

// Config tunes the suggestion pipeline (mirrors internal/config's RAGConfig).
type Config struct {
	Alpha       float64 // sparse/dense fusion weight, spec default 0.5
	TopK        int     // final suggestions returned per claim
	CandidateK  int     // per-source shortlist size before fusion, spec default 50
	MinScore    float64
	RerankEnable bool
}

// Pipeline runs the hybrid retrieval suggestion flow for one claim.
type Pipeline struct {
	Sparse   *BM25Index
	Dense    *DenseIndex
	Reranker Reranker
	Cfg      Config
}

// NewPipeline builds a Pipeline, defaulting to an IdentityReranker when
// rerank is disabled or none is supplied.
func NewPipeline(sparse *BM25Index, dense *DenseIndex, reranker Reranker, cfg Config) *Pipeline {
	if reranker == nil || !cfg.RerankEnable {
		reranker = IdentityReranker{}
	}
	if cfg.CandidateK <= 0 {
		cfg.CandidateK = 50
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &Pipeline{Sparse: sparse, Dense: dense, Reranker: reranker, Cfg: cfg}
}

// SuggestCitations builds the query from section label + claim text, takes
// the top CandidateK from each source, fuses by z-score late fusion, reranks
// the fused shortlist, dedupes by doc ID, and returns up to TopK candidates
// scoring at or above MinScore (spec §4.11).
func (p *Pipeline) SuggestCitations(ctx context.Context, section, claimText string) []Candidate {
	query := section + " " + claimText

	sparseHits := p.Sparse.Search(query, p.Cfg.CandidateK)
	var denseHits []Candidate
	if p.Dense != nil {
		denseHits = p.Dense.Search(ctx, query, p.Cfg.CandidateK)
	}

	fused := FuseScores(sparseHits, denseHits, p.Cfg.Alpha)

	reranked, err := p.Reranker.Rerank(ctx, query, fused)
	if err != nil {
		suggestLog.Warn("rerank failed, falling back to fused order: %v", err)
		reranked = fused
	}

	deduped := Dedupe(reranked)

	var out []Candidate
	for _, c := range deduped {
		if c.Score < p.Cfg.MinScore {
			continue
		}
		out = append(out, c)
		if len(out) >= p.Cfg.TopK {
			break
		}
	}
	return out
}
