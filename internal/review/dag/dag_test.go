package dag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scitorrent/arandu-repro/internal/review/rag"
)

const samplePaper = `Abstract
This paper studies reproducibility tooling.

Introduction
We show that automated review pipelines significantly improve reproducibility outcomes across a broad set of papers.

Results
Our contribution is a new hybrid retrieval approach. We find that results significantly improve citation coverage versus prior manual review baselines.

Conclusion
We demonstrate that the approach generalizes across venues with an ablation study and error bars (±0.4) on every headline number, using seed=1234.
`

func TestRunProducesAllStateFields(t *testing.T) {
	state := Run(context.Background(), Input{
		ReviewID: "rev-1", PaperTitle: "Example Paper", PaperText: samplePaper,
	})

	require.NotEmpty(t, state.Sections)
	require.NotEmpty(t, state.Claims)
	require.Len(t, state.Checklist, 7)
	require.NotZero(t, state.Score.Value)
	require.NotEmpty(t, state.Attributions)
	require.NotNil(t, state.Narrative)
	require.Equal(t, "no retrieval pipeline configured", state.Errors["citation_suggestion"])
}

func TestRunWithRAGPopulatesCitations(t *testing.T) {
	sparse := rag.NewBM25Index()
	sparse.AddDocument(rag.Document{ID: "doc-1", Title: "Hybrid Retrieval for Review Pipelines", Abstract: "citation coverage and retrieval baselines"})
	pipeline := rag.NewPipeline(sparse, nil, nil, rag.Config{Alpha: 1.0, TopK: 3, CandidateK: 10, MinScore: -100})

	state := Run(context.Background(), Input{
		ReviewID: "rev-2", PaperTitle: "Example Paper", PaperText: samplePaper, RAG: pipeline,
	})

	require.Empty(t, state.Errors["citation_suggestion"])
	require.NotEmpty(t, state.Citations)
}

func TestRunWithRAGSetsCitationCoverageOnScore(t *testing.T) {
	sparse := rag.NewBM25Index()
	sparse.AddDocument(rag.Document{ID: "doc-1", Title: "Hybrid Retrieval for Review Pipelines", Abstract: "citation coverage and retrieval baselines"})
	pipeline := rag.NewPipeline(sparse, nil, nil, rag.Config{Alpha: 1.0, TopK: 3, CandidateK: 10, MinScore: -100})

	withRAG := Run(context.Background(), Input{
		ReviewID: "rev-5", PaperTitle: "Example Paper", PaperText: samplePaper, RAG: pipeline,
	})
	withoutRAG := Run(context.Background(), Input{
		ReviewID: "rev-6", PaperTitle: "Example Paper", PaperText: samplePaper,
	})

	claimsWithCitation := 0
	for _, cands := range withRAG.Citations {
		if len(cands) > 0 {
			claimsWithCitation++
		}
	}
	require.Positive(t, claimsWithCitation, "expected at least one claim to receive a citation suggestion")
	require.Greater(t, withRAG.Score.Value, withoutRAG.Score.Value,
		"a review with citation coverage should score higher than one with none")
}

func TestRunHandlesEmptyPaperWithoutPanicking(t *testing.T) {
	state := Run(context.Background(), Input{ReviewID: "rev-3", PaperTitle: "Empty"})
	require.Empty(t, state.Claims)
	require.Len(t, state.Checklist, 7)
	require.NotNil(t, state.Narrative)
}

func TestReportBuildsInputFromState(t *testing.T) {
	in := Input{ReviewID: "rev-4", PaperTitle: "Example Paper", PaperText: samplePaper}
	state := Run(context.Background(), in)
	rin := Report(in, state)
	require.Equal(t, "rev-4", rin.ReviewID)
	require.Equal(t, state.Score, rin.Score)
}
