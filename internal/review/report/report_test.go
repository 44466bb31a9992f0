package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scitorrent/arandu-repro/internal/review/badge"
	"github.com/scitorrent/arandu-repro/internal/review/checklist"
	"github.com/scitorrent/arandu-repro/internal/review/claims"
	"github.com/scitorrent/arandu-repro/internal/review/narrative"
	"github.com/scitorrent/arandu-repro/internal/review/quality"
)

func sampleInput() Input {
	return Input{
		ReviewID:   "rev-1",
		PaperTitle: "A Study of <Things>",
		Claims: []claims.Claim{
			{Text: "We show gains.", Section: "results", Confidence: 0.8},
		},
		Checklist: []checklist.Item{
			{Name: "data_available", Status: checklist.StatusOK, Evidence: "present", Source: checklist.SourceRepo},
		},
		Score:     quality.Score{Value: 72, Tier: quality.TierB, ModelType: quality.ModelBaseline, Version: "baseline-v1"},
		Narrative: &narrative.Narrative{ExecutiveJustification: []string{"Overall reproducibility score: 72/100 (tier B)."}},
		Badges:    badge.Indicators{ClaimMapped: badge.StatusPartial, MethodCheck: badge.StatusPass, CitationsAugmented: badge.StatusFail},
	}
}

func TestJSONRoundTrips(t *testing.T) {
	data, err := JSON(sampleInput())
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Equal(t, "rev-1", doc.ReviewID)
	require.Equal(t, quality.TierB, doc.Tier)
	require.Len(t, doc.Claims, 1)
}

func TestHTMLEscapesPaperTitle(t *testing.T) {
	out := HTML(sampleInput())
	require.Contains(t, out, "&lt;Things&gt;")
	require.NotContains(t, out, "<Things>")
}

func TestHTMLIncludesBadgesAndScore(t *testing.T) {
	out := HTML(sampleInput())
	require.Contains(t, out, "72/100")
	require.Contains(t, out, "claim_mapped: partial")
}

func TestHTMLIncludesPartialFailures(t *testing.T) {
	in := sampleInput()
	in.Errors = map[string]string{"citation_suggestion": "embedding backend unreachable"}
	out := HTML(in)
	require.Contains(t, out, "citation_suggestion")
	require.Contains(t, out, "embedding backend unreachable")
}
