package narrative

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scitorrent/arandu-repro/internal/review/checklist"
	"github.com/scitorrent/arandu-repro/internal/review/quality"
	"github.com/scitorrent/arandu-repro/internal/review/shap"
)

func sampleAttrs() []shap.Attribution {
	return []shap.Attribution{
		{Feature: "has_ablation", Value: 1, Phi: 10},
		{Feature: "critical_missing", Value: 2, Phi: -10},
	}
}

func TestFallbackIncludesScoreAndTier(t *testing.T) {
	n := Fallback(quality.Score{Value: 72, Tier: quality.TierB}, sampleAttrs(), nil)
	require.Contains(t, n.ExecutiveJustification[0], "72")
	require.Contains(t, n.ExecutiveJustification[0], "B")
}

func TestFallbackMentionsTopPositiveAndNegative(t *testing.T) {
	n := Fallback(quality.Score{Value: 50, Tier: quality.TierC}, sampleAttrs(), nil)
	joined := ""
	for _, b := range n.ExecutiveJustification {
		joined += b + " "
	}
	require.Contains(t, joined, "has ablation")
	require.Contains(t, joined, "critical missing")
}

func TestFallbackListsMissingChecklistItems(t *testing.T) {
	items := []checklist.Item{
		{Name: "data_available", Status: checklist.StatusMissing},
		{Name: "license", Status: checklist.StatusOK},
	}
	n := Fallback(quality.Score{Value: 60, Tier: quality.TierC}, nil, items)
	found := false
	for _, b := range n.ExecutiveJustification {
		if strings.Contains(b, "data_available") {
			found = true
		}
	}
	require.True(t, found)
}

func TestFallbackAddsRecommendationForLowTiers(t *testing.T) {
	nC := Fallback(quality.Score{Value: 60, Tier: quality.TierC}, nil, nil)
	nA := Fallback(quality.Score{Value: 90, Tier: quality.TierA}, nil, nil)

	require.Contains(t, nC.ExecutiveJustification[len(nC.ExecutiveJustification)-1], "Recommendation")
	for _, b := range nA.ExecutiveJustification {
		require.NotContains(t, b, "Recommendation")
	}
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, quality.Score, []shap.Attribution, []checklist.Item) (*Narrative, error) {
	return nil, errors.New("llm unavailable")
}

func TestGenerateWithFallbackRecoversFromGeneratorError(t *testing.T) {
	n := GenerateWithFallback(context.Background(), failingGenerator{}, quality.Score{Value: 80, Tier: quality.TierB}, nil, nil)
	require.NotNil(t, n)
	require.NotEmpty(t, n.ExecutiveJustification)
}

func TestGenerateWithFallbackUsesNilGenerator(t *testing.T) {
	n := GenerateWithFallback(context.Background(), nil, quality.Score{Value: 80, Tier: quality.TierB}, nil, nil)
	require.NotNil(t, n)
}
