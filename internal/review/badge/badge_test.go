package badge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scitorrent/arandu-repro/internal/review/checklist"
)

func TestClaimMappedPassesAtFiveOrMore(t *testing.T) {
	require.Equal(t, StatusPass, claimMappedStatus(5))
	require.Equal(t, StatusPass, claimMappedStatus(12))
}

func TestClaimMappedPartialBelowThreshold(t *testing.T) {
	require.Equal(t, StatusPartial, claimMappedStatus(2))
}

func TestClaimMappedFailsAtZero(t *testing.T) {
	require.Equal(t, StatusFail, claimMappedStatus(0))
}

func TestMethodCheckUsesChecklistPercentage(t *testing.T) {
	allOK := []checklist.Item{
		{Status: checklist.StatusOK}, {Status: checklist.StatusOK}, {Status: checklist.StatusOK},
	}
	require.Equal(t, StatusPass, methodCheckStatus(allOK))

	mixed := []checklist.Item{
		{Status: checklist.StatusOK}, {Status: checklist.StatusMissing},
	}
	require.Equal(t, StatusPartial, methodCheckStatus(mixed))

	allMissing := []checklist.Item{{Status: checklist.StatusMissing}}
	require.Equal(t, StatusFail, methodCheckStatus(allMissing))
}

func TestCitationsAugmentedThresholdAtSeventyPercent(t *testing.T) {
	require.Equal(t, StatusPass, citationsAugmentedStatus(10, 7))
	require.Equal(t, StatusPartial, citationsAugmentedStatus(10, 3))
	require.Equal(t, StatusFail, citationsAugmentedStatus(10, 0))
	require.Equal(t, StatusFail, citationsAugmentedStatus(0, 0))
}

func TestComputeReturnsAllThreeIndicators(t *testing.T) {
	items := []checklist.Item{{Status: checklist.StatusOK}}
	ind := Compute(6, 5, items)
	require.Equal(t, StatusPass, ind.ClaimMapped)
	require.Equal(t, StatusPass, ind.MethodCheck)
	require.Equal(t, StatusPass, ind.CitationsAugmented)
}

func TestRenderSVGContainsLabelAndStatus(t *testing.T) {
	svg := RenderSVG("claim_mapped", StatusPass)
	require.Contains(t, svg, "claim_mapped")
	require.Contains(t, svg, "pass")
	require.Contains(t, svg, "#4c1")
}

func TestRenderSVGUnknownStatusFallsBackToFailColor(t *testing.T) {
	svg := RenderSVG("x", Status("bogus"))
	require.Contains(t, svg, "#e05d44")
}
