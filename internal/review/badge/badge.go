// Package badge computes the three review badge indicators (spec §4.9's
// badge_generation node) and renders them as shields.io-style SVGs, reusing
// the color-keyed badge idiom established in internal/repro/artifacts.
package badge

import (
	"fmt"

	"github.com/scitorrent/arandu-repro/internal/review/checklist"
)

// Status is a badge's pass/fail/partial state.
type Status string

const (
	StatusPass    Status = "pass"
	StatusPartial Status = "partial"
	StatusFail    Status = "fail"
)

// Indicators holds the three spec-defined badge indicators for one review.
type Indicators struct {
	ClaimMapped        Status
	MethodCheck        Status
	CitationsAugmented Status
}

const minClaimsForMapped = 5
const citationCoverageThreshold = 0.7

// Compute derives all three indicators from the review's claim count,
// citation coverage, and checklist results.
func Compute(claimCount, claimsWithCitation int, items []checklist.Item) Indicators {
	return Indicators{
		ClaimMapped:        claimMappedStatus(claimCount),
		MethodCheck:        methodCheckStatus(items),
		CitationsAugmented: citationsAugmentedStatus(claimCount, claimsWithCitation),
	}
}

func claimMappedStatus(claimCount int) Status {
	if claimCount >= minClaimsForMapped {
		return StatusPass
	}
	if claimCount > 0 {
		return StatusPartial
	}
	return StatusFail
}

func methodCheckStatus(items []checklist.Item) Status {
	if len(items) == 0 {
		return StatusFail
	}
	pct := checklist.PercentOK(items)
	switch {
	case pct >= 0.8:
		return StatusPass
	case pct >= 0.4:
		return StatusPartial
	default:
		return StatusFail
	}
}

func citationsAugmentedStatus(claimCount, claimsWithCitation int) Status {
	if claimCount == 0 {
		return StatusFail
	}
	coverage := float64(claimsWithCitation) / float64(claimCount)
	if coverage >= citationCoverageThreshold {
		return StatusPass
	}
	if coverage > 0 {
		return StatusPartial
	}
	return StatusFail
}

var statusColor = map[Status]string{
	StatusPass:    "#4c1",
	StatusPartial: "#dfb317",
	StatusFail:    "#e05d44",
}

// RenderSVG builds a minimal shields.io-layout SVG badge for one label/status
// pair, suitable for direct embedding or hosting behind a badge endpoint.
func RenderSVG(label string, status Status) string {
	color := statusColor[status]
	if color == "" {
		color = statusColor[StatusFail]
	}
	labelWidth := 6*len(label) + 10
	statusWidth := 6*len(string(status)) + 10
	totalWidth := labelWidth + statusWidth

	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="20">
  <rect width="%d" height="20" fill="#555"/>
  <rect x="%d" width="%d" height="20" fill="%s"/>
  <text x="%d" y="14" fill="#fff" font-family="Verdana" font-size="11" text-anchor="middle">%s</text>
  <text x="%d" y="14" fill="#fff" font-family="Verdana" font-size="11" text-anchor="middle">%s</text>
</svg>`, totalWidth, labelWidth, labelWidth, statusWidth, color,
		labelWidth/2, label, labelWidth+statusWidth/2, status)
}
