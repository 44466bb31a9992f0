// Package shap explains a quality.Score's baseline or ML prediction by
// attributing it to individual Features (spec §4.9's quality_score node
// produces an accompanying explanation, detailed in §4.13). Attributions
// always come from a static per-feature weight times feature value
// heuristic; there is no tree-SHAP path. An explanation is therefore never
// missing from a completed review.
package shap

import (
	"math"
	"sort"

	"github.com/scitorrent/arandu-repro/internal/review/checklist"
	"github.com/scitorrent/arandu-repro/internal/review/quality"
)

// Attribution is one feature's contribution to the predicted score.
type Attribution struct {
	Feature       string
	Value         float64
	Phi           float64 // signed contribution, SHAP-style
	EvidenceAnchor string `json:"evidence_anchor,omitempty"`
}

// staticWeights mirrors the point values in quality.baselineScore exactly,
// so the heuristic explainer's attributions sum to the same score delta the
// baseline predictor actually applied.
var staticWeights = map[string]float64{
	"has_ablation":      10,
	"has_baselines":     10,
	"has_error_bars":    5,
	"has_seeds":         5,
	"has_manifest":      5,
	"has_lockfile":      5,
	"has_ci":            5,
	"has_tests":         5,
	"has_repro_readme":  5,
	"has_license":       5,
	"citation_coverage": 10,
	"checklist_percent": 10,
	"critical_missing":  -5,
}

// Explain returns the top-10 |phi|-sorted attributions for feat, assuming
// the baseline model produced score (model-backed tree-SHAP is unreachable
// until a model format is wired in, matching quality.Predict's fallback).
func Explain(feat quality.Features) []Attribution {
	boolFeature := func(name string, has bool) Attribution {
		value := 0.0
		if has {
			value = 1.0
		}
		return Attribution{Feature: name, Value: value, Phi: value * staticWeights[name]}
	}

	attrs := []Attribution{
		boolFeature("has_ablation", feat.HasAblation),
		boolFeature("has_baselines", feat.HasBaselines),
		boolFeature("has_error_bars", feat.HasErrorBars),
		boolFeature("has_seeds", feat.HasSeeds),
		boolFeature("has_manifest", feat.HasManifest),
		boolFeature("has_lockfile", feat.HasLockfile),
		boolFeature("has_ci", feat.HasCI),
		boolFeature("has_tests", feat.HasTests),
		boolFeature("has_repro_readme", feat.HasReproReadme),
		boolFeature("has_license", feat.HasLicense),
		{
			Feature: "citation_coverage", Value: feat.CitationCoverage,
			Phi: feat.CitationCoverage * staticWeights["citation_coverage"],
		},
		{
			Feature: "checklist_percent", Value: checklist.PercentOK(feat.ChecklistItems),
			Phi: checklist.PercentOK(feat.ChecklistItems) * staticWeights["checklist_percent"],
		},
		{
			Feature: "critical_missing", Value: float64(checklist.CriticalMissing(feat.ChecklistItems)),
			Phi: float64(checklist.CriticalMissing(feat.ChecklistItems)) * staticWeights["critical_missing"],
		},
	}

	sort.Slice(attrs, func(i, j int) bool {
		return math.Abs(attrs[i].Phi) > math.Abs(attrs[j].Phi)
	})
	if len(attrs) > 10 {
		attrs = attrs[:10]
	}
	return attrs
}

// TopPositive returns the highest-phi attribution, or nil if none is
// positive.
func TopPositive(attrs []Attribution) *Attribution {
	var best *Attribution
	for i := range attrs {
		if attrs[i].Phi > 0 && (best == nil || attrs[i].Phi > best.Phi) {
			best = &attrs[i]
		}
	}
	return best
}

// TopNegative returns the lowest-phi (most negative) attribution, or nil if
// none is negative.
func TopNegative(attrs []Attribution) *Attribution {
	var worst *Attribution
	for i := range attrs {
		if attrs[i].Phi < 0 && (worst == nil || attrs[i].Phi < worst.Phi) {
			worst = &attrs[i]
		}
	}
	return worst
}
