// Package narrative turns a quality.Score, its shap.Attributions, and
// checklist.Items into the human-readable review narrative (spec §4.9's
// report_generation node consumes this; narrative generation itself is
// detailed in §4.14). An injected LLM does the prose when configured; a
// deterministic fallback narrator always produces a complete, schema-valid
// narrative so report generation never blocks on an LLM outage.
package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/scitorrent/arandu-repro/internal/logging"
	"github.com/scitorrent/arandu-repro/internal/review/checklist"
	"github.com/scitorrent/arandu-repro/internal/review/quality"
	"github.com/scitorrent/arandu-repro/internal/review/shap"
)

var log = logging.Get("narrative")

// Narrative is the review's prose output.
type Narrative struct {
	ExecutiveJustification []string `json:"executive_justification"`
	TechnicalDeepdive       string   `json:"technical_deepdive"`
}

// Generator produces prose from review signals, typically backed by an LLM.
// Implementations must return JSON matching the Narrative schema; the
// fallback narrator in this package satisfies the interface without calling
// out to anything.
type Generator interface {
	Generate(ctx context.Context, score quality.Score, attrs []shap.Attribution, items []checklist.Item) (*Narrative, error)
}

// FallbackGenerator deterministically builds a Narrative from structured
// review signals, with no external dependency.
type FallbackGenerator struct{}

// Generate implements Generator.
func (FallbackGenerator) Generate(_ context.Context, score quality.Score, attrs []shap.Attribution, items []checklist.Item) (*Narrative, error) {
	return Fallback(score, attrs, items), nil
}

// GenerateWithFallback tries gen first (when non-nil) and falls back to the
// deterministic narrator on any error, so an LLM outage never blocks a
// review from completing.
func GenerateWithFallback(ctx context.Context, gen Generator, score quality.Score, attrs []shap.Attribution, items []checklist.Item) *Narrative {
	if gen != nil {
		if n, err := gen.Generate(ctx, score, attrs, items); err == nil && n != nil {
			return n
		} else if err != nil {
			log.Warn("narrative generator failed, using fallback: %v", err)
		}
	}
	return Fallback(score, attrs, items)
}

// Fallback builds the canned narrative described by spec §4.14: bullets
// covering score/tier, the strongest positive and negative SHAP
// attributions, missing critical checklist items, and — for C/D tiers — a
// standard improvement-recommendation block.
func Fallback(score quality.Score, attrs []shap.Attribution, items []checklist.Item) *Narrative {
	var bullets []string
	bullets = append(bullets, fmt.Sprintf("Overall reproducibility score: %.0f/100 (tier %s).", score.Value, score.Tier))

	if top := shap.TopPositive(attrs); top != nil {
		bullets = append(bullets, fmt.Sprintf("Strongest positive signal: %s.", humanizeFeature(top.Feature)))
	}
	if worst := shap.TopNegative(attrs); worst != nil {
		bullets = append(bullets, fmt.Sprintf("Strongest negative signal: %s.", humanizeFeature(worst.Feature)))
	}

	critical := map[string]bool{"data_available": true, "environment": true, "commands": true}
	var missingCritical []string
	for _, item := range items {
		if item.Status == checklist.StatusMissing && critical[item.Name] {
			missingCritical = append(missingCritical, item.Name)
		}
	}
	if len(missingCritical) > 0 {
		bullets = append(bullets, fmt.Sprintf("Missing critical checklist items: %s.", strings.Join(missingCritical, ", ")))
	}

	if score.Tier == quality.TierC || score.Tier == quality.TierD {
		bullets = append(bullets, "Recommendation: add a fixed random seed, a locked dependency manifest, and a short README section with the exact commands to reproduce the headline results.")
	}

	return &Narrative{
		ExecutiveJustification: bullets,
		TechnicalDeepdive:      technicalDeepdive(score, attrs, items),
	}
}

func technicalDeepdive(score quality.Score, attrs []shap.Attribution, items []checklist.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Score %.1f was produced by the %s model (version %s).\n\n", score.Value, score.ModelType, score.Version)
	b.WriteString("Feature attributions:\n")
	for _, a := range attrs {
		fmt.Fprintf(&b, "- %s: value=%.2f, phi=%+.2f\n", a.Feature, a.Value, a.Phi)
	}
	b.WriteString("\nChecklist:\n")
	for _, item := range items {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", item.Name, item.Status, item.Evidence)
	}
	return b.String()
}

func humanizeFeature(feature string) string {
	return strings.ReplaceAll(feature, "_", " ")
}
