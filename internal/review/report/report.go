// Package report renders the review DAG's terminal report_generation node
// (spec §4.9): an HTML report plus its canonical JSON twin, grounded on the
// table-rendering idiom used by internal/repro/artifacts for reproduction
// reports.
package report

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/scitorrent/arandu-repro/internal/review/badge"
	"github.com/scitorrent/arandu-repro/internal/review/checklist"
	"github.com/scitorrent/arandu-repro/internal/review/claims"
	"github.com/scitorrent/arandu-repro/internal/review/narrative"
	"github.com/scitorrent/arandu-repro/internal/review/quality"
	"github.com/scitorrent/arandu-repro/internal/review/shap"
)

// Input bundles every upstream DAG node's output needed to render a report.
type Input struct {
	ReviewID   string
	PaperTitle string
	Claims     []claims.Claim
	Checklist  []checklist.Item
	Score      quality.Score
	Attrs      []shap.Attribution
	Narrative  *narrative.Narrative
	Badges     badge.Indicators
	Errors     map[string]string // node name -> error message, for partial failures
}

// Document is the canonical JSON twin of the rendered HTML report.
type Document struct {
	ReviewID   string                 `json:"review_id"`
	PaperTitle string                 `json:"paper_title"`
	Score      quality.Score          `json:"score"`
	Tier       quality.Tier           `json:"tier"`
	Claims     []claims.Claim         `json:"claims"`
	Checklist  []checklist.Item       `json:"checklist"`
	Attrs      []shap.Attribution     `json:"attributions"`
	Narrative  *narrative.Narrative   `json:"narrative"`
	Badges     badge.Indicators       `json:"badges"`
	Errors     map[string]string      `json:"errors,omitempty"`
}

// JSON renders the canonical JSON twin.
func JSON(in Input) ([]byte, error) {
	doc := Document{
		ReviewID: in.ReviewID, PaperTitle: in.PaperTitle,
		Score: in.Score, Tier: in.Score.Tier,
		Claims: in.Claims, Checklist: in.Checklist,
		Attrs: in.Attrs, Narrative: in.Narrative,
		Badges: in.Badges, Errors: in.Errors,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling review report: %w", err)
	}
	return data, nil
}

// HTML renders the human-facing report.
func HTML(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Review %s</title></head><body>\n", html.EscapeString(in.ReviewID))
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(in.PaperTitle))
	fmt.Fprintf(&b, "<h2>Quality score: %.0f/100 (tier %s)</h2>\n", in.Score.Value, in.Score.Tier)

	b.WriteString("<h3>Badges</h3><ul>\n")
	fmt.Fprintf(&b, "<li>claim_mapped: %s</li>\n", in.Badges.ClaimMapped)
	fmt.Fprintf(&b, "<li>method_check: %s</li>\n", in.Badges.MethodCheck)
	fmt.Fprintf(&b, "<li>citations_augmented: %s</li>\n", in.Badges.CitationsAugmented)
	b.WriteString("</ul>\n")

	if in.Narrative != nil {
		b.WriteString("<h3>Summary</h3><ul>\n")
		for _, bullet := range in.Narrative.ExecutiveJustification {
			fmt.Fprintf(&b, "<li>%s</li>\n", html.EscapeString(bullet))
		}
		b.WriteString("</ul>\n")
		fmt.Fprintf(&b, "<h3>Technical deep dive</h3><pre>%s</pre>\n", html.EscapeString(in.Narrative.TechnicalDeepdive))
	}

	b.WriteString("<h3>Checklist</h3><table border=\"1\"><tr><th>Item</th><th>Status</th><th>Evidence</th><th>Source</th></tr>\n")
	for _, item := range in.Checklist {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			html.EscapeString(item.Name), item.Status, html.EscapeString(item.Evidence), item.Source)
	}
	b.WriteString("</table>\n")

	fmt.Fprintf(&b, "<h3>Extracted claims (%d)</h3><ol>\n", len(in.Claims))
	for _, c := range in.Claims {
		fmt.Fprintf(&b, "<li>[%s, confidence %.2f] %s</li>\n", html.EscapeString(c.Section), c.Confidence, html.EscapeString(c.Text))
	}
	b.WriteString("</ol>\n")

	if len(in.Errors) > 0 {
		b.WriteString("<h3>Partial failures</h3><ul>\n")
		for node, msg := range in.Errors {
			fmt.Fprintf(&b, "<li>%s: %s</li>\n", html.EscapeString(node), html.EscapeString(msg))
		}
		b.WriteString("</ul>\n")
	}

	b.WriteString("</body></html>\n")
	return b.String()
}
