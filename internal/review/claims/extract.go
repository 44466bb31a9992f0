// Package claims extracts sentence-level assertions from paper sections
// (spec §4.9's claim_extraction node). Grounded on the teacher's small,
// ordered regex-pattern-with-confidence-weight style, the same shape used
// for claim-marker detection here as for query classification in
// internal/retrieval/sparse.go.
package claims

import (
	"regexp"
	"strings"
)

// Claim is one extracted assertion.
type Claim struct {
	ID         string
	Text       string
	Section    string
	SpanStart  int
	SpanEnd    int
	Confidence float64
}

// targetSections are the only sections claim_extraction scans (spec §4.9).
var targetSections = map[string]bool{
	"introduction": true, "results": true, "discussion": true, "conclusion": true,
}

// markerPatterns is an ordered set of claim-marker regexes, each carrying
// the confidence weight assigned when it matches (spec §4.9, range [0.6,0.8]).
var markerPatterns = []struct {
	re         *regexp.Regexp
	confidence float64
}{
	{regexp.MustCompile(`(?i)\bwe (show|demonstrate|prove|find|observe)\b`), 0.8},
	{regexp.MustCompile(`(?i)\b(outperforms?|surpasses?|state[- ]of[- ]the[- ]art)\b`), 0.75},
	{regexp.MustCompile(`(?i)\b(significantly|substantially) (improves?|reduces?|increases?)\b`), 0.7},
	{regexp.MustCompile(`(?i)\bour (contribution|approach|method)\b`), 0.6},
}

var sentenceSplit = regexp.MustCompile(`(?:[.!?])\s+`)

const minClaimLength = 20

// Extract scans sections for sentences matching a claim marker, rejecting
// short sentences and deduplicating by the first 100 lowercase characters
// (spec §4.9).
func Extract(sections map[string]string) []Claim {
	var claims []Claim
	seen := map[string]bool{}

	for name, text := range sections {
		if !targetSections[name] {
			continue
		}
		for _, span := range sentenceSpans(text) {
			sentence := text[span[0]:span[1]]
			trimmedLead := strings.TrimLeft(sentence, " \t\n\r")
			start := span[0] + (len(sentence) - len(trimmedLead))
			trimmed := strings.TrimSpace(sentence)
			if len(trimmed) < minClaimLength {
				continue
			}

			confidence, matched := matchMarker(trimmed)
			if !matched {
				continue
			}

			key := dedupeKey(trimmed)
			if seen[key] {
				continue
			}
			seen[key] = true

			claims = append(claims, Claim{
				Text: trimmed, Section: name,
				SpanStart: start, SpanEnd: start + len(trimmed),
				Confidence: confidence,
			})
		}
	}
	return claims
}

// sentenceSpans returns the [start,end) byte range of each sentence in text,
// including its trailing terminator, so callers can recover exact offsets
// into the original section text (sentenceSplit.Split discards that).
func sentenceSpans(text string) [][2]int {
	seps := sentenceSplit.FindAllStringIndex(text, -1)
	var spans [][2]int
	start := 0
	for _, sep := range seps {
		spans = append(spans, [2]int{start, sep[0] + 1})
		start = sep[1]
	}
	if start < len(text) {
		spans = append(spans, [2]int{start, len(text)})
	}
	return spans
}

func matchMarker(sentence string) (float64, bool) {
	for _, m := range markerPatterns {
		if m.re.MatchString(sentence) {
			return m.confidence, true
		}
	}
	return 0, false
}

func dedupeKey(sentence string) string {
	lower := strings.ToLower(sentence)
	if len(lower) > 100 {
		lower = lower[:100]
	}
	return lower
}
