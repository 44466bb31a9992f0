// Package segment splits paper text into labeled sections by heading
// pattern (spec §4.10). Grounded on the teacher's regex-driven text
// classification style (internal/retrieval/sparse.go tokenizes and scores
// text with hand-rolled regexes rather than a parsing library) generalized
// here from search-query tokenization to section-heading detection.
package segment

import (
	"regexp"
	"strings"
)

// Section is a labeled span of paper text.
type Section struct {
	Name  string
	Start int
	End   int
	Text  string
}

// headingPatterns is tried in order against every line of the text; a
// leading "N. " or "N " numbering prefix is tolerated.
var headingPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"abstract", regexp.MustCompile(`(?i)^\s*(\d+\.?\s*)?abstract\s*$`)},
	{"introduction", regexp.MustCompile(`(?i)^\s*(\d+\.?\s*)?introduction\s*$`)},
	{"related_work", regexp.MustCompile(`(?i)^\s*(\d+\.?\s*)?related work\s*$`)},
	{"method", regexp.MustCompile(`(?i)^\s*(\d+\.?\s*)?(method|methods|methodology)\s*$`)},
	{"results", regexp.MustCompile(`(?i)^\s*(\d+\.?\s*)?results?\s*$`)},
	{"discussion", regexp.MustCompile(`(?i)^\s*(\d+\.?\s*)?discussion\s*$`)},
	{"conclusion", regexp.MustCompile(`(?i)^\s*(\d+\.?\s*)?conclusions?\s*$`)},
	{"limitations", regexp.MustCompile(`(?i)^\s*(\d+\.?\s*)?limitations\s*$`)},
	{"appendix", regexp.MustCompile(`(?i)^\s*(\d+\.?\s*)?appendix\s*$`)},
}

// Segment scans text line by line; any line matching a heading pattern opens
// a new Section running to the next heading (or end of text).
func Segment(text string) []Section {
	type boundary struct {
		name  string
		start int
	}
	var bounds []boundary

	offset := 0
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		for _, p := range headingPatterns {
			if p.re.MatchString(trimmed) {
				bounds = append(bounds, boundary{name: p.name, start: offset})
				break
			}
		}
		offset += len(line) + 1
	}

	var sections []Section
	for i, b := range bounds {
		end := len(text)
		if i+1 < len(bounds) {
			end = bounds[i+1].start
		}
		sections = append(sections, Section{
			Name:  b.name,
			Start: b.start,
			End:   end,
			Text:  text[min(b.start, len(text)):min(end, len(text))],
		})
	}
	return sections
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
