package rag

import "math"

// FuseScores combines sparse and dense candidate lists by z-score
// normalizing each side independently, then taking a weighted sum
// (spec §4.11): score = alpha*norm_bm25 + (1-alpha)*norm_dense. A document
// present on only one side contributes 0 for the missing side rather than
// being dropped.
func FuseScores(sparse, dense []Candidate, alpha float64) []Candidate {
	sparseZ := zScoreByDoc(sparse)
	denseZ := zScoreByDoc(dense)

	docs := make(map[string]Document)
	seen := make(map[string]bool)
	var order []string
	for _, c := range sparse {
		if !seen[c.DocID] {
			seen[c.DocID] = true
			order = append(order, c.DocID)
		}
		docs[c.DocID] = c.Doc
	}
	for _, c := range dense {
		if !seen[c.DocID] {
			seen[c.DocID] = true
			order = append(order, c.DocID)
		}
		docs[c.DocID] = c.Doc
	}

	fused := make([]Candidate, 0, len(order))
	for _, docID := range order {
		score := alpha*sparseZ[docID] + (1-alpha)*denseZ[docID]
		fused = append(fused, Candidate{DocID: docID, Score: score, Doc: docs[docID]})
	}
	sortByScoreDesc(fused)
	return fused
}

// zScoreByDoc z-score normalizes a candidate list's scores; documents not in
// the list implicitly score 0 from FuseScores's caller.
func zScoreByDoc(candidates []Candidate) map[string]float64 {
	z := make(map[string]float64, len(candidates))
	if len(candidates) == 0 {
		return z
	}
	if len(candidates) == 1 {
		z[candidates[0].DocID] = 0
		return z
	}

	var mean float64
	for _, c := range candidates {
		mean += c.Score
	}
	mean /= float64(len(candidates))

	var variance float64
	for _, c := range candidates {
		d := c.Score - mean
		variance += d * d
	}
	variance /= float64(len(candidates))
	stddev := math.Sqrt(variance)

	for _, c := range candidates {
		if stddev == 0 {
			z[c.DocID] = 0
			continue
		}
		z[c.DocID] = (c.Score - mean) / stddev
	}
	return z
}

func sortByScoreDesc(candidates []Candidate) {
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].Score > candidates[j-1].Score; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}
}

// Dedupe removes repeated DocIDs, keeping the first (highest-scored)
// occurrence — candidates is assumed already sorted descending.
func Dedupe(candidates []Candidate) []Candidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.DocID] {
			continue
		}
		seen[c.DocID] = true
		out = append(out, c)
	}
	return out
}
