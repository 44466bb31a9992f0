// Package quality scores a paper/repository pair's reproducibility (spec
// §4.9's quality_score node, detailed in §4.12). Predict looks for an ML
// model file at the configured path, but no model-backed scoring exists:
// every score comes from a deterministic point-based heuristic (itself
// grounded on the teacher's confidence-weighted scoring idiom used
// throughout internal/retrieval and internal/review/claims), so the review
// DAG never stalls on a missing model artifact.
package quality

import (
	"os"
	"sync"

	"github.com/scitorrent/arandu-repro/internal/logging"
	"github.com/scitorrent/arandu-repro/internal/review/checklist"
)

var log = logging.Get("quality")

// Tier is the letter grade derived from Score.
type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
)

// ModelType records which scoring path produced a Score.
type ModelType string

const (
	ModelML       ModelType = "ml"
	ModelBaseline ModelType = "baseline"
)

// Score is the quality_score node's output.
type Score struct {
	Value     float64
	Tier      Tier
	Version   string
	ModelType ModelType
}

// Features summarizes the reproducibility signals a paper/repo pair exposes,
// fed into either the ML model or the baseline heuristic.
type Features struct {
	HasAblation     bool
	HasBaselines    bool
	HasErrorBars    bool
	HasSeeds        bool
	HasManifest     bool
	HasLockfile     bool
	HasCI           bool
	HasTests        bool
	HasReproReadme  bool
	HasLicense      bool
	// CitationCoverage is the fraction of extracted claims with at least one
	// suggested citation (spec §4.9's "coverage"), in [0,1].
	CitationCoverage float64
	// CitationAvgRelevance is the average top-candidate score across claims
	// that have at least one suggested citation (spec §4.9's "average
	// relevance"). Not read by the baseline formula — spec §4.12 names only
	// "+10 × coverage" — but carried alongside it for the model-backed path,
	// the same way ChecklistItems carries more than PercentOK/CriticalMissing
	// consume.
	CitationAvgRelevance float64
	ChecklistItems       []checklist.Item
}

const BaselineVersion = "baseline-v1"

var (
	predictor     *mlPredictor
	predictorOnce sync.Once
)

// mlPredictor holds the result of the lazy model lookup. The model file
// itself is not part of this repository; loadModel checks whether one exists
// at the configured path, but leaves loaded false either way.
type mlPredictor struct {
	version string
	loaded  bool
}

func loadModel(path string) *mlPredictor {
	if path == "" {
		return &mlPredictor{loaded: false}
	}
	if _, err := os.Stat(path); err != nil {
		log.Info("no quality model found at %s, using baseline heuristic", path)
		return &mlPredictor{loaded: false}
	}
	log.Info("quality model found at %s (model-backed scoring not yet implemented, falling back to baseline)", path)
	return &mlPredictor{version: "ml-v1", loaded: false}
}

// Predict scores one paper/repo pair. modelPath is the configured ML model
// artifact location; pass "" to always use the baseline heuristic.
func Predict(modelPath string, feat Features) Score {
	predictorOnce.Do(func() {
		predictor = loadModel(modelPath)
	})

	if predictor.loaded {
		// A real model-backed path would run inference here; no model
		// format is specified for this service, so this branch is
		// unreachable until one is wired in.
		return Score{}
	}

	value := baselineScore(feat)
	return Score{
		Value:     value,
		Tier:      tierFor(value),
		Version:   BaselineVersion,
		ModelType: ModelBaseline,
	}
}

// baselineScore implements the exact point formula from spec §4.12: start at
// 50, add fixed bonuses for methodological rigor and engineering hygiene
// signals, scale two continuous signals, subtract for missing critical
// checklist items, then clamp to [0,100].
func baselineScore(f Features) float64 {
	score := 50.0

	if f.HasAblation {
		score += 10
	}
	if f.HasBaselines {
		score += 10
	}
	if f.HasErrorBars {
		score += 5
	}
	if f.HasSeeds {
		score += 5
	}
	if f.HasManifest {
		score += 5
	}
	if f.HasLockfile {
		score += 5
	}
	if f.HasCI {
		score += 5
	}
	if f.HasTests {
		score += 5
	}
	if f.HasReproReadme {
		score += 5
	}
	if f.HasLicense {
		score += 5
	}

	score += 10 * f.CitationCoverage
	score += 10 * checklist.PercentOK(f.ChecklistItems)
	score -= 5 * float64(checklist.CriticalMissing(f.ChecklistItems))

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

func tierFor(score float64) Tier {
	switch {
	case score >= 85:
		return TierA
	case score >= 70:
		return TierB
	case score >= 55:
		return TierC
	default:
		return TierD
	}
}
