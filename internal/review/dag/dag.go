// Package dag runs the review pipeline's node graph (spec §4.9):
// ingestion -> claim_extraction -> {citation_suggestion, checklist_generation}
// -> quality_score -> badge_generation -> report_generation. A node's error
// is recorded in State.Errors and the graph keeps running rather than
// aborting. A node whose input is empty (e.g. no sections were produced by
// ingestion) still runs and yields an empty result; a review with no usable
// paper text is refused by internal/review/worker before the graph runs.
package dag

import (
	"context"
	"os"
	"path/filepath"
	"regexp"

	"github.com/scitorrent/arandu-repro/internal/logging"
	"github.com/scitorrent/arandu-repro/internal/review/badge"
	"github.com/scitorrent/arandu-repro/internal/review/checklist"
	"github.com/scitorrent/arandu-repro/internal/review/claims"
	"github.com/scitorrent/arandu-repro/internal/review/narrative"
	"github.com/scitorrent/arandu-repro/internal/review/quality"
	"github.com/scitorrent/arandu-repro/internal/review/rag"
	"github.com/scitorrent/arandu-repro/internal/review/report"
	"github.com/scitorrent/arandu-repro/internal/review/segment"
	"github.com/scitorrent/arandu-repro/internal/review/shap"
)

var log = logging.Get("review_dag")

// Input is everything the DAG needs to review one paper/repo pair.
type Input struct {
	ReviewID    string
	PaperTitle  string
	PaperText   string
	ReadmeText  string
	RepoPath    string // empty when no reproduction run is linked to this review
	ModelPath   string // ML quality model artifact path, "" to always use the baseline
	RAG         *rag.Pipeline
	LLM         narrative.Generator // nil uses the deterministic fallback narrator
}

// State accumulates every node's output as the graph runs, and records
// per-node errors without aborting the rest of the graph.
type State struct {
	Sections       map[string]segment.Section
	Claims         []claims.Claim
	Citations      map[string][]rag.Candidate // claim text -> suggested citations
	Checklist      []checklist.Item
	Score          quality.Score
	Attributions   []shap.Attribution
	Narrative      *narrative.Narrative
	Badges         badge.Indicators
	Errors         map[string]string
}

func newState() *State {
	return &State{Errors: make(map[string]string), Citations: make(map[string][]rag.Candidate)}
}

// Run executes every node of the review DAG against in, in the fixed order
// ingestion -> claim_extraction -> {citation_suggestion, checklist_generation}
// -> quality_score -> badge_generation -> report_generation (spec §4.9).
func Run(ctx context.Context, in Input) *State {
	jobLog := log.WithJob(in.ReviewID)
	state := newState()

	sections := runIngestion(jobLog, in.PaperText)
	state.Sections = sections

	sectionText := make(map[string]string, len(sections))
	for name, s := range sections {
		sectionText[name] = s.Text
	}
	state.Claims = claims.Extract(sectionText)

	if in.RAG != nil {
		runCitationSuggestion(ctx, jobLog, in.RAG, state)
	} else {
		state.Errors["citation_suggestion"] = "no retrieval pipeline configured"
	}

	state.Checklist = checklist.Evaluate(in.PaperText, in.ReadmeText, in.RepoPath)

	claimsWithCitation, coverage, avgRelevance := citationSignals(state.Claims, state.Citations)

	feat := detectFeatures(in.PaperText, in.RepoPath, state.Checklist)
	feat.CitationCoverage = coverage
	feat.CitationAvgRelevance = avgRelevance
	state.Score = quality.Predict(in.ModelPath, feat)
	state.Attributions = shap.Explain(feat)

	state.Badges = badge.Compute(len(state.Claims), claimsWithCitation, state.Checklist)

	state.Narrative = narrative.GenerateWithFallback(ctx, in.LLM, state.Score, state.Attributions, state.Checklist)

	return state
}

// Report renders the terminal report_generation node's HTML + JSON outputs
// from a completed State.
func Report(in Input, state *State) report.Input {
	return report.Input{
		ReviewID: in.ReviewID, PaperTitle: in.PaperTitle,
		Claims: state.Claims, Checklist: state.Checklist,
		Score: state.Score, Attrs: state.Attributions,
		Narrative: state.Narrative, Badges: state.Badges,
		Errors: state.Errors,
	}
}

func runIngestion(jobLog *logging.JobLogger, paperText string) map[string]segment.Section {
	span := logging.LogStep("review_dag", "", "ingestion")
	sections := segment.Segment(paperText)
	span.End(nil)

	byName := make(map[string]segment.Section, len(sections))
	for _, s := range sections {
		byName[s.Name] = s
	}
	if len(byName) == 0 {
		jobLog.Warn("ingestion found no recognizable section headings")
	}
	return byName
}

func runCitationSuggestion(ctx context.Context, jobLog *logging.JobLogger, pipeline *rag.Pipeline, state *State) {
	span := logging.LogStep("review_dag", "", "citation_suggestion")
	defer span.End(nil)

	for _, c := range state.Claims {
		state.Citations[c.Text] = pipeline.SuggestCitations(ctx, c.Section, c.Text)
	}
	jobLog.Info("citation_suggestion produced suggestions for %d/%d claims", len(state.Citations), len(state.Claims))
}

// citationSignals aggregates the quality_score node's citation signals (spec
// §4.9): coverage, the fraction of claims with at least one suggested
// citation, and average relevance, the mean of each such claim's best
// candidate score. Also returns the raw count badge.Compute needs.
func citationSignals(claimList []claims.Claim, citations map[string][]rag.Candidate) (withCitation int, coverage, avgRelevance float64) {
	var relevanceSum float64
	for _, c := range claimList {
		cands := citations[c.Text]
		if len(cands) == 0 {
			continue
		}
		withCitation++
		relevanceSum += cands[0].Score
	}
	if len(claimList) > 0 {
		coverage = float64(withCitation) / float64(len(claimList))
	}
	if withCitation > 0 {
		avgRelevance = relevanceSum / float64(withCitation)
	}
	return withCitation, coverage, avgRelevance
}

var (
	ablationRe  = regexp.MustCompile(`(?i)\bablation\b`)
	baselineRe  = regexp.MustCompile(`(?i)\bbaselines?\b`)
	errorBarsRe = regexp.MustCompile(`(?i)(error bars?|standard deviation|confidence interval|\\pm|±)`)
	seedsRe     = regexp.MustCompile(`(?i)\bseed\s*=?\s*\d+\b`)
)

// detectFeatures heuristically fills quality.Features from paper text and
// repository layout. There is no ML feature-extraction model specified for
// this service, so every signal here is a deterministic regex or filesystem
// check, mirroring checklist.Evaluate's own heuristics.
func detectFeatures(paperText, repoPath string, items []checklist.Item) quality.Features {
	feat := quality.Features{
		HasAblation:  ablationRe.MatchString(paperText),
		HasBaselines: baselineRe.MatchString(paperText),
		HasErrorBars: errorBarsRe.MatchString(paperText),
		HasSeeds:     seedsRe.MatchString(paperText),
		ChecklistItems: items,
	}

	for _, item := range items {
		switch item.Name {
		case "environment":
			feat.HasManifest = item.Status == checklist.StatusOK
		case "license":
			feat.HasLicense = item.Status == checklist.StatusOK || item.Status == checklist.StatusPartial
		}
	}

	if repoPath != "" {
		feat.HasLockfile = anyExists(repoPath, "poetry.lock", "Pipfile.lock", "conda-lock.yml")
		feat.HasCI = anyExists(repoPath, ".github/workflows", ".gitlab-ci.yml", ".circleci/config.yml")
		feat.HasTests = anyExists(repoPath, "tests", "test")
		feat.HasReproReadme = anyExists(repoPath, "README.md", "README.rst", "README")
	}

	return feat
}

func anyExists(repoPath string, names ...string) bool {
	for _, name := range names {
		if _, err := os.Stat(filepath.Join(repoPath, name)); err == nil {
			return true
		}
	}
	return false
}
