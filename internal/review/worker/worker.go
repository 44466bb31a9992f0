// Package worker runs the review pipeline end to end: it dequeues a Review,
// threads it through the DAG of internal/review/dag, persists every result
// slot once the DAG has run, and renders the final report (spec
// §4.9). Mirrors internal/repro/worker's queue-consumer shape, generalized
// from the reproduction job lifecycle to the review lifecycle.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/scitorrent/arandu-repro/internal/config"
	"github.com/scitorrent/arandu-repro/internal/logging"
	"github.com/scitorrent/arandu-repro/internal/papers"
	"github.com/scitorrent/arandu-repro/internal/queue"
	"github.com/scitorrent/arandu-repro/internal/review/dag"
	"github.com/scitorrent/arandu-repro/internal/review/rag"
	"github.com/scitorrent/arandu-repro/internal/review/report"
	"github.com/scitorrent/arandu-repro/internal/store"
)

var log = logging.Get("review_worker")

// Worker dequeues review jobs and runs them to completion.
type Worker struct {
	db        *store.DB
	q         *queue.Queue
	cfg       *config.Config
	rag       *rag.Pipeline // nil disables citation_suggestion
	modelPath string
}

// New builds a review Worker. ragPipeline may be nil when no retrieval
// corpus is configured yet; the DAG degrades citation_suggestion
// gracefully in that case.
func New(db *store.DB, q *queue.Queue, cfg *config.Config, ragPipeline *rag.Pipeline, modelPath string) *Worker {
	return &Worker{db: db, q: q, cfg: cfg, rag: ragPipeline, modelPath: modelPath}
}

// PollOnce leases one item from the reviews queue and processes it. Returns
// queue.ErrEmpty when there is nothing to do.
func (w *Worker) PollOnce(ctx context.Context) error {
	item, err := w.q.Dequeue(queue.Reviews, w.cfg.Timeouts.Review)
	if err != nil {
		return err
	}
	w.process(ctx, item.RefID)
	return w.q.Complete(item.ID)
}

func (w *Worker) process(ctx context.Context, reviewID string) {
	reviewLog := log.WithJob(reviewID)

	rev, err := w.db.GetReview(reviewID)
	if err != nil || rev == nil {
		reviewLog.Error("loading review: %v", err)
		return
	}

	if err := w.db.TransitionReview(reviewID, store.ReviewProcessing, ""); err != nil {
		reviewLog.Error("transitioning to processing: %v", err)
		return
	}

	paperText := rev.PaperText.String
	paperTitle := ""
	if paperText == "" && rev.URL.Valid {
		title, text, err := papers.FetchPaperText(ctx, rev.URL.String)
		if err != nil {
			reviewLog.Warn("fetching paper text from %s: %v", rev.URL.String, err)
		} else {
			paperTitle, paperText = title, text
			if err := w.db.UpdateReviewSlot(reviewID, "paper_text", paperText); err != nil {
				reviewLog.Warn("persisting fetched paper text: %v", err)
			}
		}
	}

	if paperText == "" {
		reason := refusalReason(rev)
		reviewLog.Warn("%s", reason)
		if err := w.db.TransitionReview(reviewID, store.ReviewFailed, reason); err != nil {
			reviewLog.Error("transitioning to failed: %v", err)
		}
		return
	}

	readmeText := ""
	repoPath := ""
	if rev.RepoURL.Valid {
		repoPath = filepath.Join(w.cfg.Paths.TempReposBase, "review-"+reviewID)
		if data, err := os.ReadFile(filepath.Join(repoPath, "README.md")); err == nil {
			readmeText = string(data)
		}
	}

	in := dag.Input{
		ReviewID: reviewID, PaperTitle: paperTitle, PaperText: paperText, ReadmeText: readmeText,
		RepoPath: repoPath, ModelPath: w.modelPath, RAG: w.rag,
	}
	state := dag.Run(ctx, in)

	if err := w.persistSlots(reviewID, state); err != nil {
		reviewLog.Error("persisting review slots: %v", err)
		_ = w.db.TransitionReview(reviewID, store.ReviewFailed, err.Error())
		return
	}

	if err := w.renderAndPersistReport(reviewID, in, state); err != nil {
		reviewLog.Error("rendering report: %v", err)
		_ = w.db.TransitionReview(reviewID, store.ReviewFailed, err.Error())
		return
	}

	if err := w.db.TransitionReview(reviewID, store.ReviewCompleted, ""); err != nil {
		reviewLog.Error("transitioning to completed: %v", err)
	}
}

// refusalReason explains why a review has no usable paper_text left to run
// the DAG against, after the URL-fetch attempt above already failed or was
// never applicable. A DOI alone is never resolved to paper text (spec
// §4.9's ingestion node: "refuse DOI-only"); there is no DOI-resolution
// step in this service, so such a review can never produce a score.
func refusalReason(rev *store.Review) string {
	switch {
	case rev.DOI.Valid && !rev.URL.Valid && !rev.PDFFilePath.Valid:
		return fmt.Sprintf("review has only a DOI (%s): DOI-only reviews are refused, no url or pdf_file was provided to extract paper text from", rev.DOI.String)
	case rev.URL.Valid:
		return fmt.Sprintf("failed to fetch or extract usable paper text from %s", rev.URL.String)
	default:
		return "no url, doi, or pdf_file yielded usable paper text"
	}
}

func (w *Worker) persistSlots(reviewID string, state *dag.State) error {
	slots := map[string]any{
		"claims":        state.Claims,
		"citations":     state.Citations,
		"checklist":     state.Checklist,
		"quality_score": state.Score,
		"badges":        state.Badges,
	}
	if len(state.Errors) > 0 {
		slots["errors"] = state.Errors
	}
	for column, value := range slots {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshaling review slot %s: %w", column, err)
		}
		if err := w.db.UpdateReviewSlot(reviewID, column, string(data)); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) renderAndPersistReport(reviewID string, in dag.Input, state *dag.State) error {
	reportIn := dag.Report(in, state)

	html := report.HTML(reportIn)
	jsonDoc, err := report.JSON(reportIn)
	if err != nil {
		return err
	}

	reviewDir := filepath.Join(w.cfg.Paths.ReviewsBase, reviewID)
	if err := os.MkdirAll(reviewDir, 0o755); err != nil {
		return fmt.Errorf("creating review directory %s: %w", reviewDir, err)
	}

	htmlPath := filepath.Join(reviewDir, "report.html")
	jsonPath := filepath.Join(reviewDir, "review.json")
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		return fmt.Errorf("writing html report: %w", err)
	}
	if err := os.WriteFile(jsonPath, jsonDoc, 0o644); err != nil {
		return fmt.Errorf("writing json report: %w", err)
	}

	if err := w.db.UpdateReviewSlot(reviewID, "html_report_path", htmlPath); err != nil {
		return err
	}
	return w.db.UpdateReviewSlot(reviewID, "json_summary_path", jsonPath)
}
