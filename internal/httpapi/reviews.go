package httpapi

import (
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/scitorrent/arandu-repro/internal/papers"
	"github.com/scitorrent/arandu-repro/internal/queue"
	"github.com/scitorrent/arandu-repro/internal/store"
)

type reviewDescriptor struct {
	ID     string             `json:"id"`
	Status store.ReviewStatus `json:"status"`
	Error  string             `json:"error,omitempty"`
}

// createReview handles POST /reviews: accepts a multipart form carrying at
// least one of url, doi, pdf_file, and an optional repo_url, then enqueues a
// review pipeline run (spec §6, §4.15).
func (a *API) createReview(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(a.cfg.MaxPDFSizeMB << 20); err != nil {
		writeError(w, http.StatusBadRequest, "parsing multipart form: %v", err)
		return
	}

	url := r.FormValue("url")
	doi := r.FormValue("doi")
	repoURL := r.FormValue("repo_url")

	rev := &store.Review{ID: uuid.NewString()}
	if url != "" {
		rev.URL.String, rev.URL.Valid = url, true
	}
	if doi != "" {
		rev.DOI.String, rev.DOI.Valid = doi, true
	}
	if repoURL != "" {
		rev.RepoURL.String, rev.RepoURL.Valid = repoURL, true
	}

	file, _, err := r.FormFile("pdf_file")
	if err == nil {
		defer file.Close()
		pdfStore := papers.NewStore(a.db, a.cfg.Paths.PapersBase, a.cfg.MaxPDFSizeMB<<20)
		v, uerr := pdfStore.Upload(rev.ID, file, nil)
		if uerr != nil {
			writeError(w, http.StatusBadRequest, "uploading pdf: %v", uerr)
			return
		}
		rev.PDFFilePath.String, rev.PDFFilePath.Valid = v.PDFPath, true
	}

	if !rev.URL.Valid && !rev.DOI.Valid && !rev.PDFFilePath.Valid {
		writeError(w, http.StatusBadRequest, "at least one of url, doi, or pdf_file is required")
		return
	}

	if err := a.db.CreateReview(rev); err != nil {
		writeError(w, http.StatusInternalServerError, "creating review: %v", err)
		return
	}
	if _, err := a.queue.Enqueue(queue.Reviews, rev.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "enqueueing review: %v", err)
		return
	}

	writeJSON(w, http.StatusAccepted, toReviewDescriptor(rev))
}

// getReview handles GET /reviews/{id}.
func (a *API) getReview(w http.ResponseWriter, r *http.Request) {
	rev, ok := a.loadReview(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toReviewDescriptor(rev))
}

// getReviewStatus handles GET /reviews/{id}/status.
func (a *API) getReviewStatus(w http.ResponseWriter, r *http.Request) {
	rev, ok := a.loadReview(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": rev.ID, "status": string(rev.Status)})
}

// getReviewScore handles GET /reviews/{id}/score.
func (a *API) getReviewScore(w http.ResponseWriter, r *http.Request) {
	rev, ok := a.loadReview(w, r)
	if !ok {
		return
	}
	if !rev.QualityScore.Valid {
		writeError(w, http.StatusNotFound, "review %s has no score yet", rev.ID)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(rev.QualityScore.String))
}

// getReviewArtifact handles GET /reviews/{id}/artifacts/{report.html|review.json}.
func (a *API) getReviewArtifact(w http.ResponseWriter, r *http.Request) {
	rev, ok := a.loadReview(w, r)
	if !ok {
		return
	}
	name := mux.Vars(r)["name"]

	var path string
	switch name {
	case "report.html":
		if !rev.HTMLReportPath.Valid {
			writeError(w, http.StatusNotFound, "report.html not yet available for review %s", rev.ID)
			return
		}
		path = rev.HTMLReportPath.String
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	case "review.json":
		if !rev.JSONSummaryPath.Valid {
			writeError(w, http.StatusNotFound, "review.json not yet available for review %s", rev.ID)
			return
		}
		path = rev.JSONSummaryPath.String
		w.Header().Set("Content-Type", "application/json")
	default:
		writeError(w, http.StatusNotFound, "unknown review artifact %q", name)
		return
	}

	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "review artifact not found on disk")
		return
	}
	http.ServeFile(w, r, path)
}

func (a *API) loadReview(w http.ResponseWriter, r *http.Request) (*store.Review, bool) {
	id := mux.Vars(r)["id"]
	rev, err := a.db.GetReview(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading review: %v", err)
		return nil, false
	}
	if rev == nil {
		writeError(w, http.StatusNotFound, "review %s not found", id)
		return nil, false
	}
	return rev, true
}

func toReviewDescriptor(rev *store.Review) reviewDescriptor {
	desc := reviewDescriptor{ID: rev.ID, Status: rev.Status}
	if rev.ErrorMessage.Valid {
		desc.Error = rev.ErrorMessage.String
	}
	return desc
}
