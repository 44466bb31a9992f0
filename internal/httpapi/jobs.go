package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/scitorrent/arandu-repro/internal/queue"
	"github.com/scitorrent/arandu-repro/internal/store"
)

type createJobRequest struct {
	RepoURL    string `json:"repo_url"`
	ArxivID    string `json:"arxiv_id"`
	RunCommand string `json:"run_command"`
}

type jobDescriptor struct {
	ID        string          `json:"id"`
	RepoURL   string          `json:"repo_url"`
	Status    store.JobStatus `json:"status"`
	Artifacts []artifactLink  `json:"artifacts,omitempty"`
	Error     string          `json:"error,omitempty"`
	Detected  json.RawMessage `json:"detected_environment,omitempty"`
}

type artifactLink struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// createJob handles POST /jobs: validates that repo_url is a GitHub URL and
// enqueues a reproduction run (spec §6).
func (a *API) createJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: %v", err)
		return
	}
	if !isGitHubURL(req.RepoURL) {
		writeError(w, http.StatusBadRequest, "repo_url must be a github.com URL")
		return
	}

	job := &store.Job{ID: uuid.NewString(), RepoURL: req.RepoURL}
	if req.ArxivID != "" {
		job.ArxivID.String, job.ArxivID.Valid = req.ArxivID, true
	}
	if req.RunCommand != "" {
		job.RunCommand.String, job.RunCommand.Valid = req.RunCommand, true
	}

	if err := a.db.CreateJob(job); err != nil {
		writeError(w, http.StatusInternalServerError, "creating job: %v", err)
		return
	}
	if _, err := a.queue.Enqueue(queue.Default, job.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "enqueueing job: %v", err)
		return
	}

	writeJSON(w, http.StatusCreated, a.toJobDescriptor(job))
}

// getJob handles GET /jobs/{id}: the full job state, including artifact
// download URLs once completed.
func (a *API) getJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, err := a.db.GetJob(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading job: %v", err)
		return
	}
	if job == nil {
		writeError(w, http.StatusNotFound, "job %s not found", id)
		return
	}
	writeJSON(w, http.StatusOK, a.toJobDescriptor(job))
}

// getJobStatus handles GET /jobs/{id}/status: a lightweight status-only view.
func (a *API) getJobStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, err := a.db.GetJob(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading job: %v", err)
		return
	}
	if job == nil {
		writeError(w, http.StatusNotFound, "job %s not found", id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": job.ID, "status": string(job.Status)})
}

func (a *API) toJobDescriptor(job *store.Job) jobDescriptor {
	desc := jobDescriptor{
		ID: job.ID, RepoURL: job.RepoURL, Status: job.Status,
		Detected: job.DetectedEnvironment,
	}
	if job.ErrorMessage.Valid {
		desc.Error = job.ErrorMessage.String
	}
	if job.Status == store.JobCompleted {
		if artifacts, err := a.db.ListArtifacts(job.ID); err == nil {
			for _, art := range artifacts {
				desc.Artifacts = append(desc.Artifacts, artifactLink{
					Type: string(art.Type),
					URL:  a.baseURL + "/jobs/" + job.ID + "/artifacts/" + string(art.Type),
				})
			}
		}
	}
	return desc
}

// isGitHubURL reports whether raw parses as an http(s) URL whose host is
// (or is a subdomain of) github.com, per spec §4.4's clone-source contract.
func isGitHubURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "github.com" || strings.HasSuffix(host, ".github.com")
}
