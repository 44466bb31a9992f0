package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/scitorrent/arandu-repro/internal/store"
)

var artifactContentType = map[string]string{
	"md":    "text/markdown; charset=utf-8",
	"ipynb": "application/x-ipynb+json",
	"svg":   "image/svg+xml",
}

// getJobArtifact handles GET /jobs/{id}/artifacts/{type}, serving the
// content backing one of the artifact download URLs returned by getJob.
func (a *API) getJobArtifact(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, artifactType := vars["id"], vars["type"]

	artifacts, err := a.db.ListArtifacts(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading artifacts: %v", err)
		return
	}
	var found *store.Artifact
	for _, art := range artifacts {
		if string(art.Type) == artifactType {
			found = art
			break
		}
	}
	if found == nil {
		writeError(w, http.StatusNotFound, "artifact %s not found for job %s", artifactType, id)
		return
	}

	if ct, ok := artifactContentType[found.Format]; ok {
		w.Header().Set("Content-Type", ct)
	}
	http.ServeFile(w, r, found.ContentPath)
}
