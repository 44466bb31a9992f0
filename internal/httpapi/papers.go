package httpapi

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/scitorrent/arandu-repro/internal/papers"
	"github.com/scitorrent/arandu-repro/internal/store"
)

type paperDescriptor struct {
	AID        string `json:"aid"`
	Title      string `json:"title"`
	Visibility string `json:"visibility"`
	Version    int    `json:"version,omitempty"`
}

// createPaper handles POST /api/v1/papers: a multipart upload establishing
// version 1 of a new hostable paper (spec §4.15a).
func (a *API) createPaper(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(a.cfg.MaxPDFSizeMB << 20); err != nil {
		writeError(w, http.StatusBadRequest, "parsing multipart form: %v", err)
		return
	}
	title := r.FormValue("title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	file, _, err := r.FormFile("pdf_file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "pdf_file is required: %v", err)
		return
	}
	defer file.Close()

	aid, err := papers.NewAID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "generating paper id: %v", err)
		return
	}
	p := &store.Paper{ID: uuid.NewString(), AID: aid, Title: title, Visibility: store.VisibilityPrivate, CreatedBy: "api"}
	if err := a.db.CreatePaper(p); err != nil {
		writeError(w, http.StatusInternalServerError, "creating paper: %v", err)
		return
	}

	pdfStore := papers.NewStore(a.db, a.cfg.Paths.PapersBase, a.cfg.MaxPDFSizeMB<<20)
	v, err := pdfStore.Upload(aid, file, map[string]any{"title": title})
	if err != nil {
		writeError(w, http.StatusBadRequest, "uploading pdf: %v", err)
		return
	}

	if err := a.createExternalIDs(p.ID, r); err != nil {
		writeError(w, http.StatusBadRequest, "recording external id: %v", err)
		return
	}

	writeJSON(w, http.StatusCreated, paperDescriptor{AID: aid, Title: title, Visibility: string(p.Visibility), Version: v.Version})
}

// createExternalIDs records the optional doi/arxiv_id/pmid form fields as
// PaperExternalId rows (spec §3); at most one of each kind may be set per
// paper, enforced by the storage-layer UNIQUE (paper_id, kind) constraint.
func (a *API) createExternalIDs(paperID string, r *http.Request) error {
	kinds := map[string]store.ExternalIDKind{
		"doi":      store.ExternalIDDOI,
		"arxiv_id": store.ExternalIDArxiv,
		"pmid":     store.ExternalIDPMID,
	}
	for field, kind := range kinds {
		value := r.FormValue(field)
		if value == "" {
			continue
		}
		err := a.db.CreateExternalID(&store.ExternalID{
			ID: uuid.NewString(), PaperID: paperID, Kind: kind, Value: value,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// createPaperVersion handles POST /api/v1/papers/{aid}/versions: allocates
// the next integer version for an existing paper (spec §4.15b).
func (a *API) createPaperVersion(w http.ResponseWriter, r *http.Request) {
	aid := mux.Vars(r)["aid"]
	if err := r.ParseMultipartForm(a.cfg.MaxPDFSizeMB << 20); err != nil {
		writeError(w, http.StatusBadRequest, "parsing multipart form: %v", err)
		return
	}
	file, _, err := r.FormFile("pdf_file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "pdf_file is required: %v", err)
		return
	}
	defer file.Close()

	pdfStore := papers.NewStore(a.db, a.cfg.Paths.PapersBase, a.cfg.MaxPDFSizeMB<<20)
	v, err := pdfStore.Upload(aid, file, nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "uploading pdf: %v", err)
		return
	}
	writeJSON(w, http.StatusCreated, paperDescriptor{AID: aid, Version: v.Version})
}

// getPaper handles GET /api/v1/papers/{aid}.
func (a *API) getPaper(w http.ResponseWriter, r *http.Request) {
	aid := mux.Vars(r)["aid"]
	p, err := a.db.GetPaperByAID(aid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading paper: %v", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "paper %s not found", aid)
		return
	}
	writeJSON(w, http.StatusOK, paperDescriptor{AID: p.AID, Title: p.Title, Visibility: string(p.Visibility)})
}

// viewPaper handles GET|HEAD /api/v1/papers/{aid}/viewer[?v=N], a
// Range-capable PDF stream of the requested (or latest) version (spec
// §4.15c).
func (a *API) viewPaper(w http.ResponseWriter, r *http.Request) {
	aid := mux.Vars(r)["aid"]
	version := 0
	if v := r.URL.Query().Get("v"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid version %q", v)
			return
		}
		version = parsed
	}

	pv, err := a.db.GetPaperVersion(aid, version)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading paper version: %v", err)
		return
	}
	if pv == nil {
		writeError(w, http.StatusNotFound, "paper %s has no such version", aid)
		return
	}

	pdfStore := papers.NewStore(a.db, a.cfg.Paths.PapersBase, a.cfg.MaxPDFSizeMB<<20)
	pdfStore.ServePDF(w, r, pv.PDFPath)
}

// getPaperClaims handles GET /api/v1/papers/{aid}/claims?version=&section=&limit=&offset=.
func (a *API) getPaperClaims(w http.ResponseWriter, r *http.Request) {
	aid := mux.Vars(r)["aid"]
	p, err := a.db.GetPaperByAID(aid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading paper: %v", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "paper %s not found", aid)
		return
	}

	claims, err := a.db.ListClaimsByPaper(p.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading claims: %v", err)
		return
	}

	q := r.URL.Query()
	section := q.Get("section")
	var versionID string
	if v := q.Get("version"); v != "" {
		version, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid version %q", v)
			return
		}
		pv, err := a.db.GetPaperVersion(aid, version)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "loading paper version: %v", err)
			return
		}
		if pv == nil {
			writeError(w, http.StatusNotFound, "paper %s has no such version", aid)
			return
		}
		versionID = pv.ID
	}

	filtered := make([]*store.Claim, 0, len(claims))
	for _, c := range claims {
		if section != "" && c.Section.String != section {
			continue
		}
		if versionID != "" && c.PaperVersionID != versionID {
			continue
		}
		filtered = append(filtered, c)
	}

	offset := parseIntOrDefault(q.Get("offset"), 0)
	limit := parseIntOrDefault(q.Get("limit"), len(filtered))
	if offset > len(filtered) {
		offset = len(filtered)
	}
	end := offset + limit
	if end > len(filtered) || limit <= 0 {
		end = len(filtered)
	}

	writeJSON(w, http.StatusOK, filtered[offset:end])
}

func parseIntOrDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
