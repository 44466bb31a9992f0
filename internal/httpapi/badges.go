package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/scitorrent/arandu-repro/internal/review/badge"
)

// getBadge handles GET /badges/{review_id}/{badge_type}.svg, rendering one
// of the three badge indicators (spec §4.9's badge_generation node) as an
// SVG, cached publicly for an hour since a completed review's badges never
// change retroactively.
func (a *API) getBadge(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	reviewID, badgeType := vars["review_id"], vars["badge_type"]

	rev, err := a.db.GetReview(reviewID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading review: %v", err)
		return
	}
	if rev == nil || !rev.Badges.Valid {
		writeError(w, http.StatusNotFound, "badges not yet available for review %s", reviewID)
		return
	}

	var indicators badge.Indicators
	if err := json.Unmarshal([]byte(rev.Badges.String), &indicators); err != nil {
		writeError(w, http.StatusInternalServerError, "decoding stored badges: %v", err)
		return
	}

	var label string
	var status badge.Status
	switch badgeType {
	case "claim-mapped":
		label, status = "claim mapped", indicators.ClaimMapped
	case "method-check":
		label, status = "method check", indicators.MethodCheck
	case "citations-augmented":
		label, status = "citations augmented", indicators.CitationsAugmented
	default:
		writeError(w, http.StatusNotFound, "unknown badge type %q", badgeType)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write([]byte(badge.RenderSVG(label, status)))
}
