package httpapi

import "net/http"

// getMetricsSummary handles GET /metrics: the plain-JSON aggregated summary
// of spec §6 (counts, averages, per-step average latencies), distinct from
// the Prometheus-format /metrics/prom exposed alongside it.
func (a *API) getMetricsSummary(w http.ResponseWriter, r *http.Request) {
	if a.metrics == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, a.metrics.Summary())
}
