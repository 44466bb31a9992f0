// Package httpapi implements the thin HTTP surface of spec §6: a
// request->validate->enqueue layer over internal/queue for writes, and a
// request->query->respond layer over internal/store for reads. It carries
// no business logic of its own — every handler delegates to the
// already-built domain packages (store, queue, papers, review/badge).
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/scitorrent/arandu-repro/internal/logging"
)

var log = logging.Get("httpapi")

// writeJSON marshals v as the response body, setting Content-Type and the
// given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("encoding response: %v", err)
	}
}

// apiError is the uniform error body returned by every handler on failure.
type apiError struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, apiError{Error: fmt.Sprintf(format, args...)})
}
