package obsmetrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware wraps an http.Handler, recording request count and duration
// labeled by the matched mux route template (not the raw path, which would
// explode cardinality on path parameters like job/review IDs).
func (a *Aggregator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := routeTemplate(r)
		a.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		a.httpTotal.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
	})
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return r.URL.Path
}
