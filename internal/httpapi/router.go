package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/scitorrent/arandu-repro/internal/config"
	"github.com/scitorrent/arandu-repro/internal/obsmetrics"
	"github.com/scitorrent/arandu-repro/internal/queue"
	"github.com/scitorrent/arandu-repro/internal/store"
)

// API holds every dependency the HTTP handlers need: the store for reads,
// the queue for write-side enqueue, and config for path/size limits. It
// carries no state of its own beyond these references.
type API struct {
	db      *store.DB
	queue   *queue.Queue
	cfg     *config.Config
	metrics *obsmetrics.Aggregator
	baseURL string
}

// New builds an API and its dependency set.
func New(db *store.DB, q *queue.Queue, cfg *config.Config, metrics *obsmetrics.Aggregator) *API {
	return &API{db: db, queue: q, cfg: cfg, metrics: metrics, baseURL: cfg.APIBaseURL}
}

// Router assembles the full spec §6 route table on a gorilla/mux router,
// wrapped in request-logging and metrics middleware.
func (a *API) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(a.loggingMiddleware)
	if a.metrics != nil {
		r.Use(a.metrics.Middleware)
	}

	r.HandleFunc("/jobs", a.createJob).Methods(http.MethodPost)
	r.HandleFunc("/jobs/{id}", a.getJob).Methods(http.MethodGet)
	r.HandleFunc("/jobs/{id}/status", a.getJobStatus).Methods(http.MethodGet)
	r.HandleFunc("/jobs/{id}/artifacts/{type}", a.getJobArtifact).Methods(http.MethodGet)

	r.HandleFunc("/reviews", a.createReview).Methods(http.MethodPost)
	r.HandleFunc("/reviews/{id}", a.getReview).Methods(http.MethodGet)
	r.HandleFunc("/reviews/{id}/status", a.getReviewStatus).Methods(http.MethodGet)
	r.HandleFunc("/reviews/{id}/score", a.getReviewScore).Methods(http.MethodGet)
	r.HandleFunc("/reviews/{id}/artifacts/{name}", a.getReviewArtifact).Methods(http.MethodGet)

	r.HandleFunc("/badges/{review_id}/{badge_type}.svg", a.getBadge).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/papers", a.createPaper).Methods(http.MethodPost)
	api.HandleFunc("/papers/{aid}/versions", a.createPaperVersion).Methods(http.MethodPost)
	api.HandleFunc("/papers/{aid}", a.getPaper).Methods(http.MethodGet)
	api.HandleFunc("/papers/{aid}/viewer", a.viewPaper).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/papers/{aid}/claims", a.getPaperClaims).Methods(http.MethodGet)

	r.HandleFunc("/metrics", a.getMetricsSummary).Methods(http.MethodGet)
	if a.metrics != nil {
		r.Handle("/metrics/prom", a.metrics.PrometheusHandler()).Methods(http.MethodGet)
	}

	return r
}

func (a *API) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debug("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
