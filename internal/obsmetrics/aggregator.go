// Package obsmetrics is the observability layer carried as an ambient
// concern per SPEC_FULL.md §19: a prometheus/client_golang registry for
// scraping at /metrics/prom, plus an in-memory per-step aggregator backing
// the plain-JSON /metrics summary spec §6 describes (counts, averages,
// per-step average latencies). It subscribes to internal/logging's step
// observer hook rather than threading its own instrumentation calls through
// every pipeline stage, so every existing logging.LogStep call site is
// instrumented for free.
package obsmetrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scitorrent/arandu-repro/internal/logging"
)

// Aggregator accumulates step timings and HTTP request counts, exposing them
// both as Prometheus collectors and as a JSON-friendly Summary.
type Aggregator struct {
	stepDuration *prometheus.HistogramVec
	stepTotal    *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpTotal    *prometheus.CounterVec
	registry     *prometheus.Registry

	mu    sync.Mutex
	steps map[string]*stepStats
}

type stepStats struct {
	Count   int64   `json:"count"`
	Errors  int64   `json:"errors"`
	TotalMs float64 `json:"-"`
	AvgMs   float64 `json:"avg_duration_ms"`
}

// New builds an Aggregator with its own Prometheus registry (so a test
// process can construct more than one without collector-name collisions)
// and registers it as the process-wide logging.StepObserver.
func New() *Aggregator {
	reg := prometheus.NewRegistry()
	a := &Aggregator{
		registry: reg,
		steps:    make(map[string]*stepStats),
		stepDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "arandu",
			Name:      "step_duration_seconds",
			Help:      "Duration of a logged pipeline step, by component and step name.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"component", "step"}),
		stepTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "arandu",
			Name:      "step_total",
			Help:      "Count of completed pipeline steps, by component, step, and outcome.",
		}, []string{"component", "step", "status"}),
		httpDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "arandu",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of an HTTP request, by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		httpTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "arandu",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests, by route, method, and status code.",
		}, []string{"route", "method", "status"}),
	}
	logging.SetStepObserver(a.observeStep)
	return a
}

func (a *Aggregator) observeStep(component, step string, durationMs float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	a.stepDuration.WithLabelValues(component, step).Observe(durationMs / 1000.0)
	a.stepTotal.WithLabelValues(component, step, status).Inc()

	key := component + "." + step
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.steps[key]
	if !ok {
		s = &stepStats{}
		a.steps[key] = s
	}
	s.Count++
	if err != nil {
		s.Errors++
	}
	s.TotalMs += durationMs
	s.AvgMs = s.TotalMs / float64(s.Count)
}

// PrometheusHandler exposes the registry in the standard exposition format.
func (a *Aggregator) PrometheusHandler() http.Handler {
	return promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
}

// Summary is the plain-JSON shape served at GET /metrics (spec §6): total
// steps observed, total errors, and a per-step breakdown with average
// latency.
type Summary struct {
	TotalSteps  int64                 `json:"total_steps"`
	TotalErrors int64                 `json:"total_errors"`
	Steps       map[string]*stepStats `json:"steps"`
}

// Summary snapshots the current aggregate state.
func (a *Aggregator) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := Summary{Steps: make(map[string]*stepStats, len(a.steps))}
	for key, s := range a.steps {
		copied := *s
		out.Steps[key] = &copied
		out.TotalSteps += s.Count
		out.TotalErrors += s.Errors
	}
	return out
}
