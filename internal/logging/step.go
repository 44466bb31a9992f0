package logging

import (
	"sync"
	"time"
)

// StepSpan is the `log_step` scoped-acquisition primitive (spec §4.1):
// it emits a `<step>_start` event on creation, and guarantees a matching
// `<step>_end` (status=success) or `<step>_error` event on End, with the
// measured duration. Generalizes the teacher's Timer (StartTimer/Stop).
type StepSpan struct {
	logger *Logger
	jobID  string
	step   string
	start  time.Time
	ended  bool
}

// StepObserver receives every completed step span's timing, for the metrics
// aggregator to fold into its per-step average-latency summary (spec §6
// `/metrics`) without the logging package importing obsmetrics.
type StepObserver func(component, step string, durationMs float64, err error)

var (
	observerMu sync.Mutex
	observer   StepObserver
)

// SetStepObserver installs (or clears, with nil) the process-wide step
// observer. Only one observer is supported; the service registers exactly
// one obsmetrics.Aggregator at startup.
func SetStepObserver(obs StepObserver) {
	observerMu.Lock()
	defer observerMu.Unlock()
	observer = obs
}

// LogStep begins a step span and emits its start event.
func LogStep(component, jobID, step string) *StepSpan {
	s := &StepSpan{
		logger: Get(component),
		jobID:  jobID,
		step:   step,
		start:  time.Now(),
	}
	write(Entry{
		Timestamp: s.start.UTC(),
		Level:     LevelInfo.String(),
		Component: component,
		Message:   step + " started",
		JobID:     jobID,
		Step:      step,
		Event:     step + "_start",
	})
	return s
}

// End completes the span exactly once. Pass the stage's error (nil on
// success). Safe, and a no-op, if called more than once — callers that
// `defer span.End(err)` are guaranteed exactly one terminal event even on a
// panic-free early return.
func (s *StepSpan) End(err error) {
	if s.ended {
		return
	}
	s.ended = true
	duration := time.Since(s.start)
	entry := Entry{
		Timestamp:  time.Now().UTC(),
		Component:  s.logger.component,
		JobID:      s.jobID,
		Step:       s.step,
		DurationMs: float64(duration.Microseconds()) / 1000.0,
	}
	if err != nil {
		entry.Level = LevelError.String()
		entry.Event = s.step + "_error"
		entry.Status = "error"
		entry.Error = err.Error()
		entry.Message = s.step + " failed"
	} else {
		entry.Level = LevelInfo.String()
		entry.Event = s.step + "_end"
		entry.Status = "success"
		entry.Message = s.step + " completed"
	}
	write(entry)

	observerMu.Lock()
	obs := observer
	observerMu.Unlock()
	if obs != nil {
		obs(s.logger.component, s.step, entry.DurationMs, err)
	}
}
