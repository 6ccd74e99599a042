// Package metrics records operational metrics of a comparison run behind a
// small backend-agnostic interface.
//
// A global backend defaults to a no-op, so instrumentation is always safe to
// call. Concrete systems live in subpackages (prompush, datadog) and are
// installed once at startup with SetBackend.
package metrics

import (
	"sync"
	"time"
)

// Metric names shared by all backends.
const (
	StepTotal        = "colmatch_step_total"
	StepDuration     = "colmatch_step_duration_seconds"
	ChunksTotal      = "colmatch_chunks_total"
	PairsTotal       = "colmatch_pairs_total"
	ChunkRowsSummary = "colmatch_chunk_rows"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a distribution metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep counts one execution of a run stage (load, classify, compare,
// aggregate) and observes its duration.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}

	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordChunk counts one processed chunk of sample A. status is "ok" or
// "failed"; rows is the chunk's row count.
func RecordChunk(job, status string, rows int) {
	b := current()
	b.IncCounter(ChunksTotal, 1, Labels{"job": job, "status": status})
	if rows > 0 {
		b.ObserveHistogram(ChunkRowsSummary, float64(rows), Labels{"job": job})
	}
}

// RecordPairs adds n column pairs of the given kind:
//   - "compared"
//   - "skipped" (type mismatch)
//   - "failed" (scoring error, scored 0)
//   - "matched"
func RecordPairs(job, kind string, n int) {
	if n <= 0 {
		return
	}
	current().IncCounter(PairsTotal, float64(n), Labels{"job": job, "kind": kind})
}
