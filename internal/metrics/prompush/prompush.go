// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// A batch comparison run is short-lived, so instead of exposing a scrape
// endpoint the collected series are pushed once, at Flush, under the
// Pushgateway job and an optional run_id grouping key.
package prompush

import (
	"fmt"

	"github.com/maulikam/data-analysis/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	runID      string // optional "run_id" grouping key
	reg        *prometheus.Registry

	stepCounter  *prometheus.CounterVec // colmatch_step_total
	stepDuration *prometheus.SummaryVec // colmatch_step_duration_seconds
	chunkCounter *prometheus.CounterVec // colmatch_chunks_total
	chunkRows    prometheus.Summary     // colmatch_chunk_rows
	pairCounter  *prometheus.CounterVec // colmatch_pairs_total
}

// NewBackend constructs a Pushgateway backend. jobName defaults to
// "colmatch"; runID, when set, becomes a grouping label so concurrent runs
// do not overwrite each other.
func NewBackend(jobName, gatewayURL, runID string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "colmatch"
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		runID:      runID,
		reg:        prometheus.NewRegistry(),
		stepCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.StepTotal,
				Help: "Run stage executions, partitioned by step and status.",
			},
			[]string{"step", "status"},
		),
		stepDuration: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       metrics.StepDuration,
				Help:       "Duration of run stages in seconds.",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{"step", "status"},
		),
		chunkCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.ChunksTotal,
				Help: "Chunks of sample A processed, partitioned by status (ok, failed).",
			},
			[]string{"status"},
		),
		chunkRows: prometheus.NewSummary(
			prometheus.SummaryOpts{
				Name: metrics.ChunkRowsSummary,
				Help: "Rows per chunk of sample A.",
			},
		),
		pairCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.PairsTotal,
				Help: "Column pairs visited, partitioned by kind (compared, skipped, failed, matched).",
			},
			[]string{"kind"},
		),
	}

	for name, c := range map[string]prometheus.Collector{
		"step counter":  b.stepCounter,
		"step summary":  b.stepDuration,
		"chunk counter": b.chunkCounter,
		"chunk rows":    b.chunkRows,
		"pair counter":  b.pairCounter,
	} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}
	return b, nil
}

// IncCounter implements metrics.Backend. Unknown names are ignored; the job
// label is carried by the Pushgateway grouping key instead.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
	case metrics.ChunksTotal:
		b.chunkCounter.WithLabelValues(labels["status"]).Add(delta)
	case metrics.PairsTotal:
		b.pairCounter.WithLabelValues(labels["kind"]).Add(delta)
	}
}

// ObserveHistogram implements metrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	switch name {
	case metrics.StepDuration:
		b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
	case metrics.ChunkRowsSummary:
		b.chunkRows.Observe(value)
	}
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	p := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg)
	if b.runID != "" {
		p = p.Grouping("run_id", b.runID)
	}
	if err := p.Push(); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.gatewayURL, err)
	}
	return nil
}
