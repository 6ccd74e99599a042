package main

import (
	"log"

	"github.com/maulikam/data-analysis/internal/config"
	"github.com/maulikam/data-analysis/internal/metrics"
	"github.com/maulikam/data-analysis/internal/metrics/datadog"
	"github.com/maulikam/data-analysis/internal/metrics/prompush"
)

const (
	defaultPushgatewayURL = "http://localhost:9091"
	defaultDatadogAddr    = "127.0.0.1:8125"
)

// setupMetrics installs the configured backend and returns the function
// that flushes it at exit. A backend that fails to start leaves metrics
// disabled.
func setupMetrics(cfg config.Run, runID string, verbose bool) (flush func()) {
	flush = func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}

	switch cfg.Metrics.Backend {
	case "pushgateway":
		gwURL := cfg.Metrics.PushgatewayURL
		if gwURL == "" {
			gwURL = defaultPushgatewayURL
		}
		b, err := prompush.NewBackend(cfg.Job, gwURL, runID)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return func() {}
		}
		if verbose {
			log.Printf("metrics: url=%v, backend=pushgateway, job_name=%v, run_id=%v", gwURL, cfg.Job, runID)
		}
		metrics.SetBackend(b)

	case "datadog":
		addr := cfg.Metrics.DatadogAddr
		if addr == "" {
			addr = defaultDatadogAddr
		}
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  cfg.Metrics.Namespace,
			GlobalTags: []string{"job:" + cfg.Job, "run_id:" + runID},
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return func() {}
		}
		if verbose {
			log.Printf("metrics: addr=%v, backend=datadog, run_id=%v", addr, runID)
		}
		metrics.SetBackend(b)

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", cfg.Metrics.Backend)
		}
		return func() {}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", cfg.Metrics.Backend)
		return func() {}
	}
	return flush
}
