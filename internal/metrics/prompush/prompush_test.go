package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/maulikam/data-analysis/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// readCounter reads the current value of one child of a CounterVec.
func readCounter(t *testing.T, v *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := v.WithLabelValues(labels...).Write(m); err != nil {
		t.Fatalf("Counter.Write() error = %v", err)
	}
	return m.GetCounter().GetValue()
}

// readSummary reads sample count and sum from a Summary metric.
func readSummary(t *testing.T, s prometheus.Metric) (uint64, float64) {
	t.Helper()

	m := &dto.Metric{}
	if err := s.Write(m); err != nil {
		t.Fatalf("Summary.Write() error = %v", err)
	}
	if m.GetSummary() == nil {
		t.Fatalf("metric did not contain Summary value")
	}
	return m.GetSummary().GetSampleCount(), m.GetSummary().GetSampleSum()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		jobName    string
		gatewayURL string
		wantErr    bool
		wantJob    string
	}{
		{name: "missing gateway URL", jobName: "x", wantErr: true},
		{name: "default job name", gatewayURL: "http://pushgateway:9091", wantJob: "colmatch"},
		{name: "explicit job name", jobName: "nightly", gatewayURL: "http://pushgateway:9091", wantJob: "nightly"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := NewBackend(tt.jobName, tt.gatewayURL, "")
			if tt.wantErr {
				if err == nil || b != nil {
					t.Fatalf("NewBackend(%q, %q) = %v, %v; want nil, error", tt.jobName, tt.gatewayURL, b, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend: %v", err)
			}
			if b.jobName != tt.wantJob {
				t.Fatalf("jobName = %q, want %q", b.jobName, tt.wantJob)
			}
		})
	}
}

func TestIncCounterRouting(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("colmatch", "http://example.invalid", "")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "load", "status": "success"})
	b.IncCounter(metrics.ChunksTotal, 2, metrics.Labels{"status": "ok"})
	b.IncCounter(metrics.ChunksTotal, 1, metrics.Labels{"status": "failed"})
	b.IncCounter(metrics.PairsTotal, 12, metrics.Labels{"kind": "compared"})
	b.IncCounter("unknown_metric", 5, nil)

	tests := []struct {
		name   string
		vec    *prometheus.CounterVec
		labels []string
		want   float64
	}{
		{"step", b.stepCounter, []string{"load", "success"}, 1},
		{"chunks ok", b.chunkCounter, []string{"ok"}, 2},
		{"chunks failed", b.chunkCounter, []string{"failed"}, 1},
		{"pairs", b.pairCounter, []string{"compared"}, 12},
		{"pairs untouched", b.pairCounter, []string{"matched"}, 0},
	}
	for _, tc := range tests {
		if got := readCounter(t, tc.vec, tc.labels...); got != tc.want {
			t.Fatalf("%s = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestObserveHistogram(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("colmatch", "http://example.invalid", "")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	b.ObserveHistogram(metrics.StepDuration, 0.5, metrics.Labels{"step": "compare", "status": "success"})
	b.ObserveHistogram(metrics.StepDuration, 1.5, metrics.Labels{"step": "compare", "status": "success"})
	b.ObserveHistogram(metrics.ChunkRowsSummary, 100, nil)
	b.ObserveHistogram("unknown_metric", 9, nil)

	metric, ok := b.stepDuration.WithLabelValues("compare", "success").(prometheus.Metric)
	if !ok {
		t.Fatalf("summary child does not implement prometheus.Metric")
	}
	if n, sum := readSummary(t, metric); n != 2 || sum != 2 {
		t.Fatalf("step summary = (%d, %v), want (2, 2)", n, sum)
	}
	if n, sum := readSummary(t, b.chunkRows); n != 1 || sum != 100 {
		t.Fatalf("chunk rows = (%d, %v), want (1, 100)", n, sum)
	}
}

func TestFlushPushesUnderRunID(t *testing.T) {
	t.Parallel()

	type pushed struct {
		method string
		path   string
		body   string
	}
	reqCh := make(chan pushed, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		reqCh <- pushed{method: r.Method, path: r.URL.Path, body: string(body)}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	b, err := NewBackend("colmatch", server.URL, "run-42")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	b.IncCounter(metrics.PairsTotal, 3, metrics.Labels{"kind": "matched"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	var got pushed
	select {
	case got = <-reqCh:
	default:
		t.Fatalf("Flush did not reach the Pushgateway")
	}
	if got.method != http.MethodPut {
		t.Fatalf("method = %s, want PUT", got.method)
	}
	if got.path != "/metrics/job/colmatch/run_id/run-42" {
		t.Fatalf("path = %q", got.path)
	}
	if len(got.body) == 0 {
		t.Fatalf("push body is empty")
	}
}

func TestFlushError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	b, err := NewBackend("", server.URL, "")
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	err = b.Flush()
	if err == nil || !strings.Contains(err.Error(), "prompush: push") {
		t.Fatalf("Flush error = %v, want wrapped push error", err)
	}
}

func BenchmarkIncCounterPairs(b *testing.B) {
	backend, err := NewBackend("colmatch", "http://example.invalid", "")
	if err != nil {
		b.Fatalf("NewBackend: %v", err)
	}
	lbls := metrics.Labels{"kind": "compared"}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		backend.IncCounter(metrics.PairsTotal, 1, lbls)
	}
}
