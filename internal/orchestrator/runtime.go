package orchestrator

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/maulikam/data-analysis/internal/compare"
	"github.com/maulikam/data-analysis/internal/config"
	"github.com/maulikam/data-analysis/internal/dataset"
)

// Dispatch policies.
const (
	DispatchGather = "gather"
	DispatchSerial = "serial"
)

// failedChunkSamples is how many chunk failure messages the summary shows.
const failedChunkSamples = 3

// runtimeConfig is the resolved concurrency and chunking setup of one run.
type runtimeConfig struct {
	workers    int
	chunkBytes int64
	dispatch   string
}

// newRuntimeConfig fills zero values with defaults. Flags and environment
// overrides are applied to the config by the caller.
func newRuntimeConfig(rc config.RuntimeConfig) runtimeConfig {
	dispatch := rc.Dispatch
	if dispatch == "" {
		dispatch = DispatchGather
	}
	return runtimeConfig{
		workers:    pickInt(rc.Workers, runtime.NumCPU()),
		chunkBytes: pickInt64(rc.ChunkBytes, dataset.DefaultChunkBytes),
		dispatch:   dispatch,
	}
}

// pickInt chooses a when positive, otherwise b.
func pickInt(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}

func pickInt64(a, b int64) int64 {
	if a > 0 {
		return a
	}
	return b
}

// counters holds run statistics. Chunk results are gathered on one
// goroutine, but the fields are atomic so progress reporting may read them
// while a run is in flight.
type counters struct {
	chunks       atomic.Int64 // chunks read from A and submitted
	failedChunks atomic.Int64 // chunks whose task errored or panicked
	rowsA        atomic.Int64 // rows of A handed out in chunks
	pairs        atomic.Int64
	skipped      atomic.Int64 // type-incompatible pairs
	failedPairs  atomic.Int64 // pairs whose scoring fell back to 0
	matched      atomic.Int64 // pairs above threshold, before aggregation
}

func (c *counters) addStats(st compare.Stats) {
	c.pairs.Add(int64(st.Pairs))
	c.skipped.Add(int64(st.Skipped))
	c.failedPairs.Add(int64(st.Failed))
	c.matched.Add(int64(st.Matched))
}

// errAgg keeps a count of failures and the first few messages.
type errAgg struct {
	mu      sync.Mutex
	limit   int
	count   int
	first   []string
	buckets map[string]int
}

func newErrAgg(limit int) *errAgg {
	return &errAgg{limit: limit, buckets: make(map[string]int)}
}

func (a *errAgg) add(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buckets[msg]++
	if a.count < a.limit {
		a.first = append(a.first, msg)
	}
	a.count++
}
