// Package orchestrator runs one comparison: it checks both samples, loads
// sample B, streams sample A in chunks through a bounded worker pool, and
// aggregates the matches.
//
// Only the type report and the "Comparing columns..." marker are written by
// the Runner; the final list is returned in Result for the caller to render.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/maulikam/data-analysis/internal/aggregate"
	"github.com/maulikam/data-analysis/internal/classify"
	"github.com/maulikam/data-analysis/internal/compare"
	"github.com/maulikam/data-analysis/internal/config"
	"github.com/maulikam/data-analysis/internal/dataset"
	"github.com/maulikam/data-analysis/internal/metrics"
	"github.com/maulikam/data-analysis/internal/progress"
	"github.com/maulikam/data-analysis/internal/report"
	"github.com/maulikam/data-analysis/internal/similarity"
	"github.com/maulikam/data-analysis/internal/workerpool"
)

// MissingInputError reports a sample that does not exist. No comparison work
// is done once it is returned.
type MissingInputError struct {
	Name string // path, URL or object of the missing sample
	Err  error
}

func (e *MissingInputError) Error() string { return "file does not exist: " + e.Name }
func (e *MissingInputError) Unwrap() error { return e.Err }

// ChunkError is the failure of one chunk task. Its matches are dropped and
// the run continues.
type ChunkError struct {
	Index  int
	Offset int // first row of the chunk in sample A
	Err    error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d (rows from %d): %v", e.Index, e.Offset, e.Err)
}
func (e *ChunkError) Unwrap() error { return e.Err }

// Result is the outcome of a successful run.
type Result struct {
	RunID        string
	Matches      []compare.Match
	Chunks       int
	FailedChunks int
	RowsA        int
	RowsB        int
	Pairs        compare.Stats
	Elapsed      time.Duration
}

// TypesResult is the outcome of Types.
type TypesResult struct {
	A, B  classify.Assignment
	RowsB int
}

// Options configures a Runner beyond the run config.
type Options struct {
	// Out receives the type report and the progress marker. Nil discards.
	Out io.Writer
	// Progress, when set, ticks once per gathered chunk.
	Progress *progress.Tracker
	// Verbose enables per-chunk debug logs.
	Verbose bool
	// RunID labels logs and metrics. Empty generates a random UUID.
	RunID string
	// Logf replaces log.Printf.
	Logf func(format string, args ...any)
}

// Runner executes a config.Run.
type Runner struct {
	cfg   config.Run
	rt    runtimeConfig
	opt   Options
	agg   aggregate.Policy
	runID string

	// Seams replaced in tests.
	newInput func(config.Source, config.Parser, func(string, ...any)) (input, error)
	process  func(ctx context.Context, chunk, b *dataset.Dataset) ([]compare.Match, compare.Stats, error)
}

// New validates cfg and prepares a Runner.
func New(cfg config.Run, opt Options) (*Runner, error) {
	for _, iss := range config.ValidateRun(cfg) {
		if iss.Severity == config.SeverityError {
			return nil, fmt.Errorf("invalid config: %w", iss)
		}
	}
	policy, err := aggregate.ParsePolicy(cfg.Compare.Aggregate)
	if err != nil {
		return nil, err
	}
	if opt.Out == nil {
		opt.Out = io.Discard
	}
	if opt.Logf == nil {
		opt.Logf = log.Printf
	}
	runID := opt.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	sopt := similarity.DefaultOptions()
	sopt.Vectorizer.Features = cfg.Compare.Features
	sopt.NumericLength = similarity.LengthPolicy(cfg.Compare.NumericLength)
	sopt.Logf = opt.Logf

	return &Runner{
		cfg:      cfg,
		rt:       newRuntimeConfig(cfg.Runtime),
		opt:      opt,
		agg:      policy,
		runID:    runID,
		newInput: newInput,
		process:  compare.New(similarity.New(sopt), cfg.Compare.Threshold).Process,
	}, nil
}

// RunID returns the identifier used in logs and metrics.
func (r *Runner) RunID() string { return r.runID }

func (r *Runner) debugf(format string, args ...any) {
	if r.opt.Verbose {
		r.opt.Logf(format, args...)
	}
}

// step runs fn and records its duration and outcome.
func (r *Runner) step(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStep(r.cfg.Job, name, err, time.Since(start))
	r.debugf("%s: done in %s", name, time.Since(start).Round(time.Millisecond))
	return err
}

// inputs builds both samples and confirms they exist, A first.
func (r *Runner) inputs(ctx context.Context) (a, b input, err error) {
	if a, err = r.newInput(r.cfg.SampleA, r.cfg.Parser, r.opt.Logf); err != nil {
		return nil, nil, fmt.Errorf("sample_a: %w", err)
	}
	if b, err = r.newInput(r.cfg.SampleB, r.cfg.Parser, r.opt.Logf); err != nil {
		return nil, nil, fmt.Errorf("sample_b: %w", err)
	}
	for _, in := range []input{a, b} {
		if err := in.Check(ctx); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, nil, &MissingInputError{Name: in.String(), Err: err}
			}
			return nil, nil, fmt.Errorf("check %s: %w", in, err)
		}
	}
	return a, b, nil
}

// loadB materializes sample B and classifies it from all of its rows.
func (r *Runner) loadB(ctx context.Context, b input) (*dataset.Dataset, classify.Assignment, error) {
	var (
		ds    *dataset.Dataset
		types classify.Assignment
	)
	err := r.step("load", func() error {
		rr, err := b.Rows(ctx)
		if err != nil {
			return err
		}
		defer closeQuietly(rr, b.String(), r.opt.Logf)
		if ds, err = dataset.Load(rr); err != nil {
			return fmt.Errorf("load %s: %w", b, err)
		}
		types = classify.Dataset(ds)
		types.Apply(ds)
		return nil
	})
	return ds, types, err
}

// Types classifies both samples and writes the type report without
// comparing anything.
func (r *Runner) Types(ctx context.Context) (*TypesResult, error) {
	a, b, err := r.inputs(ctx)
	if err != nil {
		return nil, err
	}
	dsB, typesB, err := r.loadB(ctx, b)
	if err != nil {
		return nil, err
	}
	rr, err := a.Rows(ctx)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(rr, a.String(), r.opt.Logf)

	typesA, err := sampleTypes(dataset.NewChunker(rr, r.rt.chunkBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", a, err)
	}
	if err := r.writeTypes(typesA, typesB, dsB.Rows()); err != nil {
		return nil, err
	}
	return &TypesResult{A: typesA, B: typesB, RowsB: dsB.Rows()}, nil
}

// sampleTypes classifies A from its first available row, looking ahead only
// within the first chunk to fill missing cells. An A without rows yields
// Unknown for every column.
func sampleTypes(ch *dataset.Chunker) (classify.Assignment, error) {
	first, err := ch.PeekChunk()
	if errors.Is(err, io.EOF) {
		return classify.Sample(ch.Header(), nil), nil
	}
	if err != nil {
		return nil, err
	}
	return classify.FirstAvailable(first.Data), nil
}

func (r *Runner) writeTypes(a, b classify.Assignment, rowsB int) error {
	if err := report.Types(r.opt.Out, report.SampleA, -1, a); err != nil {
		return err
	}
	return report.Types(r.opt.Out, report.SampleB, rowsB, b)
}

// Run performs the comparison. A missing sample yields *MissingInputError
// before any work; a failure reading either sample fails the run with no
// partial results. Failed chunks are logged and counted but do not fail
// the run.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	r.debugf("run: id=%s workers=%d chunk_bytes=%d dispatch=%s aggregate=%s",
		r.runID, r.rt.workers, r.rt.chunkBytes, r.rt.dispatch, r.agg)

	a, b, err := r.inputs(ctx)
	if err != nil {
		return nil, err
	}

	dsB, typesB, err := r.loadB(ctx, b)
	if err != nil {
		return nil, err
	}

	rr, err := a.Rows(ctx)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(rr, a.String(), r.opt.Logf)
	chunker := dataset.NewChunker(rr, r.rt.chunkBytes)

	var typesA classify.Assignment
	if err := r.step("classify", func() (err error) {
		typesA, err = sampleTypes(chunker)
		return err
	}); err != nil {
		return nil, fmt.Errorf("read %s: %w", a, err)
	}

	if err := r.writeTypes(typesA, typesB, dsB.Rows()); err != nil {
		return nil, err
	}
	if err := report.Comparing(r.opt.Out); err != nil {
		return nil, err
	}

	var (
		stats   counters
		fails   = newErrAgg(failedChunkSamples)
		matches []compare.Match
	)
	err = r.step("compare", func() (err error) {
		matches, err = r.compareChunks(ctx, chunker, typesA, dsB, &stats, fails)
		return err
	})
	r.opt.Progress.Finish()
	if err != nil {
		return nil, fmt.Errorf("compare %s: %w", a, err)
	}

	var final []compare.Match
	if err := r.step("aggregate", func() (err error) {
		final, err = aggregate.Apply(matches, r.agg)
		return err
	}); err != nil {
		return nil, err
	}

	res := &Result{
		RunID:        r.runID,
		Matches:      final,
		Chunks:       int(stats.chunks.Load()),
		FailedChunks: int(stats.failedChunks.Load()),
		RowsA:        int(stats.rowsA.Load()),
		RowsB:        dsB.Rows(),
		Pairs: compare.Stats{
			Pairs:   int(stats.pairs.Load()),
			Skipped: int(stats.skipped.Load()),
			Failed:  int(stats.failedPairs.Load()),
			Matched: int(stats.matched.Load()),
		},
		Elapsed: time.Since(start),
	}
	r.recordPairs(res.Pairs)
	r.logSummary(res, fails)
	return res, nil
}

// chunkResult is what one chunk task hands back.
type chunkResult struct {
	matches []compare.Match
	stats   compare.Stats
	elapsed time.Duration
}

type pending struct {
	index  int
	offset int
	rows   int
	fut    *workerpool.Future[chunkResult]
}

// compareChunks streams A through the pool and returns the concatenated
// matches in chunk index order.
func (r *Runner) compareChunks(
	ctx context.Context,
	chunker *dataset.Chunker,
	typesA classify.Assignment,
	dsB *dataset.Dataset,
	stats *counters,
	fails *errAgg,
) ([]compare.Match, error) {
	pool := workerpool.New(r.rt.workers)
	defer pool.Close()

	// Cancelled before Close waits, so in-flight chunks stop early when
	// reading A fails.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		queue []pending
		out   []compare.Match
	)
	gather := func(p pending) {
		res, err := p.fut.Get()
		r.opt.Progress.ChunkDone(p.rows)
		if err != nil {
			cerr := &ChunkError{Index: p.index, Offset: p.offset, Err: err}
			r.opt.Logf("chunk: %v", cerr)
			fails.add(cerr.Error())
			stats.failedChunks.Add(1)
			metrics.RecordChunk(r.cfg.Job, "failed", p.rows)
			return
		}
		r.debugf("chunk: %d rows=%d matches=%d in %s", p.index, p.rows, len(res.matches), res.elapsed.Round(time.Millisecond))
		stats.addStats(res.stats)
		metrics.RecordChunk(r.cfg.Job, "ok", p.rows)
		out = append(out, res.matches...)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunk, err := chunker.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		typesA.Apply(chunk.Data)
		stats.chunks.Add(1)
		stats.rowsA.Add(int64(chunk.Data.Rows()))

		data := chunk.Data
		p := pending{index: chunk.Index, offset: chunk.Offset, rows: data.Rows()}
		p.fut = workerpool.Submit(ctx, pool, func(ctx context.Context) (chunkResult, error) {
			t0 := time.Now()
			ms, st, err := r.process(ctx, data, dsB)
			return chunkResult{matches: ms, stats: st, elapsed: time.Since(t0)}, err
		})

		if r.rt.dispatch == DispatchSerial {
			gather(p)
			continue
		}
		queue = append(queue, p)
	}

	for _, p := range queue {
		gather(p)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Runner) recordPairs(st compare.Stats) {
	job := r.cfg.Job
	metrics.RecordPairs(job, "compared", st.Pairs-st.Skipped)
	metrics.RecordPairs(job, "skipped", st.Skipped)
	metrics.RecordPairs(job, "failed", st.Failed)
	metrics.RecordPairs(job, "matched", st.Matched)
}

// logSummary prints the run summary and the first chunk failures.
func (r *Runner) logSummary(res *Result, fails *errAgg) {
	if fails.count > 0 {
		r.opt.Logf("chunk failures: %d (%d distinct, showing first %d)", fails.count, len(fails.buckets), len(fails.first))
		for i, s := range fails.first {
			r.opt.Logf("  #%03d: %s", i+1, s)
		}
	}
	r.opt.Logf("Compared %d rows of %s in %d chunks (%d failed)", res.RowsA, report.SampleA, res.Chunks, res.FailedChunks)
	r.debugf(
		"summary: run_id=%s rows_a=%d rows_b=%d pairs=%d skipped=%d failed_pairs=%d matched=%d results=%d elapsed=%s",
		res.RunID, res.RowsA, res.RowsB, res.Pairs.Pairs, res.Pairs.Skipped, res.Pairs.Failed,
		res.Pairs.Matched, len(res.Matches), res.Elapsed.Round(time.Millisecond),
	)
}
