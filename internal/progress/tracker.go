// Package progress draws a spinner over the chunks of sample A while they
// are compared.
package progress

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Tracker counts finished chunks and rows. A nil *Tracker is valid and
// records nothing, so callers need not check whether progress is enabled.
type Tracker struct {
	bar    *progressbar.ProgressBar
	chunks atomic.Int64
	rows   atomic.Int64
}

// New returns a Tracker drawing on w, typically os.Stderr. The total is
// unknown while A is streamed, so the bar is a spinner.
func New(w io.Writer) *Tracker {
	return &Tracker{
		bar: progressbar.NewOptions64(
			-1,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("Comparing"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("chunks"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionSetRenderBlankState(true),
		),
	}
}

// ChunkDone records one finished chunk of rows rows.
func (t *Tracker) ChunkDone(rows int) {
	if t == nil {
		return
	}
	t.chunks.Add(1)
	t.rows.Add(int64(rows))
	_ = t.bar.Add64(1)
}

// Chunks returns the number of finished chunks.
func (t *Tracker) Chunks() int64 {
	if t == nil {
		return 0
	}
	return t.chunks.Load()
}

// Rows returns the number of rows in finished chunks.
func (t *Tracker) Rows() int64 {
	if t == nil {
		return 0
	}
	return t.rows.Load()
}

// Finish renders the final state of the spinner.
func (t *Tracker) Finish() {
	if t == nil {
		return
	}
	_ = t.bar.Finish()
}
