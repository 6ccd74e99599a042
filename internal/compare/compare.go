// Package compare scores every column of a chunk of dataset A against every
// column of dataset B.
package compare

import (
	"context"

	"github.com/maulikam/data-analysis/internal/dataset"
	"github.com/maulikam/data-analysis/internal/similarity"
)

// DefaultThreshold is the score a pair must exceed to be reported.
const DefaultThreshold = 0.8

// Match is a column pair whose score exceeded the threshold.
type Match struct {
	ColumnA string  `json:"column_a"`
	ColumnB string  `json:"column_b"`
	Score   float64 `json:"score"`
}

// Stats counts the pairs one Process call looked at.
type Stats struct {
	Pairs   int // every A column x B column visited
	Skipped int // incompatible or unknown types, scored 0 without computing
	Failed  int // scoring failed and fell back to 0
	Matched int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Pairs += o.Pairs
	s.Skipped += o.Skipped
	s.Failed += o.Failed
	s.Matched += o.Matched
}

// Processor runs the cross product for one chunk.
type Processor struct {
	Scorer    *similarity.Scorer
	Threshold float64
}

// New returns a Processor. A nil scorer uses similarity defaults.
func New(scorer *similarity.Scorer, threshold float64) *Processor {
	if scorer == nil {
		scorer = similarity.New(similarity.DefaultOptions())
	}
	return &Processor{Scorer: scorer, Threshold: threshold}
}

// Process compares every column of chunk against every column of b, in A
// column then B column order, and keeps pairs scoring strictly above the
// threshold. It fails only when ctx is done.
func (p *Processor) Process(ctx context.Context, chunk, b *dataset.Dataset) ([]Match, Stats, error) {
	var (
		out []Match
		st  Stats
	)
	for _, ca := range chunk.Columns {
		if err := ctx.Err(); err != nil {
			return nil, st, err
		}
		for _, cb := range b.Columns {
			st.Pairs++
			var score float64
			if Comparable(ca.Type, cb.Type) {
				res := p.Scorer.Score(ca, cb)
				if res.Err != nil {
					st.Failed++
				}
				score = res.Value
			} else {
				st.Skipped++
			}
			if score > p.Threshold {
				st.Matched++
				out = append(out, Match{ColumnA: ca.Name, ColumnB: cb.Name, Score: score})
			}
		}
	}
	return out, st, nil
}

// Comparable reports whether columns of types a and b are scored at all.
func Comparable(a, b dataset.Type) bool {
	return a == b && a != dataset.Unknown
}
