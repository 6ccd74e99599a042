// Package similarity scores how likely two columns hold the same field.
//
// String columns are compared by the cosine of their mean hashed-token
// vectors; numeric columns by the absolute Pearson correlation of their
// values. Columns of different or unknown type score exactly 0.
//
// Compare reports computational failures as *PairError. Score is the
// neutral-fallback entry point: a failed pair is logged and scored 0.
package similarity

import (
	"errors"
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/maulikam/data-analysis/internal/dataset"
	"github.com/maulikam/data-analysis/internal/vectorize"
)

// LengthPolicy decides how numeric columns of different lengths are paired.
type LengthPolicy string

const (
	// LengthStrict treats a length difference as a scoring failure.
	LengthStrict LengthPolicy = "strict"
	// LengthTruncate correlates the common prefix of both columns.
	LengthTruncate LengthPolicy = "truncate"
)

// Options configures a Scorer.
type Options struct {
	Vectorizer    vectorize.Options
	NumericLength LengthPolicy

	// Logf receives one line per failed pair. Nil uses log.Printf.
	Logf func(format string, args ...any)
}

// DefaultOptions selects 1000 hashed features and
// strict numeric lengths.
func DefaultOptions() Options {
	return Options{
		Vectorizer:    vectorize.DefaultOptions(),
		NumericLength: LengthStrict,
	}
}

// Scorer computes similarity scores. It holds no per-pair state and is safe
// for concurrent use.
type Scorer struct {
	opt Options
}

// New returns a Scorer.
func New(opt Options) *Scorer {
	if opt.NumericLength == "" {
		opt.NumericLength = LengthStrict
	}
	if opt.Logf == nil {
		opt.Logf = log.Printf
	}
	return &Scorer{opt: opt}
}

// Result is the outcome of Score. Err is non-nil when the pair failed, in
// which case Value is 0.
type Result struct {
	Value float64
	Err   *PairError
}

// Score compares a and b, logging any failure and falling back to 0.
func (s *Scorer) Score(a, b *dataset.Column) Result {
	v, err := s.Compare(a, b)
	if err == nil {
		return Result{Value: v}
	}
	var pe *PairError
	if !errors.As(err, &pe) {
		pe = &PairError{ColumnA: a.Name, ColumnB: b.Name, Kind: FailurePanic, Err: err}
	}
	s.opt.Logf("score: %v", pe)
	return Result{Err: pe}
}

// Compare scores a against b by their assigned types. Mismatched or unknown
// types return 0 with no error.
func (s *Scorer) Compare(a, b *dataset.Column) (score float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			score = 0
			err = &PairError{ColumnA: a.Name, ColumnB: b.Name, Kind: FailurePanic, Err: fmt.Errorf("%v", r)}
		}
	}()

	if a.Type != b.Type {
		return 0, nil
	}
	switch a.Type {
	case dataset.String:
		return s.compareStrings(a, b)
	case dataset.Numeric:
		return s.compareNumbers(a, b)
	}
	return 0, nil
}

// compareStrings fits the hashing vectorizer on a, transforms b with it,
// and returns the cosine of the two mean vectors.
func (s *Scorer) compareStrings(a, b *dataset.Column) (float64, error) {
	fail := func(kind FailureKind, err error) (float64, error) {
		return 0, &PairError{ColumnA: a.Name, ColumnB: b.Name, Kind: kind, Err: err}
	}

	v := vectorize.New(s.opt.Vectorizer)
	meanA, err := v.FitTransformMean(a.Strings())
	if err != nil {
		return fail(FailureEmpty, fmt.Errorf("column %q: %w", a.Name, err))
	}
	meanB, err := v.TransformMean(b.Strings())
	if err != nil {
		return fail(FailureEmpty, fmt.Errorf("column %q: %w", b.Name, err))
	}

	normA, normB := floats.Norm(meanA, 2), floats.Norm(meanB, 2)
	if normA == 0 || normB == 0 {
		return fail(FailureZeroVector, errors.New("mean vector has no tokens"))
	}
	return floats.Dot(meanA, meanB) / (normA * normB), nil
}

// compareNumbers returns |pearson(a, b)| with missing values read as 0.
func (s *Scorer) compareNumbers(a, b *dataset.Column) (float64, error) {
	fail := func(kind FailureKind, err error) (float64, error) {
		return 0, &PairError{ColumnA: a.Name, ColumnB: b.Name, Kind: kind, Err: err}
	}

	x, err := a.Floats()
	if err != nil {
		return fail(FailureParse, err)
	}
	y, err := b.Floats()
	if err != nil {
		return fail(FailureParse, err)
	}

	if len(x) != len(y) {
		if s.opt.NumericLength != LengthTruncate {
			return fail(FailureLengthMismatch, fmt.Errorf("lengths %d and %d differ", len(x), len(y)))
		}
		n := min(len(x), len(y))
		x, y = x[:n], y[:n]
	}
	if len(x) < 2 {
		return fail(FailureUndefined, fmt.Errorf("need at least 2 values, have %d", len(x)))
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return fail(FailureUndefined, errors.New("constant input"))
	}
	return math.Abs(r), nil
}
