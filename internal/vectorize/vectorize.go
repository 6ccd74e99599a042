// Package vectorize implements a hashed bag-of-words text embedding.
//
// Tokens are hashed straight into a fixed number of features, so no
// vocabulary is fitted and memory does not grow with the input. A column is
// reduced to the mean of its L2-normalized row vectors, which is all the
// similarity scorer needs.
//
// Fitting is directional: the vectorizer is fitted on one column and then
// used to transform another. Hashing has no learned state, but the API keeps
// the fit step explicit so the asymmetry is visible at the call site.
package vectorize

import (
	"errors"
	"math"
	"unicode"
	"unicode/utf8"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
	"gonum.org/v1/gonum/floats"
)

// DefaultFeatures is the default embedding width.
const DefaultFeatures = 1000

var (
	// ErrNotFitted is returned by TransformMean before FitTransformMean.
	ErrNotFitted = errors.New("vectorize: transform before fit")
	// ErrEmpty is returned when there are no values to average.
	ErrEmpty = errors.New("vectorize: no values")
)

// Options configures a Vectorizer.
type Options struct {
	// Features is the embedding width. Zero selects DefaultFeatures.
	Features int
	// AlternateSign gives each token a +1 or -1 weight derived from its
	// hash so collisions tend to cancel instead of accumulate.
	AlternateSign bool
	// Normalize scales each row vector to unit L2 length.
	Normalize bool
}

// DefaultOptions returns 1000 features with alternate signs and L2 rows.
func DefaultOptions() Options {
	return Options{Features: DefaultFeatures, AlternateSign: true, Normalize: true}
}

// Vectorizer turns text values into hashed feature vectors.
// A Vectorizer is not safe for concurrent use.
type Vectorizer struct {
	opt    Options
	lower  cases.Caser
	fitted bool
}

// New returns an unfitted Vectorizer.
func New(opt Options) *Vectorizer {
	if opt.Features <= 0 {
		opt.Features = DefaultFeatures
	}
	return &Vectorizer{opt: opt, lower: cases.Lower(language.Und)}
}

// Features returns the embedding width.
func (v *Vectorizer) Features() int { return v.opt.Features }

// FitTransformMean fits the vectorizer on values and returns their mean
// row vector.
func (v *Vectorizer) FitTransformMean(values []string) ([]float64, error) {
	v.fitted = true
	return v.TransformMean(values)
}

// TransformMean returns the mean row vector of values using the parameters
// fixed by a previous fit.
func (v *Vectorizer) TransformMean(values []string) ([]float64, error) {
	if !v.fitted {
		return nil, ErrNotFitted
	}
	if len(values) == 0 {
		return nil, ErrEmpty
	}

	sum := make([]float64, v.opt.Features)
	row := make([]float64, v.opt.Features)
	mark := make([]bool, v.opt.Features)
	touched := make([]int, 0, 16)

	for _, s := range values {
		touched = v.accumulate(s, row, mark, touched[:0])
		scale := 1.0
		if v.opt.Normalize {
			var sq float64
			for _, i := range touched {
				sq += row[i] * row[i]
			}
			if sq > 0 {
				scale = 1 / math.Sqrt(sq)
			}
		}
		for _, i := range touched {
			sum[i] += row[i] * scale
			row[i] = 0
			mark[i] = false
		}
	}

	floats.Scale(1/float64(len(values)), sum)
	return sum, nil
}

// accumulate hashes the tokens of s into row and returns the distinct
// indices it wrote, using mark to remember which ones are already listed.
func (v *Vectorizer) accumulate(s string, row []float64, mark []bool, touched []int) []int {
	n := uint64(v.opt.Features)
	for _, tok := range v.Tokenize(s) {
		h := xxh3.HashString(tok)
		i := int(h % n)
		w := 1.0
		if v.opt.AlternateSign && h>>63 == 1 {
			w = -1
		}
		if !mark[i] {
			mark[i] = true
			touched = append(touched, i)
		}
		row[i] += w
	}
	return touched
}

// Tokenize lowercases and NFC-normalizes s, then returns every run of two or
// more word runes (letters, digits, underscore).
func (v *Vectorizer) Tokenize(s string) []string {
	s = v.lower.String(norm.NFC.String(s))

	var out []string
	start := -1
	for i, r := range s {
		if isWord(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = appendToken(out, s[start:i])
			start = -1
		}
	}
	if start >= 0 {
		out = appendToken(out, s[start:])
	}
	return out
}

func appendToken(out []string, tok string) []string {
	if utf8.RuneCountInString(tok) < 2 {
		return out
	}
	return append(out, tok)
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
