// Package aggregate folds the per-chunk match lists into the final report.
//
// The input is the concatenation of chunk results in chunk order. A policy
// collapses repeated column pairs, then the survivors are sorted by score,
// highest first. Equal scores keep the order in which they were first seen.
//
//   - "exact": drop only matches identical in both columns and score. The
//     same pair can appear several times with different per-chunk scores.
//   - "max":   one entry per column pair holding its best chunk score.
//   - "mean":  one entry per column pair holding the mean of the chunk
//     scores that passed the threshold.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/maulikam/data-analysis/internal/compare"
)

// Policy selects how repeated column pairs are collapsed.
type Policy string

const (
	Exact Policy = "exact"
	Max   Policy = "max"
	Mean  Policy = "mean"
)

// ParsePolicy normalizes s. An empty string selects Exact.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return Exact, nil
	case Exact, Max, Mean:
		return p, nil
	}
	return "", fmt.Errorf("aggregate: unknown policy %q (want exact, max or mean)", s)
}

type pair struct{ a, b string }

type exactKey struct {
	pair
	bits uint64
}

type group struct {
	index int // first-seen position
	match compare.Match
	sum   float64
	n     int
}

// Apply collapses in according to policy and returns a new slice sorted by
// descending score. in is not modified.
func Apply(in []compare.Match, policy Policy) ([]compare.Match, error) {
	var out []compare.Match
	switch policy {
	case Exact, "":
		out = exact(in)
	case Max, Mean:
		out = grouped(in, policy)
	default:
		return nil, fmt.Errorf("aggregate: unknown policy %q", policy)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func exact(in []compare.Match) []compare.Match {
	seen := make(map[exactKey]struct{}, len(in))
	out := make([]compare.Match, 0, len(in))
	for _, m := range in {
		k := exactKey{pair{m.ColumnA, m.ColumnB}, math.Float64bits(m.Score)}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, m)
	}
	return out
}

func grouped(in []compare.Match, policy Policy) []compare.Match {
	groups := make(map[pair]*group, len(in))
	for i, m := range in {
		k := pair{m.ColumnA, m.ColumnB}
		g, ok := groups[k]
		if !ok {
			groups[k] = &group{index: i, match: m, sum: m.Score, n: 1}
			continue
		}
		g.sum += m.Score
		g.n++
		if m.Score > g.match.Score {
			g.match.Score = m.Score
		}
	}

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].index < ordered[j].index })

	out := make([]compare.Match, len(ordered))
	for i, g := range ordered {
		out[i] = g.match
		if policy == Mean {
			out[i].Score = g.sum / float64(g.n)
		}
	}
	return out
}
