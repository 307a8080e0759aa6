// Package score prepares raw model scores for counting: negative-class
// flipping, temporal zoom and observed range tracking.
package score

import (
	"math"
	"slices"
)

// Flip maps a negative-class likelihood to a positive-class one, 1 - s.
func Flip(s float64) float64 { return 1 - s }

// Zoom resamples one utterance's score sequence.
//
//	factor > 1:   pool each run of factor scores into one (max, or min when
//	              negative is set), padding the tail with the last score
//	factor < -1:  repeat every score -factor times
//	factor == 0:  pool the whole utterance into a single score
//	±1:           unchanged copy
func Zoom(scores []float64, factor int, negative bool) []float64 {
	pool := func(s []float64) float64 { return slices.Max(s) }
	if negative {
		pool = func(s []float64) float64 { return slices.Min(s) }
	}

	switch {
	case len(scores) == 0:
		return nil
	case factor == 0:
		return []float64{pool(scores)}
	case factor > 1:
		out := make([]float64, 0, (len(scores)+factor-1)/factor)
		for start := 0; start < len(scores); start += factor {
			end := min(start+factor, len(scores))
			// A short tail block is padded with its last value, which
			// never changes a max or min.
			out = append(out, pool(scores[start:end]))
		}
		return out
	case factor < -1:
		n := -factor
		out := make([]float64, 0, len(scores)*n)
		for _, s := range scores {
			for range n {
				out = append(out, s)
			}
		}
		return out
	default:
		return slices.Clone(scores)
	}
}

// UnitCal returns the label window matching scores zoomed by factor:
// 0 for utterance-based scoring, unit*factor when pooling and
// unit/-factor when repeating.
func UnitCal(unit float64, factor int) float64 {
	switch {
	case factor == 0:
		return 0
	case factor > 0:
		return unit * float64(factor)
	default:
		return unit / float64(-factor)
	}
}

// Range tracks the smallest and largest score seen.
type Range struct {
	Min float64
	Max float64
}

// NewRange returns an empty range.
func NewRange() Range {
	return Range{Min: math.Inf(1), Max: math.Inf(-1)}
}

// Observe widens r to include s.
func (r *Range) Observe(s float64) {
	r.Min = math.Min(r.Min, s)
	r.Max = math.Max(r.Max, s)
}

// Union widens r to include o.
func (r *Range) Union(o Range) {
	r.Min = math.Min(r.Min, o.Min)
	r.Max = math.Max(r.Max, o.Max)
}

// Empty reports whether nothing has been observed.
func (r Range) Empty() bool { return r.Min > r.Max }

// Within reports whether every observed score lies in [lo, hi].
func (r Range) Within(lo, hi float64) bool {
	return r.Empty() || (r.Min >= lo && r.Max <= hi)
}
