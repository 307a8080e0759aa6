// Package interval provides half-open time spans in seconds and their overlap.
package interval

import "math"

// Span is a half-open time range [Start, End) in seconds.
type Span struct {
	Start float64
	End   float64
}

// Duration returns the span length, or 0 for an inverted span.
func (s Span) Duration() float64 {
	return math.Max(0, s.End-s.Start)
}

// Overlap returns the length shared by a and b.
// Disjoint and touching spans overlap by 0.
func Overlap(a, b Span) float64 {
	return math.Max(0, math.Min(a.End, b.End)-math.Max(a.Start, b.Start))
}

// Scored is a hypothesis span carrying one model score.
type Scored struct {
	Span
	Score float64
}

// Frames turns per-frame scores into contiguous scored spans of width unit,
// frame i covering [i*unit, (i+1)*unit).
func Frames(scores []float64, unit float64) []Scored {
	out := make([]Scored, len(scores))
	for i, s := range scores {
		out[i] = Scored{
			Span:  Span{Start: float64(i) * unit, End: float64(i+1) * unit},
			Score: s,
		}
	}
	return out
}

// Covered returns the end of the last span, the duration a list of
// ordered contiguous spans covers starting from zero.
func Covered(spans []Scored) float64 {
	if len(spans) == 0 {
		return 0
	}
	return spans[len(spans)-1].End
}
