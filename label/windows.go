package label

import (
	"iter"
	"math"

	"github.com/jamesainslie/go-eer/interval"
)

// spanCursor walks an ordered span list forward exactly once across
// consecutive windows.
type spanCursor struct {
	spans []interval.Span
	idx   int
}

// cover returns the total overlap between w and the spans still ahead of the
// cursor. A span is left behind once a window ends at or past its end.
func (c *spanCursor) cover(w interval.Span) float64 {
	var area float64
	for c.idx < len(c.spans) {
		s := c.spans[c.idx]
		if w.End < s.Start {
			break
		}
		area += interval.Overlap(w, s)
		if w.End < s.End {
			break
		}
		c.idx++
	}
	return area
}

// WindowCount returns round(dur/unit), the number of analysis windows in an
// utterance of length dur. It is 0 when the count is not finite or exceeds
// math.MaxInt32.
func WindowCount(dur, unit float64) int {
	if unit <= 0 || dur <= 0 {
		return 0
	}
	n := math.Floor(dur/unit + 0.5)
	if math.IsNaN(n) || n > math.MaxInt32 {
		return 0
	}
	return int(n)
}

// Windows yields (window index, class) for each unit-length window of
// [0, dur). A window is Spoof when the fraction of it covered by spoofs
// exceeds sensitivity, so sensitivity 0 flips a window on any overlap.
// spoofs must be sorted by start time.
func Windows(spoofs []interval.Span, dur, unit, sensitivity float64) iter.Seq2[int, Class] {
	n := WindowCount(dur, unit)
	return func(yield func(int, Class) bool) {
		cur := spanCursor{spans: spoofs}
		for i := 0; i < n; i++ {
			w := interval.Span{Start: float64(i) * unit, End: float64(i+1) * unit}
			class := Bonafide
			if cur.cover(w)/unit > sensitivity {
				class = Spoof
			}
			if !yield(i, class) {
				return
			}
		}
	}
}

// Dense collects Windows into a slice.
func Dense(spoofs []interval.Span, dur, unit, sensitivity float64) []Class {
	out := make([]Class, 0, WindowCount(dur, unit))
	for _, c := range Windows(spoofs, dur, unit, sensitivity) {
		out = append(out, c)
	}
	return out
}
