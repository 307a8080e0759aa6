// Package label turns spoof annotations into the per-unit class sequences
// and reference timelines consumed by the counter.
package label

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jamesainslie/go-eer/interval"
)

// ErrUnknownClass is returned for a tag that is neither "spoof" nor "bonafide".
var ErrUnknownClass = errors.New("label: unknown class tag")

// Class is a ground-truth class: Bonafide (0) or Spoof (1).
type Class uint8

const (
	Bonafide Class = 0
	Spoof    Class = 1
)

func (c Class) String() string {
	switch c {
	case Bonafide:
		return "bonafide"
	case Spoof:
		return "spoof"
	default:
		return "Class(" + strconv.Itoa(int(c)) + ")"
	}
}

// Valid reports whether c is one of the two known classes.
func (c Class) Valid() bool {
	return c == Bonafide || c == Spoof
}

// ParseClass maps a "spoof" or "bonafide" tag to its Class.
func ParseClass(tag string) (Class, error) {
	switch tag {
	case "spoof":
		return Spoof, nil
	case "bonafide":
		return Bonafide, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownClass, tag)
	}
}

// Segment is a labelled span of an utterance.
type Segment struct {
	interval.Span
	Class Class
}

// ParseItem parses one "start-end-tag" annotation such as "0.00-1.25-spoof".
func ParseItem(item string) (Segment, error) {
	parts := strings.Split(item, "-")
	if len(parts) != 3 {
		return Segment{}, fmt.Errorf("malformed segment %q", item)
	}
	start, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Segment{}, fmt.Errorf("segment %q start: %w", item, err)
	}
	end, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Segment{}, fmt.Errorf("segment %q end: %w", item, err)
	}
	if !finite(start) || !finite(end) || start < 0 || end < start {
		return Segment{}, fmt.Errorf("segment %q: bounds must be finite with 0 <= start <= end", item)
	}
	class, err := ParseClass(parts[2])
	if err != nil {
		return Segment{}, err
	}
	return Segment{Span: interval.Span{Start: start, End: end}, Class: class}, nil
}

// ParseItems parses every annotation in order. Any unknown tag rejects the
// whole list, even for classes the caller later filters out.
func ParseItems(items []string) ([]Segment, error) {
	segs := make([]Segment, 0, len(items))
	for _, item := range items {
		seg, err := ParseItem(item)
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

// Spans returns the spans of segments tagged with class, preserving order.
func Spans(segs []Segment, class Class) []interval.Span {
	var out []interval.Span
	for _, s := range segs {
		if s.Class == class {
			out = append(out, s.Span)
		}
	}
	return out
}

// Duration returns the end of the last segment.
func Duration(segs []Segment) float64 {
	if len(segs) == 0 {
		return 0
	}
	return segs[len(segs)-1].End
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
