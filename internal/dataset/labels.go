// Package dataset loads label and score files into the shapes the EER
// engine consumes.
package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/jamesainslie/go-eer/interval"
	"github.com/jamesainslie/go-eer/label"
)

// ErrMalformed indicates a line that does not follow the file format.
var ErrMalformed = errors.New("dataset: malformed line")

// Record is one line of a label file:
//
//	name duration tag [start-end-tag ...]
type Record struct {
	Name     string
	Duration float64
	Class    label.Class
	Items    []label.Segment
}

// Segments returns the record's timestamped labelling. A record without
// items is one segment of its utterance class spanning the whole duration.
func (r Record) Segments() []label.Segment {
	if len(r.Items) == 0 {
		return []label.Segment{{
			Span:  interval.Span{Start: 0, End: r.Duration},
			Class: r.Class,
		}}
	}
	return r.Items
}

// ParseLabels reads label records. Unknown tags reject the whole input.
func ParseLabels(r io.Reader) ([]Record, error) {
	var recs []Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("%w: line %d: want name, duration and tag", ErrMalformed, lineNo)
		}

		dur, err := strconv.ParseFloat(fields[1], 64)
		if err != nil || math.IsNaN(dur) || math.IsInf(dur, 0) || dur < 0 {
			return nil, fmt.Errorf("%w: line %d: duration %q", ErrMalformed, lineNo, fields[1])
		}
		class, err := label.ParseClass(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		items, err := label.ParseItems(fields[3:])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		recs = append(recs, Record{Name: fields[0], Duration: dur, Class: class, Items: items})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan labels: %w", err)
	}
	return recs, nil
}

// LoadLabels reads a label file.
func LoadLabels(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer func() { _ = f.Close() }()

	recs, err := ParseLabels(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return recs, nil
}

// UnitLabels returns per-unit labels. With unit 0 each utterance carries
// its single utterance class; otherwise the spoof items are windowed into
// unit-second segments, a window turning spoof once its spoof share
// exceeds sensitivity.
func UnitLabels(recs []Record, unit, sensitivity float64) map[string][]label.Class {
	out := make(map[string][]label.Class, len(recs))
	for _, r := range recs {
		if unit == 0 {
			out[r.Name] = []label.Class{r.Class}
			continue
		}
		spoofs := label.Spans(r.Items, label.Spoof)
		out[r.Name] = label.Dense(spoofs, r.Duration, unit, sensitivity)
	}
	return out
}

// Timestamps returns the full reference labelling of every record.
func Timestamps(recs []Record) map[string][]label.Segment {
	out := make(map[string][]label.Segment, len(recs))
	for _, r := range recs {
		out[r.Name] = r.Segments()
	}
	return out
}
