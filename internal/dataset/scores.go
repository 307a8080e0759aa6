package dataset

import (
	"bufio"
	"cmp"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/jamesainslie/go-eer/interval"
	"github.com/jamesainslie/go-eer/score"
)

// ScoreColumn is the default score column of a score file, counted from
// zero with the utterance name in column 0.
const ScoreColumn = 1

// FrameScoreColumn is the default score column of a frame score file,
// whose column 1 holds the frame index.
const FrameScoreColumn = 2

// Scores holds per-utterance score sequences in file order.
type Scores struct {
	Values map[string][]float64
	Range  score.Range
}

// ParseScores reads "name score..." lines, taking the score from column.
// Repeated names append in order. Negative flips every score to 1 - s
// before the range is tracked.
func ParseScores(r io.Reader, column int, negative bool) (*Scores, error) {
	out := &Scores{Values: make(map[string][]float64), Range: score.NewRange()}
	err := scan(r, column, func(fields []string, s float64) error {
		if negative {
			s = score.Flip(s)
		}
		out.Values[fields[0]] = append(out.Values[fields[0]], s)
		out.Range.Observe(s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadScores reads a score file.
func LoadScores(path string, column int, negative bool) (*Scores, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scores: %w", err)
	}
	defer func() { _ = f.Close() }()

	s, err := ParseScores(f, column, negative)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return s, nil
}

// Zoom resamples every sequence with score.Zoom and recomputes the range.
func (s *Scores) Zoom(factor int, negative bool) {
	s.Range = score.NewRange()
	for name, vals := range s.Values {
		z := score.Zoom(vals, factor, negative)
		for _, v := range z {
			s.Range.Observe(v)
		}
		s.Values[name] = z
	}
}

// Frames holds per-utterance scored frames ordered by frame index.
type Frames struct {
	Values map[string][]interval.Scored
	Range  score.Range
}

// ParseFrames reads "name index score..." lines. Frame i covers
// [i*unit, (i+1)*unit).
func ParseFrames(r io.Reader, column int, unit float64, negative bool) (*Frames, error) {
	if unit <= 0 {
		return nil, fmt.Errorf("%w: frame unit %v must be positive", ErrMalformed, unit)
	}
	out := &Frames{Values: make(map[string][]interval.Scored), Range: score.NewRange()}
	err := scan(r, column, func(fields []string, s float64) error {
		if len(fields) < 2 {
			return errors.New("missing frame index")
		}
		i, err := strconv.Atoi(fields[1])
		if err != nil || i < 0 {
			return fmt.Errorf("frame index %q", fields[1])
		}
		if negative {
			s = score.Flip(s)
		}
		out.Values[fields[0]] = append(out.Values[fields[0]], interval.Scored{
			Span:  interval.Span{Start: float64(i) * unit, End: float64(i+1) * unit},
			Score: s,
		})
		out.Range.Observe(s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, frames := range out.Values {
		slices.SortStableFunc(frames, func(a, b interval.Scored) int {
			return cmp.Compare(a.Start, b.Start)
		})
	}
	return out, nil
}

// LoadFrames reads a frame score file.
func LoadFrames(path string, column int, unit float64, negative bool) (*Frames, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scores: %w", err)
	}
	defer func() { _ = f.Close() }()

	fr, err := ParseFrames(f, column, unit, negative)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return fr, nil
}

// scan calls fn for every non-blank line with its fields and the float in
// column.
func scan(r io.Reader, column int, fn func(fields []string, s float64) error) error {
	if column < 1 {
		return fmt.Errorf("%w: score column %d", ErrMalformed, column)
	}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) <= column {
			return fmt.Errorf("%w: line %d has no column %d", ErrMalformed, lineNo, column)
		}
		s, err := strconv.ParseFloat(fields[column], 64)
		if err != nil {
			return fmt.Errorf("%w: line %d: score %q", ErrMalformed, lineNo, fields[column])
		}
		if err := fn(fields, s); err != nil {
			return fmt.Errorf("%w: line %d: %w", ErrMalformed, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan scores: %w", err)
	}
	return nil
}

// Match drops every utterance that is not present in both maps and
// returns how many were dropped from each side.
func Match[L, S any](logger *slog.Logger, labels map[string]L, scores map[string]S) (unscored, unlabelled int) {
	for name := range labels {
		if _, ok := scores[name]; !ok {
			logger.Debug("utterance has no scores", "utterance", name)
			delete(labels, name)
			unscored++
		}
	}
	for name := range scores {
		if _, ok := labels[name]; !ok {
			logger.Debug("utterance has no labels", "utterance", name)
			delete(scores, name)
			unlabelled++
		}
	}
	if unscored > 0 || unlabelled > 0 {
		logger.Warn("dropped unmatched utterances",
			"unscored", unscored, "unlabelled", unlabelled, "matched", len(labels))
	}
	return unscored, unlabelled
}
