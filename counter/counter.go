// Package counter accumulates labelled scores into a 2×(R+1) histogram over
// a quantized threshold range. It is the only state an EER computation owns,
// and two counters with the same shape and bounds merge by summation.
package counter

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/jamesainslie/go-eer/label"
)

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrInvalidResolution indicates a bucket count below 1.
	ErrInvalidResolution = errors.New("counter: resolution must be positive")

	// ErrInvalidBounds indicates minval >= maxval or a non-finite bound.
	ErrInvalidBounds = errors.New("counter: invalid score bounds")

	// ErrShapeMismatch indicates counters or rows of different resolution.
	ErrShapeMismatch = errors.New("counter: shape mismatch")

	// ErrIncompatible indicates counters built over different score bounds.
	ErrIncompatible = errors.New("counter: incompatible score bounds")

	// ErrEmptyScores indicates an utterance with labels but no scores.
	ErrEmptyScores = errors.New("counter: utterance has no scores")

	// ErrLengthMismatch indicates more scores than labels under strict alignment.
	ErrLengthMismatch = errors.New("counter: more scores than labels")

	// ErrTimelineExhausted indicates a segment list ran out before the
	// utterance duration was accounted for.
	ErrTimelineExhausted = errors.New("counter: timeline exhausted")
)

// Option configures a Counter.
type Option func(*Counter)

// WithLogger sets the diagnostic logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *Counter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStrictLengths rejects utterances with more scores than labels
// instead of truncating the scores.
func WithStrictLengths() Option {
	return func(c *Counter) {
		c.strict = true
	}
}

// Counter is a weighted histogram indexed by ground-truth class and score
// bucket. It is not safe for concurrent use; give each worker its own and
// Merge them.
type Counter struct {
	resolution int
	minval     float64
	maxval     float64
	rows       [2][]float64

	logger *slog.Logger
	strict bool
}

// New returns a zero-filled counter with resolution+1 buckets spanning
// [minval, maxval].
func New(resolution int, minval, maxval float64, opts ...Option) (*Counter, error) {
	if resolution < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidResolution, resolution)
	}
	if err := checkBounds(minval, maxval); err != nil {
		return nil, err
	}
	c := &Counter{
		resolution: resolution,
		minval:     minval,
		maxval:     maxval,
		logger:     slog.Default(),
	}
	c.rows[label.Bonafide] = make([]float64, resolution+1)
	c.rows[label.Spoof] = make([]float64, resolution+1)
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FromRows rebuilds a counter from persisted rows. The resolution is implied
// by the row length.
func FromRows(bonafide, spoof []float64, minval, maxval float64, opts ...Option) (*Counter, error) {
	if len(bonafide) != len(spoof) {
		return nil, fmt.Errorf("%w: rows of %d and %d buckets", ErrShapeMismatch, len(bonafide), len(spoof))
	}
	c, err := New(len(bonafide)-1, minval, maxval, opts...)
	if err != nil {
		return nil, err
	}
	copy(c.rows[label.Bonafide], bonafide)
	copy(c.rows[label.Spoof], spoof)
	return c, nil
}

func checkBounds(minval, maxval float64) error {
	if math.IsNaN(minval) || math.IsNaN(maxval) || math.IsInf(minval, 0) || math.IsInf(maxval, 0) || minval >= maxval {
		return fmt.Errorf("%w: [%v, %v]", ErrInvalidBounds, minval, maxval)
	}
	return nil
}

// Resolution returns R; the counter has R+1 buckets per row.
func (c *Counter) Resolution() int { return c.resolution }

// Bounds returns the score range the buckets span.
func (c *Counter) Bounds() (minval, maxval float64) { return c.minval, c.maxval }

// Row returns the accumulators for class. The slice is the counter's own
// storage and must not be modified.
func (c *Counter) Row(class label.Class) []float64 { return c.rows[class] }

// Total returns the accumulated weight of class.
func (c *Counter) Total(class label.Class) float64 { return floats.Sum(c.rows[class]) }

// Mass returns the accumulated weight of both classes.
func (c *Counter) Mass() float64 {
	return c.Total(label.Bonafide) + c.Total(label.Spoof)
}

// Bucket maps a raw score to floor((s-minval)/(maxval-minval)*R), clamped to [0, R].
func (c *Counter) Bucket(score float64) int {
	x := (score - c.minval) / (c.maxval - c.minval) * float64(c.resolution)
	if !(x >= 0) {
		return 0
	}
	if x >= float64(c.resolution) {
		return c.resolution
	}
	return int(math.Floor(x))
}

// Edge returns the raw score at the lower edge of bucket i,
// i/R*(maxval-minval)+minval.
func (c *Counter) Edge(i int) float64 {
	return float64(i)/float64(c.resolution)*(c.maxval-c.minval) + c.minval
}

// Add adds weight w to bucket i of class.
func (c *Counter) Add(class label.Class, i int, w float64) {
	c.rows[class][i] += w
}

// Cumulative returns the running sums of both rows along the bucket axis.
func (c *Counter) Cumulative() [2][]float64 {
	var cum [2][]float64
	for k := range c.rows {
		cum[k] = floats.CumSum(make([]float64, len(c.rows[k])), c.rows[k])
	}
	return cum
}

// Compatible reports whether o can be merged into c.
func (c *Counter) Compatible(o *Counter) error {
	if c.resolution != o.resolution {
		return fmt.Errorf("%w: resolution %d vs %d", ErrShapeMismatch, c.resolution, o.resolution)
	}
	if c.minval != o.minval || c.maxval != o.maxval {
		return fmt.Errorf("%w: [%v, %v] vs [%v, %v]", ErrIncompatible, c.minval, c.maxval, o.minval, o.maxval)
	}
	return nil
}

// Merge adds every bucket of o into c.
func (c *Counter) Merge(o *Counter) error {
	if err := c.Compatible(o); err != nil {
		return err
	}
	floats.Add(c.rows[label.Bonafide], o.rows[label.Bonafide])
	floats.Add(c.rows[label.Spoof], o.rows[label.Spoof])
	return nil
}

// EmptyLike returns a zero-filled counter with c's shape, bounds and options.
func (c *Counter) EmptyLike() *Counter {
	e := &Counter{
		resolution: c.resolution,
		minval:     c.minval,
		maxval:     c.maxval,
		logger:     c.logger,
		strict:     c.strict,
	}
	e.rows[label.Bonafide] = make([]float64, c.resolution+1)
	e.rows[label.Spoof] = make([]float64, c.resolution+1)
	return e
}

// Clone returns a deep copy of c.
func (c *Counter) Clone() *Counter {
	e := c.EmptyLike()
	copy(e.rows[label.Bonafide], c.rows[label.Bonafide])
	copy(e.rows[label.Spoof], c.rows[label.Spoof])
	return e
}
