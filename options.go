package eer

import (
	"log/slog"

	"github.com/jamesainslie/go-eer/counter"
)

const (
	// UnitResolution is the default bucket count for Compute.
	UnitResolution = 8000

	// TimelineResolution is the default bucket count for ComputeTimeline.
	TimelineResolution = 100000

	// DefaultMinval and DefaultMaxval bound the expected score range.
	DefaultMinval = -2.0
	DefaultMaxval = 2.0

	// DefaultTolerance is the largest |FPR - FNR| at the EER bucket before
	// the curve is reported as never crossing.
	DefaultTolerance = 0.05
)

// Option configures a computation.
type Option func(*config)

type config struct {
	resolution int
	minval     float64
	maxval     float64
	preloaded  *counter.Counter
	workers    int
	negative   bool
	strict     bool
	tolerance  float64
	logger     *slog.Logger
}

func defaultConfig() config {
	return config{
		minval:    DefaultMinval,
		maxval:    DefaultMaxval,
		workers:   1,
		tolerance: DefaultTolerance,
		logger:    slog.Default(),
	}
}

func newConfig(opts []Option, resolution int) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.resolution == 0 {
		cfg.resolution = resolution
	}
	return cfg
}

func (c config) counterOptions() []counter.Option {
	opts := []counter.Option{counter.WithLogger(c.logger)}
	if c.strict {
		opts = append(opts, counter.WithStrictLengths())
	}
	return opts
}

// WithResolution sets the bucket count R (default: UnitResolution for
// Compute, TimelineResolution for ComputeTimeline).
func WithResolution(r int) Option {
	return func(c *config) {
		if r > 0 {
			c.resolution = r
		}
	}
}

// WithBounds sets the score range the buckets span (default: [-2, 2]).
func WithBounds(minval, maxval float64) Option {
	return func(c *config) {
		c.minval, c.maxval = minval, maxval
	}
}

// WithCounter continues accumulating on top of a counter from an earlier
// run. Its shape and bounds must match the configured ones.
func WithCounter(pre *counter.Counter) Option {
	return func(c *config) {
		c.preloaded = pre
	}
}

// WithWorkers sets how many goroutines accumulate utterances (default: 1).
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithNegativeClass records that scores were flipped to 1 - s because the
// model scores the bonafide class. Reported thresholds are mapped back.
func WithNegativeClass() Option {
	return func(c *config) {
		c.negative = true
	}
}

// WithStrictLengths rejects utterances with more scores than labels.
func WithStrictLengths() Option {
	return func(c *config) {
		c.strict = true
	}
}

// WithTolerance sets the margin above which the EER point is flagged as
// degenerate (default: DefaultTolerance).
func WithTolerance(tol float64) Option {
	return func(c *config) {
		if tol >= 0 {
			c.tolerance = tol
		}
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
