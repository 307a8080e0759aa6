package eer

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/jamesainslie/go-eer/counter"
	"github.com/jamesainslie/go-eer/det"
	"github.com/jamesainslie/go-eer/interval"
	"github.com/jamesainslie/go-eer/label"
	"github.com/jamesainslie/go-eer/score"
)

// Result is the outcome of one EER computation.
type Result struct {
	// EER is the mean of FPR and FNR at the EER bucket.
	EER float64

	// Threshold is the raw score at the lower edge of the EER bucket and
	// Normalized the same point as a fraction of the score range.
	Threshold  float64
	Normalized float64

	// Cut is the upper edge of the EER bucket: scores below it are
	// classified bonafide. It is clamped to maxval for the last bucket.
	Cut float64

	Index  int
	Margin float64
	FPR    float64
	FNR    float64

	// Negative records that scores were flipped to 1 - s; Threshold and
	// Cut are already mapped back to the original score space.
	Negative bool

	Utterances int
	Scores     score.Range

	Curve   det.Curve
	Counter *counter.Counter
}

// Compute accumulates per-unit labels and scores into a histogram and
// locates the EER. Only utterances present in both maps are counted.
// Every score must lie in the configured bounds.
func Compute(ctx context.Context, labels map[string][]label.Class, scores map[string][]float64, opts ...Option) (*Result, error) {
	cfg := newConfig(opts, UnitResolution)

	keys := matchKeys(cfg.logger, labels, scores)
	observed := score.NewRange()
	for _, key := range keys {
		for _, s := range scores[key] {
			if err := cfg.check(key, s); err != nil {
				return nil, err
			}
			observed.Observe(s)
		}
	}

	c, err := accumulate(ctx, cfg, keys, func(c *counter.Counter, key string) error {
		return c.AddUnits(key, labels[key], scores[key])
	})
	if err != nil {
		return nil, err
	}

	res, err := finish(c, cfg)
	if err != nil {
		return nil, err
	}
	res.Utterances = len(keys)
	res.Scores = observed
	return res, nil
}

// ComputeTimeline accumulates duration-weighted overlaps between reference
// label segments and scored hypothesis segments, then locates the EER.
func ComputeTimeline(ctx context.Context, refs map[string][]label.Segment, hyps map[string][]interval.Scored, opts ...Option) (*Result, error) {
	cfg := newConfig(opts, TimelineResolution)

	keys := matchKeys(cfg.logger, refs, hyps)
	observed := score.NewRange()
	for _, key := range keys {
		for _, h := range hyps[key] {
			if err := cfg.check(key, h.Score); err != nil {
				return nil, err
			}
			observed.Observe(h.Score)
		}
	}

	c, err := accumulate(ctx, cfg, keys, func(c *counter.Counter, key string) error {
		return c.AddTimeline(key, refs[key], hyps[key])
	})
	if err != nil {
		return nil, err
	}

	res, err := finish(c, cfg)
	if err != nil {
		return nil, err
	}
	res.Utterances = len(keys)
	res.Scores = observed
	return res, nil
}

// FromCounter locates the EER of an already accumulated counter.
func FromCounter(c *counter.Counter, opts ...Option) (*Result, error) {
	cfg := newConfig(opts, c.Resolution())
	res, err := finish(c, cfg)
	if err != nil {
		return nil, err
	}
	res.Scores = score.NewRange()
	return res, nil
}

// Combine sums the counters of several runs and recomputes the EER.
// Runs must share resolution, bounds and the negative-class convention.
func Combine(runs []*Result, opts ...Option) (*Result, error) {
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}

	base := runs[0]
	sum := base.Counter.Clone()
	observed := base.Scores
	utterances := base.Utterances
	for i, r := range runs[1:] {
		if r.Negative != base.Negative {
			return nil, fmt.Errorf("%w: run %d negative class %t, run 0 %t", ErrIncompatible, i+1, r.Negative, base.Negative)
		}
		if err := sum.Merge(r.Counter); err != nil {
			return nil, fmt.Errorf("%w: run %d: %w", ErrIncompatible, i+1, err)
		}
		observed.Union(r.Scores)
		utterances += r.Utterances
	}

	if base.Negative {
		opts = append(slices.Clone(opts), WithNegativeClass())
	}
	res, err := FromCounter(sum, opts...)
	if err != nil {
		return nil, err
	}
	res.Scores = observed
	res.Utterances = utterances
	return res, nil
}

func (c config) check(key string, s float64) error {
	if !(s >= c.minval && s <= c.maxval) {
		return fmt.Errorf("%w: %s has score %v outside [%v, %v]", ErrScoreOutOfRange, key, s, c.minval, c.maxval)
	}
	return nil
}

// matchKeys returns the sorted keys present in both maps and warns about
// the rest.
func matchKeys[L, S any](logger *slog.Logger, labels map[string]L, scores map[string]S) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		if _, ok := scores[k]; ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	if missing := len(labels) - len(keys); missing > 0 {
		logger.Warn("labelled utterances without scores", "count", missing)
	}
	if extra := len(scores) - len(keys); extra > 0 {
		logger.Warn("scored utterances without labels", "count", extra)
	}
	return keys
}

// accumulate runs add for every key, serially or across cfg.workers
// private counters, and returns the summed counter.
func accumulate(ctx context.Context, cfg config, keys []string, add func(*counter.Counter, string) error) (*counter.Counter, error) {
	c, err := counter.New(cfg.resolution, cfg.minval, cfg.maxval, cfg.counterOptions()...)
	if err != nil {
		return nil, err
	}
	if cfg.preloaded != nil {
		if err := c.Merge(cfg.preloaded); err != nil {
			return nil, fmt.Errorf("loading counter: %w", err)
		}
	}

	cfg.logger.Info("accumulating scores",
		"utterances", len(keys), "resolution", cfg.resolution, "workers", cfg.workers)

	if cfg.workers <= 1 || len(keys) < 2 {
		for _, key := range keys {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := add(c, key); err != nil {
				return nil, err
			}
		}
		return c, nil
	}

	pool := counter.NewPool(c, cfg.workers)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)
	for _, key := range keys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			w, err := pool.Acquire(gctx)
			if err != nil {
				return err
			}
			defer pool.Release(w)
			return add(w, key)
		})
	}
	werr := g.Wait()
	sum, cerr := pool.Close()
	if werr != nil {
		return nil, werr
	}
	if cerr != nil {
		return nil, cerr
	}
	if err := c.Merge(sum); err != nil {
		return nil, err
	}
	return c, nil
}

func finish(c *counter.Counter, cfg config) (*Result, error) {
	curve, err := det.FromCounter(c)
	if err != nil {
		return nil, err
	}

	p := det.Locate(curve)
	if p.Degenerate(cfg.tolerance) {
		cfg.logger.Warn("error rates never cross",
			"bucket", p.Index, "fpr", p.FPR, "fnr", p.FNR, "margin", p.Margin)
	}

	res := &Result{
		EER:        p.EER,
		Threshold:  c.Edge(p.Index),
		Normalized: float64(p.Index) / float64(c.Resolution()),
		Cut:        c.Edge(min(p.Index+1, c.Resolution())),
		Index:      p.Index,
		Margin:     p.Margin,
		FPR:        p.FPR,
		FNR:        p.FNR,
		Negative:   cfg.negative,
		Curve:      curve,
		Counter:    c,
	}
	if cfg.negative {
		res.Threshold = score.Flip(res.Threshold)
		res.Cut = score.Flip(res.Cut)
	}
	return res, nil
}
