// Package metrics computes accuracy, precision, recall and F1 at any
// threshold bucket of a counter.
package metrics

import (
	"errors"
	"fmt"

	"github.com/jamesainslie/go-eer/counter"
	"github.com/jamesainslie/go-eer/label"
)

// ErrTargetUnreachable indicates no bucket meets a recall or precision target.
var ErrTargetUnreachable = errors.New("metrics: target unreachable")

// Metrics holds the confusion matrix and derived rates at one bucket. Spoof
// is the positive class; scores in buckets <= Bucket are called bonafide.
type Metrics struct {
	Bucket         int
	Threshold      float64
	TruePositives  float64
	FalsePositives float64
	TrueNegatives  float64
	FalseNegatives float64
	Accuracy       float64
	Precision      float64
	Recall         float64
	F1             float64
}

// Evaluate derives the rates from a confusion matrix. Every ratio with a
// zero denominator is 0.
func Evaluate(tp, fp, tn, fn float64) Metrics {
	m := Metrics{
		TruePositives:  tp,
		FalsePositives: fp,
		TrueNegatives:  tn,
		FalseNegatives: fn,
	}

	if total := tp + fp + tn + fn; total > 0 {
		m.Accuracy = (tp + tn) / total
	}
	if tp+fp > 0 {
		m.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		m.Recall = tp / (tp + fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

// Calculator answers metric queries against one frozen counter.
type Calculator struct {
	c        *counter.Counter
	cum      [2][]float64
	bonafide float64
	spoof    float64
}

// New snapshots the cumulative sums of c. Later changes to c are not seen.
func New(c *counter.Counter) *Calculator {
	cum := c.Cumulative()
	last := c.Resolution()
	return &Calculator{
		c:        c,
		cum:      cum,
		bonafide: cum[label.Bonafide][last],
		spoof:    cum[label.Spoof][last],
	}
}

// At returns the metrics when buckets 0..i are called bonafide.
func (k *Calculator) At(i int) Metrics {
	i = max(0, min(i, k.c.Resolution()))
	tn := k.cum[label.Bonafide][i]
	fn := k.cum[label.Spoof][i]

	m := Evaluate(k.spoof-fn, k.bonafide-tn, tn, fn)
	m.Bucket = i
	m.Threshold = k.c.Edge(i)
	return m
}

// AtThreshold maps a raw score threshold to its bucket and returns At.
func (k *Calculator) AtThreshold(threshold float64) Metrics {
	m := k.At(k.c.Bucket(threshold))
	m.Threshold = threshold
	return m
}

// AtRecall returns the highest bucket whose recall still exceeds target.
// Recall never grows with the bucket index, so the scan runs upward and
// stops at the first bucket that falls to or below target.
func (k *Calculator) AtRecall(target float64) (Metrics, error) {
	found := -1
	for i := 0; i <= k.c.Resolution(); i++ {
		if k.At(i).Recall <= target {
			break
		}
		found = i
	}
	if found < 0 {
		return Metrics{}, fmt.Errorf("%w: recall > %v", ErrTargetUnreachable, target)
	}
	return k.At(found), nil
}

// AtPrecision returns the lowest bucket reached scanning downward while
// precision still exceeds target. Buckets that call nothing spoof are
// skipped since their precision is undefined.
func (k *Calculator) AtPrecision(target float64) (Metrics, error) {
	found := -1
	for i := k.c.Resolution(); i >= 0; i-- {
		m := k.At(i)
		if m.TruePositives+m.FalsePositives == 0 {
			continue
		}
		if m.Precision <= target {
			break
		}
		found = i
	}
	if found < 0 {
		return Metrics{}, fmt.Errorf("%w: precision > %v", ErrTargetUnreachable, target)
	}
	return k.At(found), nil
}
