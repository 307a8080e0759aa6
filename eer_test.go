package eer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jamesainslie/go-eer/counter"
	"github.com/jamesainslie/go-eer/det"
	"github.com/jamesainslie/go-eer/interval"
	"github.com/jamesainslie/go-eer/label"
)

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// separable is two utterances whose scores fall on either side of zero.
func separable() (map[string][]label.Class, map[string][]float64) {
	return map[string][]label.Class{
			"A": {label.Bonafide},
			"B": {label.Spoof},
		}, map[string][]float64{
			"A": {-0.5},
			"B": {0.5},
		}
}

func TestCompute_Separable(t *testing.T) {
	labels, scores := separable()
	res, err := Compute(context.Background(), labels, scores, WithResolution(4), quiet())
	if err != nil {
		t.Fatalf("Compute() failed: %v", err)
	}

	if res.EER != 0 {
		t.Errorf("EER = %v, want 0", res.EER)
	}
	if res.Index != 1 {
		t.Errorf("Index = %d, want 1", res.Index)
	}
	if !approx(res.Threshold, -1.0) {
		t.Errorf("Threshold = %v, want -1.0", res.Threshold)
	}
	if !approx(res.Normalized, 0.25) {
		t.Errorf("Normalized = %v, want 0.25", res.Normalized)
	}
	if !approx(res.Cut, 0.0) {
		t.Errorf("Cut = %v, want 0.0", res.Cut)
	}
	if res.Cut <= -0.5 || res.Cut >= 0.5 {
		t.Errorf("Cut = %v, not strictly between the two scores", res.Cut)
	}
	if res.Utterances != 2 {
		t.Errorf("Utterances = %d, want 2", res.Utterances)
	}
	if res.Scores.Min != -0.5 || res.Scores.Max != 0.5 {
		t.Errorf("Scores = %+v", res.Scores)
	}

	wantRows := [][]float64{{0, 1, 0, 0, 0}, {0, 0, 1, 0, 0}}
	gotRows := [][]float64{res.Counter.Row(label.Bonafide), res.Counter.Row(label.Spoof)}
	if diff := cmp.Diff(wantRows, gotRows); diff != "" {
		t.Errorf("counter mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_NegativeClass(t *testing.T) {
	labels, scores := separable()
	res, err := Compute(context.Background(), labels, scores, WithResolution(4), WithNegativeClass(), quiet())
	if err != nil {
		t.Fatalf("Compute() failed: %v", err)
	}
	if !res.Negative {
		t.Error("expected Negative to be recorded")
	}
	if !approx(res.Threshold, 2.0) {
		t.Errorf("Threshold = %v, want 2.0", res.Threshold)
	}
	if !approx(res.Cut, 1.0) {
		t.Errorf("Cut = %v, want 1.0", res.Cut)
	}
}

func TestCompute_OutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		score float64
	}{
		{name: "above", score: 2.5},
		{name: "below", score: -3},
		{name: "nan", score: math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels := map[string][]label.Class{"A": {label.Spoof}}
			scores := map[string][]float64{"A": {tt.score}}
			_, err := Compute(context.Background(), labels, scores, quiet())
			if !errors.Is(err, ErrScoreOutOfRange) {
				t.Errorf("expected ErrScoreOutOfRange, got: %v", err)
			}
		})
	}
}

func TestCompute_StrictLengths(t *testing.T) {
	labels := map[string][]label.Class{"A": {label.Bonafide}, "B": {label.Spoof}}
	scores := map[string][]float64{"A": {-1, -1}, "B": {1}}

	if _, err := Compute(context.Background(), labels, scores, quiet()); err != nil {
		t.Fatalf("lenient Compute() failed: %v", err)
	}

	_, err := Compute(context.Background(), labels, scores, WithStrictLengths(), quiet())
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got: %v", err)
	}
}

func TestCompute_EmptyClass(t *testing.T) {
	labels := map[string][]label.Class{"A": {label.Spoof}}
	scores := map[string][]float64{"A": {0.3}}
	_, err := Compute(context.Background(), labels, scores, quiet())
	if !errors.Is(err, det.ErrEmptyClass) {
		t.Errorf("expected ErrEmptyClass, got: %v", err)
	}
}

func TestCompute_SkipsUnmatched(t *testing.T) {
	labels, scores := separable()
	labels["C"] = []label.Class{label.Spoof}
	scores["D"] = []float64{1.0}

	res, err := Compute(context.Background(), labels, scores, WithResolution(4), quiet())
	if err != nil {
		t.Fatalf("Compute() failed: %v", err)
	}
	if res.Utterances != 2 {
		t.Errorf("Utterances = %d, want 2", res.Utterances)
	}
	if res.Counter.Mass() != 2 {
		t.Errorf("Mass() = %v, want 2", res.Counter.Mass())
	}
}

func TestCompute_Canceled(t *testing.T) {
	labels, scores := separable()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		_, err := Compute(ctx, labels, scores, WithWorkers(workers), quiet())
		if !errors.Is(err, context.Canceled) {
			t.Errorf("workers=%d: expected context.Canceled, got: %v", workers, err)
		}
	}
}

// randomData draws n utterances of up to 20 units each; spoof units score
// higher on average.
func randomData(rng *rand.Rand, n int) (map[string][]label.Class, map[string][]float64, int) {
	labels := make(map[string][]label.Class, n)
	scores := make(map[string][]float64, n)
	units := 0
	for u := range n {
		key := fmt.Sprintf("utt%03d", u)
		size := 1 + rng.IntN(20)
		ls := make([]label.Class, size)
		ss := make([]float64, size)
		for i := range size {
			ls[i] = label.Class(rng.IntN(2))
			s := rng.NormFloat64()*0.6 + float64(ls[i]) - 0.5
			ss[i] = math.Max(-2, math.Min(2, s))
		}
		labels[key], scores[key] = ls, ss
		units += size
	}
	return labels, scores, units
}

func rows(c *counter.Counter) [][]float64 {
	return [][]float64{c.Row(label.Bonafide), c.Row(label.Spoof)}
}

func TestCompute_MassConservation(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	labels, scores, units := randomData(rng, 40)

	res, err := Compute(context.Background(), labels, scores, WithResolution(200), quiet())
	if err != nil {
		t.Fatalf("Compute() failed: %v", err)
	}
	if res.Counter.Mass() != float64(units) {
		t.Errorf("Mass() = %v, want %d", res.Counter.Mass(), units)
	}
	if res.EER <= 0 || res.EER >= 0.5 {
		t.Errorf("EER = %v, expected overlapping classes to give 0 < EER < 0.5", res.EER)
	}
}

func TestCompute_ParallelMatchesSerial(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	labels, scores, _ := randomData(rng, 60)

	serial, err := Compute(context.Background(), labels, scores, WithResolution(500), quiet())
	if err != nil {
		t.Fatalf("serial Compute() failed: %v", err)
	}
	parallel, err := Compute(context.Background(), labels, scores, WithResolution(500), WithWorkers(4), quiet())
	if err != nil {
		t.Fatalf("parallel Compute() failed: %v", err)
	}

	if diff := cmp.Diff(rows(serial.Counter), rows(parallel.Counter)); diff != "" {
		t.Errorf("counter mismatch (-serial +parallel):\n%s", diff)
	}
	if serial.EER != parallel.EER || serial.Index != parallel.Index {
		t.Errorf("serial (%v, %d) != parallel (%v, %d)", serial.EER, serial.Index, parallel.EER, parallel.Index)
	}
}

type run struct {
	labels map[string][]label.Class
	scores map[string][]float64
}

// split partitions the keys into two disjoint runs.
func split(labels map[string][]label.Class, scores map[string][]float64) (a, b run) {
	a = run{labels: map[string][]label.Class{}, scores: map[string][]float64{}}
	b = run{labels: map[string][]label.Class{}, scores: map[string][]float64{}}
	i := 0
	for k := range labels {
		dst := a
		if i%2 == 1 {
			dst = b
		}
		dst.labels[k], dst.scores[k] = labels[k], scores[k]
		i++
	}
	return a, b
}

func TestCombine_MatchesUnion(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	labels, scores, _ := randomData(rng, 30)
	a, b := split(labels, scores)
	ctx := context.Background()

	whole, err := Compute(ctx, labels, scores, WithResolution(100), quiet())
	if err != nil {
		t.Fatalf("Compute(all) failed: %v", err)
	}
	first, err := Compute(ctx, a.labels, a.scores, WithResolution(100), quiet())
	if err != nil {
		t.Fatalf("Compute(a) failed: %v", err)
	}
	second, err := Compute(ctx, b.labels, b.scores, WithResolution(100), quiet())
	if err != nil {
		t.Fatalf("Compute(b) failed: %v", err)
	}

	combined, err := Combine([]*Result{first, second}, quiet())
	if err != nil {
		t.Fatalf("Combine() failed: %v", err)
	}
	if diff := cmp.Diff(rows(whole.Counter), rows(combined.Counter)); diff != "" {
		t.Errorf("counter mismatch (-whole +combined):\n%s", diff)
	}
	if whole.EER != combined.EER || whole.Index != combined.Index {
		t.Errorf("whole (%v, %d) != combined (%v, %d)", whole.EER, whole.Index, combined.EER, combined.Index)
	}
	if combined.Utterances != whole.Utterances {
		t.Errorf("Utterances = %d, want %d", combined.Utterances, whole.Utterances)
	}
	if combined.Scores != whole.Scores {
		t.Errorf("Scores = %+v, want %+v", combined.Scores, whole.Scores)
	}

	// Continuing from a preloaded counter gives the same histogram.
	resumed, err := Compute(ctx, b.labels, b.scores,
		WithResolution(100), WithCounter(first.Counter), quiet())
	if err != nil {
		t.Fatalf("Compute(WithCounter) failed: %v", err)
	}
	if diff := cmp.Diff(rows(whole.Counter), rows(resumed.Counter)); diff != "" {
		t.Errorf("counter mismatch (-whole +resumed):\n%s", diff)
	}
}

func TestCombine_Incompatible(t *testing.T) {
	labels, scores := separable()
	ctx := context.Background()

	plain, err := Compute(ctx, labels, scores, WithResolution(4), quiet())
	if err != nil {
		t.Fatal(err)
	}
	negative, err := Compute(ctx, labels, scores, WithResolution(4), WithNegativeClass(), quiet())
	if err != nil {
		t.Fatal(err)
	}
	finer, err := Compute(ctx, labels, scores, WithResolution(8), quiet())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Combine(nil); !errors.Is(err, ErrNoRuns) {
		t.Errorf("expected ErrNoRuns, got: %v", err)
	}
	if _, err := Combine([]*Result{plain, negative}, quiet()); !errors.Is(err, ErrIncompatible) {
		t.Errorf("negative class: expected ErrIncompatible, got: %v", err)
	}
	_, err = Combine([]*Result{plain, finer}, quiet())
	if !errors.Is(err, ErrIncompatible) || !errors.Is(err, counter.ErrShapeMismatch) {
		t.Errorf("resolution: expected ErrIncompatible and ErrShapeMismatch, got: %v", err)
	}
}

func TestCompute_PreloadedMismatch(t *testing.T) {
	labels, scores := separable()
	pre, err := counter.New(8, -2, 2)
	if err != nil {
		t.Fatal(err)
	}
	_, err = Compute(context.Background(), labels, scores, WithResolution(4), WithCounter(pre), quiet())
	if !errors.Is(err, counter.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got: %v", err)
	}
}

func TestComputeTimeline(t *testing.T) {
	refs := map[string][]label.Segment{
		"u": {
			{Span: interval.Span{Start: 0, End: 0.5}, Class: label.Bonafide},
			{Span: interval.Span{Start: 0.5, End: 1.0}, Class: label.Spoof},
		},
	}
	hyps := map[string][]interval.Scored{
		"u": interval.Frames([]float64{-1, -1, 1, 1}, 0.25),
	}

	for _, workers := range []int{1, 2} {
		res, err := ComputeTimeline(context.Background(), refs, hyps, WithResolution(4), WithWorkers(workers), quiet())
		if err != nil {
			t.Fatalf("ComputeTimeline() failed: %v", err)
		}
		if res.EER != 0 {
			t.Errorf("EER = %v, want 0", res.EER)
		}
		if res.Index != 1 {
			t.Errorf("Index = %d, want 1", res.Index)
		}
		if !approx(res.Counter.Mass(), 1.0) {
			t.Errorf("Mass() = %v, want 1.0", res.Counter.Mass())
		}
		if !approx(res.Counter.Row(label.Bonafide)[1], 0.5) || !approx(res.Counter.Row(label.Spoof)[3], 0.5) {
			t.Errorf("rows = %v", rows(res.Counter))
		}
	}
}

func TestComputeTimeline_DefaultResolution(t *testing.T) {
	refs := map[string][]label.Segment{
		"u": {
			{Span: interval.Span{Start: 0, End: 0.5}, Class: label.Bonafide},
			{Span: interval.Span{Start: 0.5, End: 1.0}, Class: label.Spoof},
		},
	}
	hyps := map[string][]interval.Scored{"u": interval.Frames([]float64{-1, 1}, 0.5)}

	res, err := ComputeTimeline(context.Background(), refs, hyps, quiet())
	if err != nil {
		t.Fatalf("ComputeTimeline() failed: %v", err)
	}
	if got := res.Counter.Resolution(); got != TimelineResolution {
		t.Errorf("Resolution() = %d, want %d", got, TimelineResolution)
	}
}

func TestFromCounter(t *testing.T) {
	c, err := counter.FromRows([]float64{0, 1, 0, 0, 0}, []float64{0, 0, 1, 0, 0}, -2, 2)
	if err != nil {
		t.Fatal(err)
	}
	res, err := FromCounter(c, quiet())
	if err != nil {
		t.Fatalf("FromCounter() failed: %v", err)
	}
	if res.EER != 0 || res.Index != 1 {
		t.Errorf("got EER %v at %d, want 0 at 1", res.EER, res.Index)
	}
	if !res.Scores.Empty() {
		t.Errorf("Scores = %+v, want empty", res.Scores)
	}
}

func TestFromCounter_CutWithinBounds(t *testing.T) {
	tests := []struct {
		name     string
		bonafide []float64
		spoof    []float64
	}{
		{name: "all mass in top bucket", bonafide: []float64{0, 0, 0, 0, 2}, spoof: []float64{0, 0, 0, 0, 3}},
		{name: "reversed scorer", bonafide: []float64{0, 0, 0, 0, 1}, spoof: []float64{1, 0, 0, 0, 0}},
		{name: "bonafide spread", bonafide: []float64{1, 1, 1, 1, 1}, spoof: []float64{0, 0, 0, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := counter.FromRows(tt.bonafide, tt.spoof, -2, 2)
			if err != nil {
				t.Fatal(err)
			}
			res, err := FromCounter(c, quiet())
			if err != nil {
				t.Fatalf("FromCounter() failed: %v", err)
			}
			if res.Cut < -2 || res.Cut > 2 {
				t.Errorf("Cut = %v, outside [-2, 2]", res.Cut)
			}
			if res.Cut < res.Threshold {
				t.Errorf("Cut = %v below Threshold %v", res.Cut, res.Threshold)
			}
		})
	}
}
