package metrics

import (
	"testing"
)

func TestSweepThresholds(t *testing.T) {
	thresholds := SweepThresholds(0.01, 0.1, 0.02)

	want := []float64{0.01, 0.03, 0.05, 0.07, 0.09}
	if len(thresholds) != len(want) {
		t.Errorf("got %d thresholds, want %d", len(thresholds), len(want))
		t.Logf("got: %v", thresholds)
		return
	}

	for i := range want {
		diff := thresholds[i] - want[i]
		if diff < -0.001 || diff > 0.001 {
			t.Errorf("threshold[%d] = %v, want %v", i, thresholds[i], want[i])
		}
	}

	if got := SweepThresholds(0, 1, 0); got != nil {
		t.Errorf("zero step = %v, want nil", got)
	}
}

func TestSweep(t *testing.T) {
	k := New(testCounter(t))
	results := k.Sweep([]float64{-1.5, -0.5, 0.5, 1.5}, DefaultWeights())
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].WeightedScore > results[i-1].WeightedScore {
			t.Errorf("results not sorted at %d", i)
		}
	}
	// -0.5 (bucket 1): P 0.8 R 1 -> 0.9; 0.5 (bucket 2): P 1 R 0.75 -> 0.875.
	if results[0].Threshold != -0.5 {
		t.Errorf("best threshold = %v, want -0.5", results[0].Threshold)
	}
}
