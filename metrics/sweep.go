package metrics

import (
	"sort"
)

// Weights balances precision against recall in SweepResult.WeightedScore.
type Weights struct {
	Precision float64
	Recall    float64
}

// DefaultWeights weighs precision and recall equally.
func DefaultWeights() Weights {
	return Weights{Precision: 1.0, Recall: 1.0}
}

// SweepResult holds metrics for one threshold value.
type SweepResult struct {
	Threshold     float64
	Metrics       Metrics
	WeightedScore float64
}

// SweepThresholds generates threshold values from min to max with given step.
func SweepThresholds(min, max, step float64) []float64 {
	if step <= 0 {
		return nil
	}
	var thresholds []float64
	for i := 0; ; i++ {
		t := min + float64(i)*step
		if t >= max {
			break
		}
		thresholds = append(thresholds, t)
	}
	return thresholds
}

// Sweep evaluates every threshold and returns results sorted by weighted
// score, best first. Equal scores keep threshold order.
func (k *Calculator) Sweep(thresholds []float64, w Weights) []SweepResult {
	results := make([]SweepResult, 0, len(thresholds))
	for _, threshold := range thresholds {
		m := k.AtThreshold(threshold)
		r := SweepResult{Threshold: threshold, Metrics: m}
		if w.Precision+w.Recall > 0 {
			r.WeightedScore = (w.Precision*m.Precision + w.Recall*m.Recall) / (w.Precision + w.Recall)
		}
		results = append(results, r)
	}

	// Sort by weighted score descending
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].WeightedScore > results[j].WeightedScore
	})
	return results
}
