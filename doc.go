// Package eer computes the Equal Error Rate of spoof detection scores
// using a histogram-based threshold sweep.
//
// # Quick Start
//
//	labels := map[string][]label.Class{"A": {label.Bonafide}, "B": {label.Spoof}}
//	scores := map[string][]float64{"A": {-0.5}, "B": {0.5}}
//
//	res, err := eer.Compute(ctx, labels, scores, eer.WithResolution(4))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("EER: %.4f at threshold %.4f\n", res.EER, res.Threshold)
//
// # Granularity
//
// Compute counts one vote per label unit, which covers whole-utterance
// scoring (one label and one score per utterance) and fixed-window segment
// scoring (label.Dense windows against per-window scores).
// ComputeTimeline weights every reference/hypothesis overlap by its length
// in seconds for millisecond-resolution timestamps.
//
// # Histogram
//
// Scores are quantized into R+1 buckets over [minval, maxval]. The DET
// curve treats bucket i as the threshold that calls every score in buckets
// <= i bonafide. The result reports the lower edge of the EER bucket as
// Threshold and its upper edge as Cut; scores below Cut are bonafide.
//
// # Thread Safety
//
// Compute and ComputeTimeline are safe for concurrent use. WithWorkers
// spreads utterances over private counters that are summed at the end.
package eer
