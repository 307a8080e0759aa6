package counter

import (
	"fmt"

	"github.com/jamesainslie/go-eer/label"
)

// AddUnits counts one vote per label: each score is bucketed and
// counter[label, bucket] is incremented by 1.
//
// Scores shorter than labels are padded by repeating the last score. Scores
// longer than labels are truncated, or rejected with ErrLengthMismatch under
// WithStrictLengths. Both repairs are logged against name.
func (c *Counter) AddUnits(name string, labels []label.Class, scores []float64) error {
	if len(labels) == 0 {
		return nil
	}
	if len(scores) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyScores, name)
	}

	scores, err := c.align(name, scores, len(labels))
	if err != nil {
		return err
	}

	for i, class := range labels {
		if !class.Valid() {
			return fmt.Errorf("%w: %s unit %d has class %d", label.ErrUnknownClass, name, i, class)
		}
		c.rows[class][c.Bucket(scores[i])]++
	}
	return nil
}

func (c *Counter) align(name string, scores []float64, n int) ([]float64, error) {
	switch {
	case len(scores) < n:
		c.logger.Warn("padding scores with last value",
			"utterance", name, "labels", n, "scores", len(scores))
		padded := make([]float64, n)
		copy(padded, scores)
		last := scores[len(scores)-1]
		for i := len(scores); i < n; i++ {
			padded[i] = last
		}
		return padded, nil

	case len(scores) > n:
		if c.strict {
			return nil, fmt.Errorf("%w: %s has %d labels but %d scores", ErrLengthMismatch, name, n, len(scores))
		}
		c.logger.Warn("truncating scores to label length",
			"utterance", name, "labels", n, "scores", len(scores))
		return scores[:n], nil
	}
	return scores, nil
}
