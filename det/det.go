// Package det derives the detection error tradeoff curve from a counter and
// locates its equal error point.
package det

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/jamesainslie/go-eer/counter"
	"github.com/jamesainslie/go-eer/internal/wire"
	"github.com/jamesainslie/go-eer/label"
)

// ErrEmptyClass indicates a counter with no bonafide or no spoof weight;
// its error rates are undefined.
var ErrEmptyClass = errors.New("det: class has no observations")

// Curve holds false positive and false negative rates per threshold bucket.
// Bucket i classifies scores in buckets <= i as bonafide.
type Curve struct {
	FPR []float64
	FNR []float64
}

// FromCounter normalizes the cumulative counter rows by their totals:
// FPR[i] = 1 - cum[bonafide][i]/total_bonafide and
// FNR[i] = cum[spoof][i]/total_spoof.
func FromCounter(c *counter.Counter) (Curve, error) {
	cum := c.Cumulative()
	last := c.Resolution()

	neg, pos := cum[label.Bonafide][last], cum[label.Spoof][last]
	if neg <= 0 {
		return Curve{}, fmt.Errorf("%w: bonafide", ErrEmptyClass)
	}
	if pos <= 0 {
		return Curve{}, fmt.Errorf("%w: spoof", ErrEmptyClass)
	}

	fpr := floats.ScaleTo(make([]float64, last+1), -1/neg, cum[label.Bonafide])
	floats.AddConst(1, fpr)
	fnr := floats.ScaleTo(make([]float64, last+1), 1/pos, cum[label.Spoof])

	return Curve{FPR: fpr, FNR: fnr}, nil
}

// Len returns the number of buckets on the curve.
func (cv Curve) Len() int { return len(cv.FPR) }

// Margins returns |FPR[i] - FNR[i]| for every bucket.
func (cv Curve) Margins() []float64 {
	m := floats.SubTo(make([]float64, len(cv.FPR)), cv.FPR, cv.FNR)
	for i, v := range m {
		m[i] = math.Abs(v)
	}
	return m
}

// Point is the bucket where the two error rates are closest.
type Point struct {
	Index  int
	EER    float64
	FPR    float64
	FNR    float64
	Margin float64
}

// Locate returns the first bucket minimizing |FPR - FNR|. The EER is the
// mean of the two rates there; Margin is the residual gap.
func Locate(cv Curve) Point {
	if cv.Len() == 0 {
		return Point{Index: -1, EER: math.NaN(), Margin: math.NaN()}
	}
	margins := cv.Margins()
	i := floats.MinIdx(margins)
	return Point{
		Index:  i,
		EER:    (cv.FPR[i] + cv.FNR[i]) / 2,
		FPR:    cv.FPR[i],
		FNR:    cv.FNR[i],
		Margin: margins[i],
	}
}

// Degenerate reports whether the curve never came within tol of crossing,
// as happens when the scores separate the classes with no overlap in
// the bucket grid or collapse into a single bucket.
func (p Point) Degenerate(tol float64) bool {
	return !(p.Margin <= tol)
}

const (
	fieldFPR = 1
	fieldFNR = 2
)

// MarshalBinary encodes the curve as two packed double fields.
func (cv Curve) MarshalBinary() ([]byte, error) {
	b := wire.AppendDoubles(nil, fieldFPR, cv.FPR)
	return wire.AppendDoubles(b, fieldFNR, cv.FNR), nil
}

// UnmarshalBinary decodes a curve written by MarshalBinary.
func (cv *Curve) UnmarshalBinary(data []byte) error {
	fields, err := wire.Fields(data)
	if err != nil {
		return fmt.Errorf("decoding curve: %w", err)
	}
	var out Curve
	for _, f := range fields {
		switch f.Num {
		case fieldFPR:
			out.FPR, err = f.Doubles()
		case fieldFNR:
			out.FNR, err = f.Doubles()
		}
		if err != nil {
			return fmt.Errorf("decoding curve: %w", err)
		}
	}
	if len(out.FPR) != len(out.FNR) {
		return fmt.Errorf("%w: %d FPR and %d FNR values", wire.ErrCorrupt, len(out.FPR), len(out.FNR))
	}
	*cv = out
	return nil
}
