package score

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestZoom(t *testing.T) {
	tests := []struct {
		name     string
		scores   []float64
		factor   int
		negative bool
		want     []float64
	}{
		{
			name:   "pool pairs by max",
			scores: []float64{0.1, 0.9, 0.4, 0.2},
			factor: 2,
			want:   []float64{0.9, 0.4},
		},
		{
			name:     "pool pairs by min for negative class",
			scores:   []float64{0.1, 0.9, 0.4, 0.2},
			factor:   2,
			negative: true,
			want:     []float64{0.1, 0.2},
		},
		{
			name:   "pool with padded tail",
			scores: []float64{0.1, 0.9, 0.4, 0.2, 0.7},
			factor: 3,
			want:   []float64{0.9, 0.7},
		},
		{
			name:   "repeat doubles length",
			scores: []float64{0.1, 0.9, 0.4},
			factor: -2,
			want:   []float64{0.1, 0.1, 0.9, 0.9, 0.4, 0.4},
		},
		{
			name:   "whole utterance",
			scores: []float64{0.1, 0.9, 0.4},
			factor: 0,
			want:   []float64{0.9},
		},
		{
			name:   "identity",
			scores: []float64{0.1, 0.9},
			factor: 1,
			want:   []float64{0.1, 0.9},
		},
		{
			name:   "identity negative one",
			scores: []float64{0.1, 0.9},
			factor: -1,
			want:   []float64{0.1, 0.9},
		},
		{
			name:   "empty",
			factor: 2,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Zoom(tt.scores, tt.factor, tt.negative)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Zoom() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestZoom_CopiesInput(t *testing.T) {
	in := []float64{1, 2}
	out := Zoom(in, 1, false)
	out[0] = 5
	if in[0] != 1 {
		t.Error("Zoom modified its input")
	}
}

func TestUnitCal(t *testing.T) {
	tests := []struct {
		unit   float64
		factor int
		want   float64
	}{
		{unit: 0.02, factor: 0, want: 0},
		{unit: 0.02, factor: 1, want: 0.02},
		{unit: 0.02, factor: 4, want: 0.08},
		{unit: 0.16, factor: -4, want: 0.04},
	}
	for _, tt := range tests {
		if got := UnitCal(tt.unit, tt.factor); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("UnitCal(%v, %d) = %v, want %v", tt.unit, tt.factor, got, tt.want)
		}
	}
}

func TestRange(t *testing.T) {
	r := NewRange()
	if !r.Empty() {
		t.Fatal("new range should be empty")
	}
	if !r.Within(0, 1) {
		t.Error("empty range should be within any bounds")
	}
	for _, s := range []float64{0.3, -1.5, 1.2} {
		r.Observe(s)
	}
	if r.Min != -1.5 || r.Max != 1.2 {
		t.Errorf("range = %+v", r)
	}
	if !r.Within(-2, 2) {
		t.Error("expected range within [-2, 2]")
	}
	if r.Within(-1, 2) {
		t.Error("expected range outside [-1, 2]")
	}

	o := Range{Min: -3, Max: 0}
	r.Union(o)
	if r.Min != -3 || r.Max != 1.2 {
		t.Errorf("union = %+v", r)
	}
	if Flip(0.25) != 0.75 {
		t.Error("Flip(0.25) != 0.75")
	}
}
