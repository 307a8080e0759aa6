// Package plot draws the per-class score distribution of a counter.
package plot

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/jamesainslie/go-eer/counter"
	"github.com/jamesainslie/go-eer/label"
)

// Default figure size.
const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

var (
	bonafideColor = color.NRGBA{R: 31, G: 119, B: 180, A: 200}
	spoofColor    = color.NRGBA{R: 255, G: 127, B: 14, A: 200}
	eerColor      = color.RGBA{R: 220, A: 255}
	markColor     = color.Black
)

// Options controls the figure. Zero XMin and XMax fall back to the
// observed score range; zero YMax lets the axis fit the data.
type Options struct {
	XMin       float64
	XMax       float64
	YMax       float64
	Thresholds []float64
}

// Distribution plots both classes as percentage histograms over the
// counter's buckets, with a red line at eerThreshold and a black line at
// every extra threshold.
func Distribution(c *counter.Counter, eerThreshold float64, opts Options) (*plot.Plot, error) {
	if opts.XMin >= opts.XMax {
		return nil, fmt.Errorf("plot: empty x range [%v, %v]", opts.XMin, opts.XMax)
	}

	lo := max(c.Bucket(opts.XMin)-1, 0)
	hi := min(c.Bucket(opts.XMax)+1, c.Resolution())

	p := plot.New()
	p.X.Label.Text = "Score"
	p.Y.Label.Text = "Density (%)"

	ymax := opts.YMax
	for _, class := range []label.Class{label.Bonafide, label.Spoof} {
		pct, err := percentages(c, class)
		if err != nil {
			return nil, err
		}
		h := &plotter.Histogram{FillColor: bonafideColor, LineStyle: plotter.DefaultLineStyle}
		h.LineStyle.Width = vg.Points(0.2)
		if class == label.Spoof {
			h.FillColor = spoofColor
		}
		for i := lo; i <= hi; i++ {
			h.Bins = append(h.Bins, plotter.HistogramBin{Min: c.Edge(i), Max: c.Edge(i + 1), Weight: pct[i]})
		}
		p.Add(h)
		p.Legend.Add(class.String(), h)
		if opts.YMax == 0 {
			ymax = math.Max(ymax, floats.Max(pct[lo:hi+1]))
		}
	}

	for _, t := range opts.Thresholds {
		if err := mark(p, t, ymax, ymax*0.75, markColor, vg.Points(0.5)); err != nil {
			return nil, err
		}
	}
	if err := mark(p, eerThreshold, ymax, ymax*0.5, eerColor, vg.Points(1)); err != nil {
		return nil, err
	}

	p.X.Min, p.X.Max = opts.XMin, opts.XMax
	p.Y.Min = 0
	if opts.YMax > 0 {
		p.Y.Max = opts.YMax
	}
	p.Legend.Top = true
	return p, nil
}

func percentages(c *counter.Counter, class label.Class) ([]float64, error) {
	total := c.Total(class)
	if total <= 0 {
		return nil, fmt.Errorf("plot: no %s observations", class)
	}
	return floats.ScaleTo(make([]float64, c.Resolution()+1), 100/total, c.Row(class)), nil
}

// mark draws a vertical line at x from 0 to top with its value printed
// at height y.
func mark(p *plot.Plot, x, top, y float64, col color.Color, width vg.Length) error {
	line, err := plotter.NewLine(plotter.XYs{{X: x, Y: 0}, {X: x, Y: top}})
	if err != nil {
		return fmt.Errorf("plot: threshold line: %w", err)
	}
	line.Color = col
	line.Width = width
	p.Add(line)

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: x, Y: y}},
		Labels: []string{fmt.Sprintf("%.2f", x)},
	})
	if err != nil {
		return fmt.Errorf("plot: threshold label: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].Color = col
	}
	labels.Offset = vg.Point{X: vg.Points(3)}
	p.Add(labels)
	return nil
}

// Save writes p to path; the extension selects PNG, SVG or PDF.
func Save(p *plot.Plot, path string) error {
	if err := p.Save(DefaultWidth, DefaultHeight, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

// Bounds returns the x range to draw: the explicit limits when non-zero,
// otherwise the observed score range.
func Bounds(xmin, xmax, minscore, maxscore float64) (float64, float64) {
	if xmin == 0 {
		xmin = minscore
	}
	if xmax == 0 {
		xmax = maxscore
	}
	return xmin, xmax
}
