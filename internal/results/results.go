// Package results persists EER runs as a directory holding result.txt,
// counter.pb and curve.pb.
package results

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jamesainslie/go-eer"
	"github.com/jamesainslie/go-eer/counter"
	"github.com/jamesainslie/go-eer/det"
	"github.com/jamesainslie/go-eer/label"
	"github.com/jamesainslie/go-eer/score"
)

// File names inside a result directory.
const (
	InfoFile    = "result.txt"
	CounterFile = "counter.pb"
	CurveFile   = "curve.pb"
)

// ErrMissingKey indicates a result.txt without a required key.
var ErrMissingKey = errors.New("results: missing key")

// Mode names the granularity a run was computed at.
type Mode string

const (
	ModeUtterance   Mode = "utterance"
	ModeSegment     Mode = "segment"
	ModeMillisecond Mode = "millisecond"
	ModeCombined    Mode = "combined"
)

// Info is the provenance recorded next to a result.
type Info struct {
	Mode        Mode
	UnitInput   float64
	UnitCal     float64
	Zoom        int
	ScoreColumn int
	LabPaths    []string
	ScoPaths    []string
	SavePath    string
}

// Run is a result plus its provenance.
type Run struct {
	Info
	Result *eer.Result
}

// Write stores run under dir, creating it if needed.
func Write(dir string, run *Run) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create result dir: %w", err)
	}

	c, err := run.Result.Counter.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode counter: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, CounterFile), c, 0o644); err != nil {
		return fmt.Errorf("write counter: %w", err)
	}

	cv, err := run.Result.Curve.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode curve: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, CurveFile), cv, 0o644); err != nil {
		return fmt.Errorf("write curve: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, InfoFile))
	if err != nil {
		return fmt.Errorf("create info: %w", err)
	}
	w := bufio.NewWriter(f)
	writeInfo(w, run)
	if err := errors.Join(w.Flush(), f.Close()); err != nil {
		return fmt.Errorf("write info: %w", err)
	}
	return nil
}

func writeInfo(w io.Writer, run *Run) {
	r := run.Result
	minval, maxval := r.Counter.Bounds()
	bonafide, spoof := r.Counter.Total(label.Bonafide), r.Counter.Total(label.Spoof)

	kv := func(key string, v any) { _, _ = fmt.Fprintf(w, "%s=%v\n", key, v) }
	num := func(key string, v float64) { kv(key, strconv.FormatFloat(v, 'g', -1, 64)) }

	kv("mode", run.Mode)
	num("eer", r.EER)
	num("threshold", r.Threshold)
	num("normalized", r.Normalized)
	num("cut", r.Cut)
	kv("index", r.Index)
	num("margin", r.Margin)
	num("fpr", r.FPR)
	num("fnr", r.FNR)
	num("unit_input", run.UnitInput)
	num("unit_cal", run.UnitCal)
	kv("zoom", run.Zoom)
	num("minscore", r.Scores.Min)
	num("maxscore", r.Scores.Max)
	num("minval", minval)
	num("maxval", maxval)
	kv("negative_class", r.Negative)
	kv("resolution", r.Counter.Resolution())
	kv("scoreindex", run.ScoreColumn)
	kv("labpath", strings.Join(run.LabPaths, ","))
	kv("scopath", strings.Join(run.ScoPaths, ","))
	kv("savepath", run.SavePath)
	kv("utterances", r.Utterances)
	num("class_0", bonafide)
	num("class_1", spoof)
	num("class_total", bonafide+spoof)
}

// Read loads a run written by Write. Keys in result.txt are matched
// case-insensitively. A missing curve.pb is rebuilt from the counter.
func Read(dir string, opts ...counter.Option) (*Run, error) {
	kv, err := readInfo(filepath.Join(dir, InfoFile))
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, CounterFile))
	if err != nil {
		return nil, fmt.Errorf("read counter: %w", err)
	}
	c, err := counter.Decode(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	if res, ok := kv["resolution"]; ok {
		n, err := strconv.Atoi(res)
		if err != nil {
			return nil, fmt.Errorf("%s: resolution %q: %w", dir, res, err)
		}
		if n != c.Resolution() {
			return nil, fmt.Errorf("%w: %s records resolution %d but counter has %d",
				counter.ErrShapeMismatch, dir, n, c.Resolution())
		}
	}

	p := parser{kv: kv}
	r := &eer.Result{
		EER:        p.float("eer", true),
		Threshold:  p.float("threshold", true),
		Normalized: p.float("normalized", false),
		Cut:        p.float("cut", false),
		Index:      p.int("index", false),
		Margin:     p.float("margin", true),
		FPR:        p.float("fpr", false),
		FNR:        p.float("fnr", false),
		Negative:   p.bool("negative_class"),
		Utterances: p.int("utterances", false),
		Scores:     score.NewRange(),
		Counter:    c,
	}
	if _, ok := kv["minscore"]; ok {
		r.Scores = score.Range{Min: p.float("minscore", false), Max: p.float("maxscore", false)}
	}
	run := &Run{
		Info: Info{
			Mode:        Mode(kv["mode"]),
			UnitInput:   p.float("unit_input", false),
			UnitCal:     p.float("unit_cal", false),
			Zoom:        p.int("zoom", false),
			ScoreColumn: p.int("scoreindex", false),
			LabPaths:    split(kv["labpath"]),
			ScoPaths:    split(kv["scopath"]),
			SavePath:    kv["savepath"],
		},
		Result: r,
	}
	if p.err != nil {
		return nil, fmt.Errorf("%s: %w", dir, p.err)
	}

	data, err = os.ReadFile(filepath.Join(dir, CurveFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
		if r.Curve, err = det.FromCounter(c); err != nil {
			return nil, fmt.Errorf("%s: %w", dir, err)
		}
	case err != nil:
		return nil, fmt.Errorf("read curve: %w", err)
	default:
		if err := r.Curve.UnmarshalBinary(data); err != nil {
			return nil, fmt.Errorf("%s: %w", dir, err)
		}
	}
	return run, nil
}

func readInfo(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open info: %w", err)
	}
	defer func() { _ = f.Close() }()

	kv := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		kv[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan info: %w", err)
	}
	return kv, nil
}

// parser converts result.txt values, keeping the first error.
type parser struct {
	kv  map[string]string
	err error
}

func (p *parser) lookup(key string, required bool) (string, bool) {
	v, ok := p.kv[key]
	if !ok && required && p.err == nil {
		p.err = fmt.Errorf("%w: %s", ErrMissingKey, key)
	}
	return v, ok
}

func (p *parser) float(key string, required bool) float64 {
	v, ok := p.lookup(key, required)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s %q: %w", key, v, err)
	}
	return f
}

func (p *parser) int(key string, required bool) int {
	v, ok := p.lookup(key, required)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s %q: %w", key, v, err)
	}
	return n
}

func (p *parser) bool(key string) bool {
	v, _ := p.lookup(key, false)
	return strings.EqualFold(v, "true")
}

func split(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
