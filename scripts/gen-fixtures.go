//go:build ignore

// Generate synthetic partially spoofed label and score files for the eer
// commands. Each split gets a label file, utterance scores, segment scores
// at 0.16 s and frame scores at 0.02 s, plus a JSON manifest.
// Usage: go run ./scripts/gen-fixtures.go
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
)

const (
	segmentUnit = 0.16
	frameUnit   = 0.02
)

// Manifest describes the files generated for one split.
type Manifest struct {
	Name        string  `json:"name"`
	Seed        uint64  `json:"seed"`
	Utterances  int     `json:"utterances"`
	Spoofed     int     `json:"spoofed"`
	SegmentUnit float64 `json:"segment_unit"`
	FrameUnit   float64 `json:"frame_unit"`
	Labels      string  `json:"labels"`
	Utterance   string  `json:"utterance_scores"`
	Segment     string  `json:"segment_scores"`
	Frame       string  `json:"frame_scores"`
}

type span struct{ start, end float64 }

type utterance struct {
	name     string
	duration float64
	spoofs   []span
}

func main() {
	outDir := "testdata/fixtures"
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", outDir, err)
		os.Exit(1)
	}

	splits := []struct {
		name  string
		seed  uint64
		count int
	}{
		{"dev", 1, 200},
		{"eval", 2, 500},
	}

	for _, split := range splits {
		fmt.Printf("Generating %s...\n", split.name)
		m, err := generate(outDir, split.name, split.seed, split.count)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating %s: %v\n", split.name, err)
			continue
		}
		fmt.Printf("  -> %s (%d utterances, %d spoofed)\n", m.Labels, m.Utterances, m.Spoofed)
	}

	fmt.Println("\nDone! Fixture files created in testdata/fixtures/")
}

func generate(dir, name string, seed uint64, count int) (*Manifest, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	utts := make([]utterance, count)
	spoofed := 0
	for i := range utts {
		u := utterance{
			name:     fmt.Sprintf("%s_%05d", name, i),
			duration: math.Round((1+rng.Float64()*4)*100) / 100,
		}
		if rng.IntN(2) == 1 {
			start := math.Round(rng.Float64()*u.duration*0.6*100) / 100
			end := math.Min(u.duration, math.Round((start+0.3+rng.Float64()*u.duration*0.4)*100)/100)
			u.spoofs = []span{{start, end}}
			spoofed++
		}
		utts[i] = u
	}

	m := &Manifest{
		Name:        name,
		Seed:        seed,
		Utterances:  count,
		Spoofed:     spoofed,
		SegmentUnit: segmentUnit,
		FrameUnit:   frameUnit,
		Labels:      filepath.Join(dir, name+"_labels.txt"),
		Utterance:   filepath.Join(dir, name+"_utt_scores.txt"),
		Segment:     filepath.Join(dir, name+"_seg_scores.txt"),
		Frame:       filepath.Join(dir, name+"_frame_scores.txt"),
	}

	writers := []struct {
		path  string
		write func(*bufio.Writer)
	}{
		{m.Labels, func(w *bufio.Writer) { writeLabels(w, utts) }},
		{m.Utterance, func(w *bufio.Writer) { writeUtteranceScores(w, rng, utts) }},
		{m.Segment, func(w *bufio.Writer) { writeFrameScores(w, rng, utts, segmentUnit, false) }},
		{m.Frame, func(w *bufio.Writer) { writeFrameScores(w, rng, utts, frameUnit, true) }},
	}
	for _, wr := range writers {
		if err := writeFile(wr.path, wr.write); err != nil {
			return nil, err
		}
	}

	f, err := os.Create(filepath.Join(dir, name+".json"))
	if err != nil {
		return nil, fmt.Errorf("creating manifest: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return m, enc.Encode(m)
}

func writeFile(path string, fn func(*bufio.Writer)) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	fn(w)
	return w.Flush()
}

func writeLabels(w *bufio.Writer, utts []utterance) {
	for _, u := range utts {
		tag := "bonafide"
		if len(u.spoofs) > 0 {
			tag = "spoof"
		}
		var items strings.Builder
		prev := 0.0
		for _, s := range u.spoofs {
			if s.start > prev {
				fmt.Fprintf(&items, " %.2f-%.2f-bonafide", prev, s.start)
			}
			fmt.Fprintf(&items, " %.2f-%.2f-spoof", s.start, s.end)
			prev = s.end
		}
		if len(u.spoofs) > 0 && prev < u.duration {
			fmt.Fprintf(&items, " %.2f-%.2f-bonafide", prev, u.duration)
		}
		fmt.Fprintf(w, "%s %.2f %s%s\n", u.name, u.duration, tag, items.String())
	}
}

// noisy draws a score near 0.75 for spoof and 0.25 for bonafide.
func noisy(rng *rand.Rand, spoof bool) float64 {
	mean := 0.25
	if spoof {
		mean = 0.75
	}
	return math.Min(1, math.Max(0, mean+rng.NormFloat64()*0.18))
}

func writeUtteranceScores(w *bufio.Writer, rng *rand.Rand, utts []utterance) {
	for _, u := range utts {
		fmt.Fprintf(w, "%s %.6f\n", u.name, noisy(rng, len(u.spoofs) > 0))
	}
}

// writeFrameScores writes one score per unit-second window. Frame files
// carry the window index in column 1.
func writeFrameScores(w *bufio.Writer, rng *rand.Rand, utts []utterance, unit float64, indexed bool) {
	for _, u := range utts {
		n := int(math.Ceil(u.duration/unit - 1e-9))
		for i := range n {
			start, end := float64(i)*unit, math.Min(float64(i+1)*unit, u.duration)
			spoof := false
			for _, s := range u.spoofs {
				if math.Min(end, s.end)-math.Max(start, s.start) > 0.5*(end-start) {
					spoof = true
				}
			}
			if indexed {
				fmt.Fprintf(w, "%s %d %.6f\n", u.name, i, noisy(rng, spoof))
			} else {
				fmt.Fprintf(w, "%s %.6f\n", u.name, noisy(rng, spoof))
			}
		}
	}
}
