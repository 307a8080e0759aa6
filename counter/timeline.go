package counter

import (
	"fmt"
	"math"
	"slices"

	"github.com/jamesainslie/go-eer/interval"
	"github.com/jamesainslie/go-eer/label"
)

// cursor tracks how far one side of the merge-join has been consumed and
// where its current segment ends.
type cursor struct {
	pos float64 // consumed up to here
	end float64 // end of the current segment
	idx int     // next segment to load
}

func (c *cursor) exhausted() bool { return c.pos >= c.end }

// AddTimeline adds the duration-weighted contribution of one utterance.
//
// ref is the ordered reference labelling covering [0, dur) and hyp the
// ordered hypothesis scores. The two lists are merge-joined: every slice
// between consecutive boundaries of either list adds its length in seconds
// to counter[reference class, bucket of hypothesis score].
func (c *Counter) AddTimeline(name string, ref []label.Segment, hyp []interval.Scored) error {
	if len(ref) == 0 {
		return nil
	}
	if len(hyp) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyScores, name)
	}

	dur := label.Duration(ref)
	hyp = c.fitHypothesis(name, hyp, dur)

	var (
		r, h   cursor
		class  label.Class
		bucket int
	)
	for r.pos < dur {
		for r.exhausted() {
			if r.idx >= len(ref) {
				return fmt.Errorf("%w: %s reference ends at %.3fs of %.3fs", ErrTimelineExhausted, name, r.pos, dur)
			}
			seg := ref[r.idx]
			if !seg.Class.Valid() {
				return fmt.Errorf("%w: %s segment %d has class %d", label.ErrUnknownClass, name, r.idx, seg.Class)
			}
			r.end, class = seg.End, seg.Class
			r.idx++
		}
		for h.exhausted() {
			if h.idx >= len(hyp) {
				return fmt.Errorf("%w: %s scores end at %.3fs of %.3fs", ErrTimelineExhausted, name, h.pos, dur)
			}
			seg := hyp[h.idx]
			h.end, bucket = seg.End, c.Bucket(seg.Score)
			h.idx++
		}

		next := math.Min(r.end, h.end)
		c.rows[class][bucket] += next - r.pos
		r.pos, h.pos = next, next
	}
	return nil
}

// fitHypothesis makes hyp end exactly at dur: segments starting at or past
// dur are dropped and the last segment is stretched or clipped to dur.
// The caller's slice is never modified.
func (c *Counter) fitHypothesis(name string, hyp []interval.Scored, dur float64) []interval.Scored {
	covered := interval.Covered(hyp)
	n := len(hyp)
	for n > 1 && hyp[n-1].Start >= dur {
		n--
	}
	if n == len(hyp) && covered == dur {
		return hyp
	}

	out := slices.Clone(hyp[:n])
	if covered < dur {
		c.logger.Warn("extending scores to reference duration",
			"utterance", name, "reference", dur, "scores", covered)
	} else {
		c.logger.Debug("clipping scores to reference duration",
			"utterance", name, "reference", dur, "scores", covered, "dropped", len(hyp)-n)
	}
	out[n-1].End = dur
	return out
}
