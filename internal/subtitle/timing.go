package subtitle

import (
	"fmt"
	"strings"
	"time"

	"github.com/mgpai22/lingo/internal/model"
)

const (
	DefaultMaxMergeDuration = 7 * time.Second
	OverlapGap              = 100 * time.Millisecond
	MinDuration             = time.Second
)

// MergeShort folds each following segment into the current caption while the
// caption is shorter than maxDuration, joining text and translation with a
// space and extending the end time. Input is not modified.
func MergeShort(segments []model.Segment, maxDuration time.Duration) []model.Segment {
	if len(segments) == 0 {
		return []model.Segment{}
	}
	if maxDuration <= 0 {
		maxDuration = DefaultMaxMergeDuration
	}

	merged := make([]model.Segment, 0, len(segments))
	current := clone(segments[0])
	for _, seg := range segments[1:] {
		if current.Duration() < maxDuration {
			current.End = seg.End
			current.Text = joinNonEmpty(current.Text, seg.Text)
			current.Translation = joinNonEmpty(current.Translation, seg.Translation)
			current.Words = append(current.Words, seg.Words...)
			continue
		}
		merged = append(merged, current)
		current = clone(seg)
	}
	merged = append(merged, current)

	for i := range merged {
		merged[i].ID = i
	}
	return merged
}

// FixOverlaps moves a segment that starts at or before the previous end to
// previous end + 100ms. Any segment whose end is not after its start, shifted
// or not, ends at start + 1s.
func FixOverlaps(segments []model.Segment) []model.Segment {
	fixed := make([]model.Segment, 0, len(segments))
	for i, seg := range segments {
		current := clone(seg)
		if i > 0 {
			if previous := fixed[i-1]; current.Start <= previous.End {
				current.Start = previous.End + OverlapGap
			}
		}
		if current.End <= current.Start {
			current.End = current.Start + MinDuration
		}
		fixed = append(fixed, current)
	}
	return fixed
}

// ClampToDuration drops segments starting at or after d and clips end times to d.
func ClampToDuration(segments []model.Segment, d time.Duration) []model.Segment {
	out := make([]model.Segment, 0, len(segments))
	for _, seg := range segments {
		if seg.Start >= d {
			continue
		}
		seg = clone(seg)
		if seg.End > d {
			seg.End = d
		}
		out = append(out, seg)
	}
	return out
}

// Shift adds offset (which may be negative) to every timestamp, clamping at zero.
func Shift(segments []model.Segment, offset time.Duration) []model.Segment {
	shift := func(d time.Duration) time.Duration {
		return max(0, d+offset)
	}
	out := make([]model.Segment, len(segments))
	for i, seg := range segments {
		seg = clone(seg)
		seg.Start = shift(seg.Start)
		seg.End = shift(seg.End)
		for k := range seg.Words {
			seg.Words[k].Start = shift(seg.Words[k].Start)
			seg.Words[k].End = shift(seg.Words[k].End)
		}
		out[i] = seg
	}
	return out
}

// Problem describes one timing defect found by Validate.
type Problem struct {
	Index  int
	Reason string
}

func (p Problem) String() string {
	return fmt.Sprintf("segment %d: %s", p.Index, p.Reason)
}

// Validate reports start >= end, negative timestamps and overlaps with the
// previous segment.
func Validate(segments []model.Segment) []Problem {
	var problems []Problem
	for i, seg := range segments {
		if seg.Start >= seg.End {
			problems = append(problems, Problem{i, "start >= end"})
		}
		if seg.Start < 0 || seg.End < 0 {
			problems = append(problems, Problem{i, "negative timestamp"})
		}
		if i > 0 && seg.Start < segments[i-1].End {
			problems = append(problems, Problem{i, fmt.Sprintf("overlaps segment %d", i-1)})
		}
	}
	return problems
}

func clone(seg model.Segment) model.Segment {
	if seg.Words != nil {
		seg.Words = append([]model.Word(nil), seg.Words...)
	}
	return seg
}

func joinNonEmpty(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}
