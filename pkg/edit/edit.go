// Package edit holds the pure segment arithmetic: effective (trimmed)
// duration, split, and trim validation. No I/O happens here; callers reject
// invalid edits before touching disk.
package edit

import (
	"errors"

	"draftstore/pkg/models"
	"draftstore/pkg/utils"
)

var (
	// ErrInvalidSplitPoint is returned when a split falls outside the
	// segment's playable window or too close to either boundary.
	ErrInvalidSplitPoint = errors.New("split point outside playable window")
	// ErrInvalidTrimRange is returned when trim bounds are out of order or
	// exceed the recorded duration.
	ErrInvalidTrimRange = errors.New("invalid trim range")
)

// MinSplitGapMs is the guard distance a split point must keep from either
// trim boundary. Splitting closer than this would produce a sliver no
// encoder can render.
const MinSplitGapMs = 100

// EffectiveDurationMs returns the trimmed playable length of a segment in
// milliseconds. Without trim points, or with degenerate ones (out <= in),
// it falls back to the full recorded duration.
func EffectiveDurationMs(seg models.Segment) int64 {
	in := int64(0)
	if seg.InMs != nil {
		in = *seg.InMs
	}
	out := seg.RecordedDurationMs
	if seg.OutMs != nil {
		out = *seg.OutMs
	}
	if out <= in {
		return seg.RecordedDurationMs
	}
	return out - in
}

// EffectiveDurationSeconds returns the trimmed playable length in seconds.
func EffectiveDurationSeconds(seg models.Segment) float64 {
	return float64(EffectiveDurationMs(seg)) / 1000.0
}

// TotalDurationSeconds sums the effective durations of a segment list.
func TotalDurationSeconds(segs []models.Segment) float64 {
	var total float64
	for _, s := range segs {
		total += EffectiveDurationSeconds(s)
	}
	return total
}

// Split divides a segment at splitMs (measured on the underlying file's
// timeline) into two fresh segments sharing the same media file. The sum of
// the halves' effective durations equals the original's. The split point
// must lie strictly inside the playable window, at least MinSplitGapMs from
// either boundary.
func Split(seg models.Segment, splitMs int64) (models.Segment, models.Segment, error) {
	in := int64(0)
	if seg.InMs != nil {
		in = *seg.InMs
	}
	out := seg.RecordedDurationMs
	if seg.OutMs != nil {
		out = *seg.OutMs
	}
	if splitMs < in+MinSplitGapMs || splitMs > out-MinSplitGapMs {
		return models.Segment{}, models.Segment{}, ErrInvalidSplitPoint
	}

	aIn, aOut := in, splitMs
	bIn, bOut := splitMs, out
	a := models.Segment{
		ID:                 utils.GenSegmentID(),
		Path:               seg.Path,
		RecordedDurationMs: seg.RecordedDurationMs,
		InMs:               &aIn,
		OutMs:              &aOut,
	}
	b := models.Segment{
		ID:                 utils.GenSegmentID(),
		Path:               seg.Path,
		RecordedDurationMs: seg.RecordedDurationMs,
		InMs:               &bIn,
		OutMs:              &bOut,
	}
	return a, b, nil
}

// SetTrim returns a copy of seg with the playable window set to
// [inMs, outMs). Bounds must satisfy 0 <= in < out <= recorded duration.
func SetTrim(seg models.Segment, inMs, outMs int64) (models.Segment, error) {
	if inMs < 0 || outMs <= inMs || outMs > seg.RecordedDurationMs {
		return models.Segment{}, ErrInvalidTrimRange
	}
	out := seg
	out.InMs = &inMs
	out.OutMs = &outMs
	return out, nil
}
