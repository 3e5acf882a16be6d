package edit

import (
	"errors"
	"testing"

	"draftstore/pkg/models"
)

func ptr(v int64) *int64 { return &v }

func TestEffectiveDuration(t *testing.T) {
	seg := models.Segment{RecordedDurationMs: 5000}
	if got := EffectiveDurationMs(seg); got != 5000 {
		t.Fatalf("untrimmed: got %d want 5000", got)
	}

	seg.InMs = ptr(1000)
	seg.OutMs = ptr(4000)
	if got := EffectiveDurationMs(seg); got != 3000 {
		t.Fatalf("trimmed: got %d want 3000", got)
	}

	// degenerate window falls back to the recorded duration
	seg.InMs = ptr(4000)
	seg.OutMs = ptr(4000)
	if got := EffectiveDurationMs(seg); got != 5000 {
		t.Fatalf("degenerate equal bounds: got %d want 5000", got)
	}
	seg.InMs = ptr(4500)
	seg.OutMs = ptr(1000)
	if got := EffectiveDurationMs(seg); got != 5000 {
		t.Fatalf("degenerate inverted bounds: got %d want 5000", got)
	}
}

func TestTotalDurationSeconds(t *testing.T) {
	segs := []models.Segment{
		{RecordedDurationMs: 5000},
		{RecordedDurationMs: 10000, InMs: ptr(2000), OutMs: ptr(6000)},
	}
	if got := TotalDurationSeconds(segs); got != 9.0 {
		t.Fatalf("got %v want 9.0", got)
	}
}

func TestSplitPreservesDuration(t *testing.T) {
	seg := models.Segment{
		ID:                 "orig",
		Path:               "d1/s.mp4",
		RecordedDurationMs: 10000,
		InMs:               ptr(1000),
		OutMs:              ptr(9000),
	}
	a, b, err := Split(seg, 4000)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if a.Path != seg.Path || b.Path != seg.Path {
		t.Fatalf("halves must share the original file")
	}
	if a.ID == seg.ID || b.ID == seg.ID || a.ID == b.ID {
		t.Fatalf("halves must carry fresh distinct ids")
	}
	if *a.InMs != 1000 || *a.OutMs != 4000 || *b.InMs != 4000 || *b.OutMs != 9000 {
		t.Fatalf("unexpected windows: a=[%d,%d) b=[%d,%d)", *a.InMs, *a.OutMs, *b.InMs, *b.OutMs)
	}
	sum := EffectiveDurationMs(a) + EffectiveDurationMs(b)
	if sum != EffectiveDurationMs(seg) {
		t.Fatalf("duration not preserved: %d != %d", sum, EffectiveDurationMs(seg))
	}
}

func TestSplitRejectsBoundaryPoints(t *testing.T) {
	seg := models.Segment{RecordedDurationMs: 10000, InMs: ptr(1000), OutMs: ptr(9000)}
	for _, splitMs := range []int64{0, 999, 1000, 1099, 8901, 9000, 12000} {
		if _, _, err := Split(seg, splitMs); !errors.Is(err, ErrInvalidSplitPoint) {
			t.Fatalf("split at %d: got %v want ErrInvalidSplitPoint", splitMs, err)
		}
	}
	// exactly MinSplitGapMs from each boundary is allowed
	for _, splitMs := range []int64{1100, 8900} {
		if _, _, err := Split(seg, splitMs); err != nil {
			t.Fatalf("split at %d should be allowed: %v", splitMs, err)
		}
	}
}

func TestSplitUntrimmedSegment(t *testing.T) {
	seg := models.Segment{RecordedDurationMs: 5000}
	a, b, err := Split(seg, 2500)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if EffectiveDurationMs(a) != 2500 || EffectiveDurationMs(b) != 2500 {
		t.Fatalf("unexpected halves: %d / %d", EffectiveDurationMs(a), EffectiveDurationMs(b))
	}
}

func TestSetTrim(t *testing.T) {
	seg := models.Segment{RecordedDurationMs: 5000}
	got, err := SetTrim(seg, 500, 4500)
	if err != nil {
		t.Fatalf("trim failed: %v", err)
	}
	if *got.InMs != 500 || *got.OutMs != 4500 {
		t.Fatalf("unexpected window: [%d,%d)", *got.InMs, *got.OutMs)
	}
	if seg.InMs != nil {
		t.Fatalf("input segment was mutated")
	}

	cases := [][2]int64{{-1, 1000}, {1000, 1000}, {2000, 1000}, {0, 5001}}
	for _, c := range cases {
		if _, err := SetTrim(seg, c[0], c[1]); !errors.Is(err, ErrInvalidTrimRange) {
			t.Fatalf("trim [%d,%d): got %v want ErrInvalidTrimRange", c[0], c[1], err)
		}
	}
	// a window covering the whole file is valid
	if _, err := SetTrim(seg, 0, 5000); err != nil {
		t.Fatalf("full window rejected: %v", err)
	}
}
