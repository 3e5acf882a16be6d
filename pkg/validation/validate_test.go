package validation

import (
	"strings"
	"testing"

	"draftstore/pkg/models"
)

func TestValidateDraftName(t *testing.T) {
	if err := ValidateDraftName(""); err != nil {
		t.Fatalf("empty name must be allowed (clears the name): %v", err)
	}
	if err := ValidateDraftName("My vacation cut"); err != nil {
		t.Fatalf("plain name rejected: %v", err)
	}
	if err := ValidateDraftName(strings.Repeat("x", MaxDraftNameLen+1)); err == nil {
		t.Fatalf("overlong name accepted")
	}
	if err := ValidateDraftName("bad\x00name"); err == nil {
		t.Fatalf("control characters accepted")
	}
}

func TestValidateMode(t *testing.T) {
	for _, mode := range []string{models.ModeCapture, models.ModeUpload} {
		if err := ValidateMode(mode); err != nil {
			t.Fatalf("mode %q rejected: %v", mode, err)
		}
	}
	for _, mode := range []string{"", "live", "CAPTURE"} {
		if err := ValidateMode(mode); err == nil {
			t.Fatalf("mode %q accepted", mode)
		}
	}
}

func TestValidateSegment(t *testing.T) {
	ok := models.Segment{ID: "s1", Path: "d1/s1.mp4", RecordedDurationMs: 1000}
	if err := ValidateSegment(ok); err != nil {
		t.Fatalf("valid segment rejected: %v", err)
	}
	bad := []models.Segment{
		{Path: "d1/s1.mp4", RecordedDurationMs: 1000},
		{ID: "s1", RecordedDurationMs: 1000},
		{ID: "s1", Path: "d1/s1.mp4"},
		{ID: "s1", Path: "d1/s1.mp4", RecordedDurationMs: -5},
	}
	for i, s := range bad {
		if err := ValidateSegment(s); err == nil {
			t.Fatalf("bad segment %d accepted", i)
		}
	}
}
