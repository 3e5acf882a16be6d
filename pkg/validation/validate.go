package validation

import (
	"fmt"
	"strings"

	"draftstore/pkg/models"
)

// MaxDraftNameLen bounds user-supplied draft names. Names are display-only;
// anything longer gets rejected, not truncated.
const MaxDraftNameLen = 120

// ValidateDraftName checks a user-supplied draft name. Empty is allowed
// (it clears the name).
func ValidateDraftName(name string) error {
	if len(name) > MaxDraftNameLen {
		return fmt.Errorf("draft name exceeds %d characters", MaxDraftNameLen)
	}
	if strings.ContainsAny(name, "\x00\n\r") {
		return fmt.Errorf("draft name contains control characters")
	}
	return nil
}

// ValidateMode checks the draft origin mode tag.
func ValidateMode(mode string) error {
	switch mode {
	case models.ModeCapture, models.ModeUpload:
		return nil
	}
	return fmt.Errorf("unknown draft mode: %q", mode)
}

// ValidateSegment checks the structural fields of a segment before it is
// accepted into a draft.
func ValidateSegment(s models.Segment) error {
	var errs []string
	if s.ID == "" {
		errs = append(errs, "segment id is required")
	}
	if s.Path == "" {
		errs = append(errs, "segment path is required")
	}
	if s.RecordedDurationMs <= 0 {
		errs = append(errs, "recorded duration must be positive")
	}
	if s.InMs != nil && *s.InMs < 0 {
		errs = append(errs, "trim-in must not be negative")
	}
	if s.OutMs != nil && *s.OutMs > s.RecordedDurationMs {
		errs = append(errs, "trim-out exceeds recorded duration")
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid segment: %s", strings.Join(errs, "; "))
	}
	return nil
}
