package session

import "errors"

var (
	// ErrNothingToUndo is returned when Undo is called on an empty draft.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrNothingToRedo is returned when Redo is called with an empty redo
	// stack.
	ErrNothingToRedo = errors.New("nothing to redo")
	// ErrLimitExceeded is returned when a mutation would push the total
	// effective duration past the draft's duration limit.
	ErrLimitExceeded = errors.New("duration limit exceeded")
	// ErrLimitBelowContent is returned when the user tries to lower the
	// duration limit below the current content total. The limit is left
	// unchanged; content is never silently truncated.
	ErrLimitBelowContent = errors.New("duration limit below current content")
	// ErrDraftNotFound is returned by Load when no draft exists for the
	// requested id within the session's mode.
	ErrDraftNotFound = errors.New("draft not found")
	// ErrSegmentIndex is returned for out-of-range segment references.
	ErrSegmentIndex = errors.New("segment index out of range")
)
