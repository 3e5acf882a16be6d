package models

// RedoOwner identifies which draft a persisted redo stack belongs to. The
// zero value means the stack is unowned (the owning draft's record was
// deleted when its last segment was undone) and may be adopted by any
// session that loads with no bound draft.
type RedoOwner struct {
	DraftID string `json:"draft_id,omitempty"`
}

// IsNone reports whether the slot is unowned.
func (o RedoOwner) IsNone() bool { return o.DraftID == "" }

// Is reports whether the slot is owned by the given draft id.
func (o RedoOwner) Is(draftID string) bool { return o.DraftID == draftID }

// RedoSlot is the single persisted holding area for segments removed by
// Undo. Segments are stacked LIFO: the last element is the next redo
// candidate. DraftName is stashed so that redoing the only segment of a
// deleted draft reconstitutes the draft under its original name.
type RedoSlot struct {
	Owner     RedoOwner `json:"owner"`
	Segments  []Segment `json:"segments"`
	DraftName string    `json:"draft_name,omitempty"`
}
