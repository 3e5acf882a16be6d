package models

// Segment is one clip reference inside a Draft: a media file plus the
// recorded duration of that file, and optional trim bounds selecting the
// playable window [InMs, OutMs) within it.
//
// Path is root-relative when persisted and absolute when handed to callers;
// the repository converts at its boundary.
type Segment struct {
	ID                 string `json:"id"`
	Path               string `json:"path"`
	RecordedDurationMs int64  `json:"recorded_duration_ms"`
	InMs               *int64 `json:"in_ms,omitempty"`
	OutMs              *int64 `json:"out_ms,omitempty"`
}

// CloneSegments returns a deep copy of the given segment list. Trim bounds
// are pointers, so a shallow copy would alias them across snapshots.
func CloneSegments(segs []Segment) []Segment {
	if segs == nil {
		return nil
	}
	out := make([]Segment, len(segs))
	for i, s := range segs {
		out[i] = s
		if s.InMs != nil {
			v := *s.InMs
			out[i].InMs = &v
		}
		if s.OutMs != nil {
			v := *s.OutMs
			out[i].OutMs = &v
		}
	}
	return out
}
