// Package paths converts between the absolute on-device media root and the
// root-relative paths persisted in draft records. Records never contain
// absolute paths, so the managed root can move between installs and devices
// without invalidating stored drafts.
package paths

import (
	"path/filepath"
	"strings"

	"draftstore/pkg/models"
)

// Resolver anchors conversions at a single managed root. Conversions are
// pure; malformed input is passed through unchanged rather than rejected,
// since a path the resolver does not recognize is by definition already in
// the other representation (or garbage we must not make worse).
type Resolver struct {
	root string
}

// NewResolver returns a Resolver anchored at the given managed root.
func NewResolver(root string) *Resolver {
	return &Resolver{root: filepath.Clean(root)}
}

// Root returns the managed root this resolver is anchored at.
func (r *Resolver) Root() string { return r.root }

// ToRelative strips the managed root from an absolute path. Paths outside
// the root (or already relative) are returned unchanged.
func (r *Resolver) ToRelative(abs string) string {
	if abs == "" {
		return abs
	}
	clean := filepath.Clean(abs)
	if clean == r.root {
		return ""
	}
	prefix := r.root + string(filepath.Separator)
	if strings.HasPrefix(clean, prefix) {
		return strings.TrimPrefix(clean, prefix)
	}
	return abs
}

// ToAbsolute joins a root-relative path onto the managed root. Absolute
// input is returned unchanged.
func (r *Resolver) ToAbsolute(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(r.root, rel)
}

// SegmentsToAbsolute returns a copy of segs with every path converted to its
// absolute form for runtime use.
func (r *Resolver) SegmentsToAbsolute(segs []models.Segment) []models.Segment {
	out := models.CloneSegments(segs)
	for i := range out {
		out[i].Path = r.ToAbsolute(out[i].Path)
	}
	return out
}

// SegmentsToRelative returns a copy of segs with every path converted to its
// root-relative form for persistence.
func (r *Resolver) SegmentsToRelative(segs []models.Segment) []models.Segment {
	out := models.CloneSegments(segs)
	for i := range out {
		out[i].Path = r.ToRelative(out[i].Path)
	}
	return out
}

// ReplaceDraftID rewrites the draft-id component of a root-relative media
// path from oldID to newID. The match is structural (a whole path element
// must equal oldID), not a substring substitution, so ids that happen to be
// prefixes of one another cannot mangle the path.
func ReplaceDraftID(rel, oldID, newID string) string {
	if rel == "" || oldID == "" || oldID == newID {
		return rel
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for i, p := range parts {
		if p == oldID {
			parts[i] = newID
		}
	}
	return filepath.FromSlash(strings.Join(parts, "/"))
}
