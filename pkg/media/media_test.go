package media

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "media"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func writeSource(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return p
}

func TestEnsureDraftDirsIdempotent(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 3; i++ {
		if err := s.EnsureDraftDirs("draft-1"); err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
	}
	if fi, err := os.Stat(s.ThumbnailDir("draft-1")); err != nil || !fi.IsDir() {
		t.Fatalf("thumbnail dir missing: %v", err)
	}
	if err := s.EnsureDraftDirs(""); err == nil {
		t.Fatalf("empty draft id accepted")
	}
}

func TestImportSegment(t *testing.T) {
	s := newTestStore(t)
	src := writeSource(t, "clip.mp4", []byte("frames"))

	dst, err := s.ImportSegment("draft-1", src, "seg-1")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	want := filepath.Join(s.DraftDir("draft-1"), "seg-1.mp4")
	if dst != want {
		t.Fatalf("destination %q, want %q", dst, want)
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "frames" {
		t.Fatalf("managed copy wrong: %q %v", data, err)
	}
	// source stays where it was; import copies, never moves
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("source removed by import: %v", err)
	}
	// no partial temp files left behind
	entries, err := os.ReadDir(s.DraftDir("draft-1"))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "seg-1.mp4" && e.Name() != ThumbnailDirName {
			t.Fatalf("unexpected leftover %q", e.Name())
		}
	}
}

func TestImportSegmentMissingSource(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.ImportSegment("draft-1", filepath.Join(t.TempDir(), "nope.mp4"), "seg-1"); err == nil {
		t.Fatalf("expected error for missing source")
	}
}

func TestDeleteURIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	src := writeSource(t, "clip.mp4", []byte("x"))
	dst, err := s.ImportSegment("draft-1", src, "seg-1")
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	s.DeleteURIs([]string{dst, ""})
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("file not deleted: %v", err)
	}
	// deleting again must not panic or error
	s.DeleteURIs([]string{dst})
}

func TestDeleteDraftTree(t *testing.T) {
	s := newTestStore(t)
	src := writeSource(t, "clip.mp4", []byte("x"))
	if _, err := s.ImportSegment("draft-1", src, "seg-1"); err != nil {
		t.Fatalf("import: %v", err)
	}
	s.DeleteDraftTree("draft-1")
	if _, err := os.Stat(s.DraftDir("draft-1")); !os.IsNotExist(err) {
		t.Fatalf("tree still present: %v", err)
	}
	// deleting an absent tree is a no-op
	s.DeleteDraftTree("draft-1")
	s.DeleteDraftTree("")
}

func TestWriteFile(t *testing.T) {
	s := newTestStore(t)
	p := filepath.Join(s.DraftDir("draft-2"), ThumbnailDirName, "t.jpg")
	if err := s.WriteFile(p, []byte("jpeg")); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(p)
	if err != nil || string(data) != "jpeg" {
		t.Fatalf("readback: %q %v", data, err)
	}
}
