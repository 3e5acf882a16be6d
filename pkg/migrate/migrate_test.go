package migrate

import (
	"context"
	"path/filepath"
	"testing"

	"draftstore/pkg/paths"
	"draftstore/pkg/store"
)

type noopDeleter struct{}

func (noopDeleter) DeleteURIs([]string) {}

func openStore(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	if err := store.Open(filepath.Join(dir, "db")); err != nil {
		t.Fatalf("open: %v", err)
	}
	store.Bind(paths.NewResolver(filepath.Join(dir, "media")), noopDeleter{})
	t.Cleanup(func() { _ = store.Close() })
}

func TestRunStampsVersion(t *testing.T) {
	openStore(t)

	invoked, err := Run(context.Background(), "1.0.0")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if !invoked {
		t.Fatalf("fresh database must trigger a sync")
	}
	if v, _ := store.GetKey(systemVersionKey); v != "1.0.0" {
		t.Fatalf("version not stamped: %q", v)
	}
	if v, _ := store.GetKey(systemInProgressKey); v != "" {
		t.Fatalf("in-progress marker left behind: %q", v)
	}

	invoked, err = Run(context.Background(), "1.0.0")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if invoked {
		t.Fatalf("matching version must be a no-op")
	}

	invoked, err = Run(context.Background(), "1.1.0")
	if err != nil || !invoked {
		t.Fatalf("upgrade run: invoked=%v err=%v", invoked, err)
	}
	if v, _ := store.GetKey(systemVersionKey); v != "1.1.0" {
		t.Fatalf("version not bumped: %q", v)
	}
}
