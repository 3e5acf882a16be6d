// Package media owns the managed directory tree under which all draft media
// lives. The tree is partitioned by draft id: <root>/<draftID>/ holds
// segment files and <root>/<draftID>/thumbnail/ the draft thumbnail.
// Records never store these locations absolutely; pkg/paths converts at the
// repository boundary.
package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"draftstore/pkg/logger"
	"draftstore/pkg/paths"
	"draftstore/pkg/telemetry"
)

// ThumbnailDirName is the per-draft subdirectory for thumbnails.
const ThumbnailDirName = "thumbnail"

// Store manages the media directory tree for all drafts.
type Store struct {
	root string
	res  *paths.Resolver
}

// NewStore creates (if needed) the managed root and returns a Store over it.
func NewStore(root string) (*Store, error) {
	clean := filepath.Clean(root)
	if err := os.MkdirAll(clean, 0o700); err != nil {
		return nil, fmt.Errorf("cannot create media root %s: %w", clean, err)
	}
	return &Store{root: clean, res: paths.NewResolver(clean)}, nil
}

// Root returns the absolute managed root.
func (s *Store) Root() string { return s.root }

// Resolver returns the path resolver anchored at this store's root.
func (s *Store) Resolver() *paths.Resolver { return s.res }

// DraftDir returns the absolute directory for a draft id.
func (s *Store) DraftDir(draftID string) string {
	return filepath.Join(s.root, draftID)
}

// ThumbnailDir returns the absolute thumbnail directory for a draft id.
func (s *Store) ThumbnailDir(draftID string) string {
	return filepath.Join(s.root, draftID, ThumbnailDirName)
}

// EnsureDraftDirs idempotently creates the directory tree for a draft id.
// Safe to call repeatedly.
func (s *Store) EnsureDraftDirs(draftID string) error {
	if draftID == "" {
		return fmt.Errorf("empty draft id")
	}
	if err := os.MkdirAll(s.ThumbnailDir(draftID), 0o700); err != nil {
		return fmt.Errorf("cannot create draft dirs for %s: %w", draftID, err)
	}
	return nil
}

// ImportSegment copies the source media file into the managed tree at the
// deterministic location derived from (draftID, segmentID), preserving the
// source extension, and returns the absolute managed path. The copy lands
// in a temp file first and is renamed into place, so the caller never
// observes a partial file at the final path.
func (s *Store) ImportSegment(draftID, sourcePath, segmentID string) (string, error) {
	if err := s.EnsureDraftDirs(draftID); err != nil {
		return "", err
	}
	dst := filepath.Join(s.DraftDir(draftID), segmentID+filepath.Ext(sourcePath))

	src, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("cannot open source %s: %w", sourcePath, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(s.DraftDir(draftID), "."+segmentID+".partial-*")
	if err != nil {
		return "", fmt.Errorf("cannot create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("copy failed for %s: %w", sourcePath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close failed for %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("rename into managed tree failed: %w", err)
	}

	telemetry.FilesImported.Inc()
	logger.Info("segment_imported", "draft", draftID, "segment", segmentID, "path", dst)
	return dst, nil
}

// WriteFile writes arbitrary bytes (imported bundle entries, thumbnails) to
// an absolute path under the managed root, creating parent directories.
func (s *Store) WriteFile(absPath string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(absPath), 0o700); err != nil {
		return fmt.Errorf("cannot create parent dir: %w", err)
	}
	if err := os.WriteFile(absPath, data, 0o600); err != nil {
		return fmt.Errorf("write failed for %s: %w", absPath, err)
	}
	return nil
}

// DeleteURIs deletes the given absolute paths best-effort. A missing file
// is not an error (delete is idempotent and re-invocable after a crash);
// any other failure is logged and does not abort the rest of the batch.
func (s *Store) DeleteURIs(absPaths []string) {
	for _, p := range absPaths {
		if p == "" {
			continue
		}
		err := os.Remove(p)
		switch {
		case err == nil:
			telemetry.FilesDeleted.Inc()
			logger.Debug("file_deleted", "path", p)
		case os.IsNotExist(err):
			// already gone; fine
		default:
			telemetry.FileDeleteFailures.Inc()
			logger.Warn("file_delete_failed", "path", p, "error", err)
		}
	}
}

// DeleteDraftTree removes a draft's whole directory, files included. Used
// when a draft is discarded outright rather than segment by segment.
func (s *Store) DeleteDraftTree(draftID string) {
	if draftID == "" {
		return
	}
	dir := s.DraftDir(draftID)
	if err := os.RemoveAll(dir); err != nil {
		telemetry.FileDeleteFailures.Inc()
		logger.Warn("draft_tree_delete_failed", "draft", draftID, "dir", dir, "error", err)
		return
	}
	logger.Info("draft_tree_deleted", "draft", draftID, "dir", dir)
}
