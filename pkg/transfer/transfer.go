// Package transfer moves whole drafts in and out of the store as portable
// bundles: JSON documents embedding the draft record plus its media bytes,
// keyed by draft id. It also produces a full-root zip archive for
// diagnostics. Bundles carry only root-relative paths, so they import
// cleanly on a device with a different managed root.
package transfer

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"draftstore/pkg/logger"
	"draftstore/pkg/media"
	"draftstore/pkg/models"
	"draftstore/pkg/paths"
	"draftstore/pkg/store"
	"draftstore/pkg/utils"
)

// ErrBundleParse is returned for corrupt or unsupported bundle files.
var ErrBundleParse = errors.New("unsupported or corrupt bundle")

// BundleVersion marks the current single-draft bundle shape. Import also
// accepts version-less multi-draft maps keyed by draft id.
const BundleVersion = 1

// Bundle is the portable form of one draft: its record (root-relative
// paths) plus the raw bytes of every referenced file, keyed by relative
// path. File bytes ride through JSON as base64.
type Bundle struct {
	Version int               `json:"version"`
	Draft   models.Draft      `json:"draft"`
	Files   map[string][]byte `json:"files"`
}

// Transfer reads and writes bundles through the repository and the managed
// file store.
type Transfer struct {
	media *media.Store
}

// New returns a Transfer over the given media store.
func New(m *media.Store) *Transfer {
	return &Transfer{media: m}
}

// ExportDrafts writes the given drafts into a single multi-draft bundle
// file at outPath and returns that path. Files missing on disk are skipped
// with a log line, not treated as fatal; a draft id with no record is
// likewise skipped.
func (t *Transfer) ExportDrafts(draftIDs []string, outPath string) (string, error) {
	res := t.media.Resolver()
	bundles := make(map[string]Bundle, len(draftIDs))
	for _, id := range draftIDs {
		d, err := store.GetDraftByID(id, "")
		if err != nil {
			return "", fmt.Errorf("read draft %s: %w", id, err)
		}
		if d == nil {
			logger.Warn("export_draft_missing", "draft", id)
			continue
		}
		b := Bundle{Version: BundleVersion, Files: map[string][]byte{}}
		for _, s := range d.Segments {
			t.embedFile(&b, res, s.Path)
		}
		if d.Thumbnail != "" {
			t.embedFile(&b, res, d.Thumbnail)
		}
		// store relative paths in the bundled record
		d.Segments = res.SegmentsToRelative(d.Segments)
		d.Thumbnail = res.ToRelative(d.Thumbnail)
		b.Draft = *d
		bundles[id] = b
	}

	data, err := json.Marshal(bundles)
	if err != nil {
		return "", fmt.Errorf("marshal bundle: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o600); err != nil {
		return "", fmt.Errorf("write bundle: %w", err)
	}
	logger.Info("drafts_exported", "count", len(bundles), "path", outPath)
	return outPath, nil
}

func (t *Transfer) embedFile(b *Bundle, res *paths.Resolver, absPath string) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		logger.Warn("export_file_skipped", "path", absPath, "error", err)
		return
	}
	b.Files[res.ToRelative(absPath)] = data
}

// ImportBundle reads a bundle file and recreates every draft it contains,
// returning the ids the drafts were saved under. Two shapes are accepted: a
// legacy single-draft bundle (an object with version/draft markers) and the
// multi-draft map keyed by draft id. In a multi-draft bundle one bad entry
// is logged and skipped without blocking the rest; a corrupt single-draft
// bundle aborts the import.
func (t *Transfer) ImportBundle(bundlePath string) ([]string, error) {
	data, err := os.ReadFile(bundlePath)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBundleParse, err)
	}

	if isSingleDraftShape(raw) {
		var b Bundle
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBundleParse, err)
		}
		id, err := t.importOne(b.Draft.ID, b)
		if err != nil {
			return nil, err
		}
		return []string{id}, nil
	}

	var ids []string
	for origID, entry := range raw {
		var b Bundle
		if err := json.Unmarshal(entry, &b); err != nil {
			logger.Warn("import_entry_skipped", "draft", origID, "error", err)
			continue
		}
		id, err := t.importOne(origID, b)
		if err != nil {
			logger.Warn("import_entry_failed", "draft", origID, "error", err)
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no importable drafts", ErrBundleParse)
	}
	return ids, nil
}

// isSingleDraftShape detects the legacy one-draft bundle by its marker
// keys. A multi-draft bundle is a map of draft id to bundle and carries no
// top-level version field.
func isSingleDraftShape(raw map[string]json.RawMessage) bool {
	_, hasVersion := raw["version"]
	_, hasDraft := raw["draft"]
	return hasVersion && hasDraft
}

// importOne lands one bundled draft: directory, file bytes, then the
// record. The target id reuses the original when free; otherwise a fresh id
// is minted and every embedded path has its draft-id component rewritten. A
// single corrupt file is logged and skipped; the rest of the draft still
// imports.
func (t *Transfer) importOne(origID string, b Bundle) (string, error) {
	if origID == "" {
		origID = b.Draft.ID
	}
	if origID == "" {
		return "", fmt.Errorf("%w: bundle entry has no draft id", ErrBundleParse)
	}

	targetID := origID
	occupied, err := store.DraftExists(targetID)
	if err != nil {
		return "", err
	}
	if occupied {
		targetID = utils.GenDraftID()
	}
	if err := t.media.EnsureDraftDirs(targetID); err != nil {
		return "", err
	}

	res := t.media.Resolver()
	for rel, bytes := range b.Files {
		rewritten := paths.ReplaceDraftID(rel, origID, targetID)
		abs := res.ToAbsolute(rewritten)
		if err := t.media.WriteFile(abs, bytes); err != nil {
			logger.Warn("import_file_failed", "draft", origID, "file", rel, "error", err)
		}
	}

	segs := models.CloneSegments(b.Draft.Segments)
	for i := range segs {
		segs[i].Path = res.ToAbsolute(paths.ReplaceDraftID(segs[i].Path, origID, targetID))
	}
	thumb := ""
	if b.Draft.Thumbnail != "" {
		thumb = res.ToAbsolute(paths.ReplaceDraftID(b.Draft.Thumbnail, origID, targetID))
	}

	mode := b.Draft.Mode
	if mode == "" {
		mode = models.ModeCapture
	}
	id, err := store.SaveDraft(segs, b.Draft.MaxDurationSeconds, mode, store.SaveOpts{
		PreferredID: targetID,
		Name:        b.Draft.Name,
		Thumbnail:   thumb,
		CreatedTS:   b.Draft.CreatedTS,
		UpdatedTS:   b.Draft.UpdatedTS,
		Upload:      b.Draft.Upload,
	})
	if err != nil {
		return "", fmt.Errorf("persist imported draft: %w", err)
	}
	logger.Info("draft_imported", "original", origID, "draft", id, "segments", len(segs))
	return id, nil
}

// ExportFullBackup zips the entire managed root (every draft's files) into
// outPath for diagnostic use. An empty root yields an empty archive.
func (t *Transfer) ExportFullBackup(outPath string) (string, error) {
	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)

	root := t.media.Root()
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("backup_walk_error", "path", p, "error", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, rerr := filepath.Rel(root, p)
		if rerr != nil {
			return nil
		}
		w, werr := zw.Create(filepath.ToSlash(rel))
		if werr != nil {
			return werr
		}
		src, oerr := os.Open(p)
		if oerr != nil {
			logger.Warn("backup_file_skipped", "path", p, "error", oerr)
			return nil
		}
		defer src.Close()
		_, cerr := io.Copy(w, src)
		return cerr
	})
	if err != nil {
		_ = zw.Close()
		return "", fmt.Errorf("archive managed root: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	logger.Info("full_backup_written", "path", outPath)
	return outPath, nil
}
