// Package store is the draft repository: CRUD over draft records and the
// persisted redo slot, backed by a Pebble key-value store. Records are
// stored as JSON under namespaced string keys:
//
//	draft:<id>:meta   draft record
//	redo:slot         the single persisted redo stack
//
// Segment paths are root-relative on disk and absolute at the package
// boundary; conversion goes through the resolver bound at startup.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"

	"draftstore/pkg/logger"
	"draftstore/pkg/models"
	"draftstore/pkg/paths"
	"draftstore/pkg/telemetry"
	"draftstore/pkg/utils"
)

var (
	db     *pebble.DB
	dbPath string

	resolver *paths.Resolver
	deleter  FileDeleter
)

// FileDeleter deletes managed media files. The media store satisfies it;
// tests substitute fakes.
type FileDeleter interface {
	DeleteURIs(absPaths []string)
}

const redoKey = "redo:slot"

func draftKey(id string) []byte {
	return []byte("draft:" + id + ":meta")
}

// Open opens (or creates) a Pebble database at the given path and keeps a
// global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	dbPath = path
	logger.Info("pebble_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

// Bind wires the path resolver and the media file deleter. Must be called
// once at startup before any draft operation; DeleteDraft with
// keepFiles=false needs the deleter, everything else needs the resolver.
func Bind(res *paths.Resolver, d FileDeleter) {
	resolver = res
	deleter = d
}

// SaveOpts carries the optional fields of SaveDraft. PreferredID lets
// undo/redo and transfer reuse a prior identity so already-imported files
// stay valid; it is honored only when unoccupied.
type SaveOpts struct {
	PreferredID string
	Name        string
	Thumbnail   string
	CreatedTS   int64
	UpdatedTS   int64
	Upload      *models.UploadConfig
}

// SaveDraft creates a new draft record and returns its id.
func SaveDraft(segments []models.Segment, limitSeconds int, mode string, opts SaveOpts) (string, error) {
	if db == nil {
		return "", fmt.Errorf("pebble not opened; call store.Open first")
	}
	id := opts.PreferredID
	if id != "" {
		occupied, err := DraftExists(id)
		if err != nil {
			return "", err
		}
		if occupied {
			id = ""
		}
	}
	if id == "" {
		id = utils.GenDraftID()
	}

	now := time.Now().UTC().UnixNano()
	created := opts.CreatedTS
	if created == 0 {
		created = now
	}
	updated := opts.UpdatedTS
	if updated == 0 {
		updated = now
	}

	d := models.Draft{
		ID:                 id,
		Segments:           resolver.SegmentsToRelative(segments),
		MaxDurationSeconds: limitSeconds,
		Mode:               mode,
		Name:               opts.Name,
		Thumbnail:          resolver.ToRelative(opts.Thumbnail),
		CreatedTS:          created,
		UpdatedTS:          updated,
		Upload:             opts.Upload,
	}
	if err := putDraft(d); err != nil {
		return "", err
	}
	logger.Info("draft_saved", "draft", id, "segments", len(segments), "mode", mode)
	return id, nil
}

// UpdateDraft replaces the segment list and duration limit of an existing
// draft and bumps its last-modified timestamp. Name, thumbnail, mode and
// upload config are left untouched.
func UpdateDraft(id string, segments []models.Segment, limitSeconds int) error {
	d, err := getDraftRaw(id)
	if err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("draft not found: %s", id)
	}
	d.Segments = resolver.SegmentsToRelative(segments)
	d.MaxDurationSeconds = limitSeconds
	d.UpdatedTS = time.Now().UTC().UnixNano()
	if err := putDraft(*d); err != nil {
		return err
	}
	logger.Debug("draft_updated", "draft", id, "segments", len(segments))
	return nil
}

// UpdateDraftName sets (or clears) a draft's display name.
func UpdateDraftName(id, name string) error {
	d, err := getDraftRaw(id)
	if err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("draft not found: %s", id)
	}
	d.Name = name
	d.UpdatedTS = time.Now().UTC().UnixNano()
	return putDraft(*d)
}

// GetDraftByID returns the draft for id with absolute media paths, or nil
// when no record exists. When mode is non-empty, a record whose mode does
// not match also returns nil so capture and upload drafts cannot
// cross-contaminate id lookups.
func GetDraftByID(id, mode string) (*models.Draft, error) {
	d, err := getDraftRaw(id)
	if err != nil || d == nil {
		return nil, err
	}
	if mode != "" && d.Mode != mode {
		return nil, nil
	}
	d.Segments = resolver.SegmentsToAbsolute(d.Segments)
	d.Thumbnail = resolver.ToAbsolute(d.Thumbnail)
	return d, nil
}

// DraftExists reports whether a record exists for the given id.
func DraftExists(id string) (bool, error) {
	if db == nil {
		return false, fmt.Errorf("pebble not opened; call store.Open first")
	}
	_, closer, err := db.Get(draftKey(id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if closer != nil {
		_ = closer.Close()
	}
	return true, nil
}

// DeleteDraft removes the draft record. With keepFiles the referenced media
// files survive on disk (the undo-of-last-segment path keeps them alive for
// redo); otherwise the files referenced by the record are deleted
// best-effort after the record is gone.
func DeleteDraft(id string, keepFiles bool) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	d, err := getDraftRaw(id)
	if err != nil {
		return err
	}
	if d == nil {
		return nil
	}
	if err := db.Delete(draftKey(id), pebble.Sync); err != nil {
		logger.Error("delete_draft_failed", "draft", id, "error", err)
		return err
	}
	if !keepFiles && deleter != nil {
		var files []string
		for _, s := range d.Segments {
			files = append(files, resolver.ToAbsolute(s.Path))
		}
		if d.Thumbnail != "" {
			files = append(files, resolver.ToAbsolute(d.Thumbnail))
		}
		deleter.DeleteURIs(files)
	}
	telemetry.DraftsDeleted.WithLabelValues(fmt.Sprintf("%t", keepFiles)).Inc()
	logger.Info("draft_deleted", "draft", id, "kept_files", keepFiles)
	return nil
}

// ListDrafts returns all saved drafts with absolute media paths.
func ListDrafts() ([]models.Draft, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	prefix := []byte("draft:")
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []models.Draft
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		k := iter.Key()
		if len(k) < len(prefix) || string(k[:len(prefix)]) != string(prefix) {
			break
		}
		var d models.Draft
		if err := json.Unmarshal(iter.Value(), &d); err != nil {
			logger.Warn("skip_invalid_draft_record", "key", string(k), "error", err)
			continue
		}
		d.Segments = resolver.SegmentsToAbsolute(d.Segments)
		d.Thumbnail = resolver.ToAbsolute(d.Thumbnail)
		out = append(out, d)
	}
	return out, iter.Error()
}

// SaveRedoSlot persists the redo stack. Segment paths are stored
// root-relative like every other record.
func SaveRedoSlot(slot models.RedoSlot) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	slot.Segments = resolver.SegmentsToRelative(slot.Segments)
	data, err := json.Marshal(slot)
	if err != nil {
		return fmt.Errorf("failed to marshal redo slot: %w", err)
	}
	if err := db.Set([]byte(redoKey), data, pebble.Sync); err != nil {
		logger.Error("save_redo_slot_failed", "error", err)
		return err
	}
	logger.Debug("redo_slot_saved", "owner", slot.Owner.DraftID, "segments", len(slot.Segments))
	return nil
}

// GetRedoSlot returns the persisted redo stack with absolute paths, or nil
// when none is stored.
func GetRedoSlot() (*models.RedoSlot, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	v, closer, err := db.Get([]byte(redoKey))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	data := append([]byte(nil), v...)
	if closer != nil {
		_ = closer.Close()
	}
	var slot models.RedoSlot
	if err := json.Unmarshal(data, &slot); err != nil {
		return nil, fmt.Errorf("invalid redo slot record: %w", err)
	}
	slot.Segments = resolver.SegmentsToAbsolute(slot.Segments)
	return &slot, nil
}

// ClearRedoSlot removes the persisted redo stack. Clearing an absent slot
// is a no-op.
func ClearRedoSlot() error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	if err := db.Delete([]byte(redoKey), pebble.Sync); err != nil {
		logger.Error("clear_redo_slot_failed", "error", err)
		return err
	}
	return nil
}

func getDraftRaw(id string) (*models.Draft, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	v, closer, err := db.Get(draftKey(id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	data := append([]byte(nil), v...)
	if closer != nil {
		_ = closer.Close()
	}
	var d models.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("invalid draft record %s: %w", id, err)
	}
	return &d, nil
}

func putDraft(d models.Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	if err := db.Set(draftKey(d.ID), data, pebble.Sync); err != nil {
		logger.Error("save_draft_failed", "draft", d.ID, "error", err)
		return err
	}
	telemetry.DraftsSaved.Inc()
	return nil
}
