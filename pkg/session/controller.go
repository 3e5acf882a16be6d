// Package session is the orchestrating state machine over one draft: append
// of newly recorded or imported clips, undo/redo, split/trim/reorder,
// duration-limit changes, debounced autosave and close-time cleanup. A
// Controller serves a single logical session; callers serialize operations
// (one user action at a time), and the only background activity is the
// autosave flush, which the controller's mutex and watermark make safe.
package session

import (
	"fmt"
	"sync"
	"time"

	"draftstore/pkg/edit"
	"draftstore/pkg/logger"
	"draftstore/pkg/media"
	"draftstore/pkg/models"
	"draftstore/pkg/store"
	"draftstore/pkg/telemetry"
	"draftstore/pkg/utils"
	"draftstore/pkg/validation"
)

// DefaultAutosaveQuiet is the debounce quiet period for autosave passes.
const DefaultAutosaveQuiet = time.Second

// Options configures a new session controller.
type Options struct {
	// Mode scopes the session to capture or upload drafts.
	Mode string
	// LimitSeconds is the initial duration ceiling for a fresh draft; a
	// loaded draft's persisted limit overrides it.
	LimitSeconds int
	// Upload carries the remote destination for upload-mode sessions.
	Upload *models.UploadConfig
	// AutosaveQuiet overrides DefaultAutosaveQuiet when positive.
	AutosaveQuiet time.Duration
}

// Controller is the draft session state machine.
type Controller struct {
	mu    sync.Mutex
	media *media.Store

	mode         string
	limitSeconds int
	upload       *models.UploadConfig

	segments  []models.Segment // absolute paths
	draftID   string
	draftName string

	redo          []models.Segment
	redoOwner     models.RedoOwner
	redoName      string
	redoPersisted bool

	hasStartedOver  bool
	pendingDeleteID string
	// preferredID is reused as the draft identity on the next save so
	// already-imported files under that id's directory stay valid.
	// StartNew clears it to force a fresh id.
	preferredID string

	// watermark is the segment count last persisted; a debounced autosave
	// pass is a no-op unless the live count exceeds it, so a stale timer
	// can never resurrect state that an Undo already rolled back.
	watermark int

	sched  *autosave
	closed bool
}

// New creates a controller over the given media store.
func New(m *media.Store, opts Options) (*Controller, error) {
	if err := validation.ValidateMode(opts.Mode); err != nil {
		return nil, err
	}
	quiet := opts.AutosaveQuiet
	if quiet <= 0 {
		quiet = DefaultAutosaveQuiet
	}
	c := &Controller{
		media:        m,
		mode:         opts.Mode,
		limitSeconds: opts.LimitSeconds,
		upload:       opts.Upload,
	}
	c.sched = newAutosave(quiet, c.autosaveFlush)
	return c, nil
}

// Load initializes the session. With a draft id the draft is loaded scoped
// by mode, and a persisted redo slot is adopted only when it is unowned or
// owned by that draft. With an empty id the session starts empty and adopts
// any persisted redo slot, which is how a draft whose last segment was
// undone in a previous process comes back redo-able.
func (c *Controller) Load(draftID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if draftID != "" {
		d, err := store.GetDraftByID(draftID, c.mode)
		if err != nil {
			return fmt.Errorf("load draft: %w", err)
		}
		if d == nil {
			return ErrDraftNotFound
		}
		c.segments = d.Segments
		c.draftID = d.ID
		c.draftName = d.Name
		c.limitSeconds = d.MaxDurationSeconds
		if d.Upload != nil {
			c.upload = d.Upload
		}
		c.watermark = len(c.segments)
	}

	slot, err := store.GetRedoSlot()
	if err != nil {
		logger.Warn("redo_slot_load_failed", "error", err)
		return nil
	}
	if slot == nil {
		return nil
	}
	if draftID != "" && !slot.Owner.IsNone() && !slot.Owner.Is(draftID) {
		// Someone else's history; leave it on disk, do not adopt.
		logger.Debug("redo_slot_foreign", "owner", slot.Owner.DraftID, "loaded", draftID)
		return nil
	}
	c.redo = slot.Segments
	c.redoOwner = slot.Owner
	c.redoName = slot.DraftName
	c.redoPersisted = true
	if c.draftID == "" && !slot.Owner.IsNone() {
		c.preferredID = slot.Owner.DraftID
		c.draftName = slot.DraftName
	}
	return nil
}

// Append imports a newly recorded or selected clip and appends it to the
// draft. On success any redo history is invalidated: the persisted slot is
// cleared after the new draft record is durably saved, and only then are
// the files referenced solely by discarded redo entries deleted. On import
// or persistence failure the in-memory state is unchanged.
func (c *Controller) Append(sourcePath string, recordedMs int64) (models.Segment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if recordedMs <= 0 {
		return models.Segment{}, fmt.Errorf("recorded duration must be positive")
	}
	if edit.TotalDurationSeconds(c.segments)+float64(recordedMs)/1000.0 > float64(c.limitSeconds) {
		return models.Segment{}, ErrLimitExceeded
	}

	id := c.draftID
	if id == "" {
		id = c.preferredID
		if id == "" {
			id = utils.GenDraftID()
		}
	}
	if err := c.media.EnsureDraftDirs(id); err != nil {
		return models.Segment{}, fmt.Errorf("import segment: %w", err)
	}
	segID := utils.GenSegmentID()
	abs, err := c.media.ImportSegment(id, sourcePath, segID)
	if err != nil {
		return models.Segment{}, fmt.Errorf("import segment: %w", err)
	}
	seg := models.Segment{ID: segID, Path: abs, RecordedDurationMs: recordedMs}

	newSegs := append(models.CloneSegments(c.segments), seg)
	if c.draftID == "" {
		// A preferred id whose record still exists means we are replacing
		// that draft's content in place (the start-over path keeps the
		// record alive until close); anything else is a create.
		occupied := false
		if id == c.preferredID && id != "" {
			var err error
			occupied, err = store.DraftExists(id)
			if err != nil {
				c.media.DeleteURIs([]string{abs})
				return models.Segment{}, fmt.Errorf("persist draft: %w", err)
			}
		}
		if occupied {
			if err := store.UpdateDraft(id, newSegs, c.limitSeconds); err != nil {
				c.media.DeleteURIs([]string{abs})
				return models.Segment{}, fmt.Errorf("persist draft: %w", err)
			}
			c.draftID = id
		} else {
			savedID, err := store.SaveDraft(newSegs, c.limitSeconds, c.mode, store.SaveOpts{
				PreferredID: id,
				Name:        c.draftName,
				Upload:      c.upload,
			})
			if err != nil {
				c.media.DeleteURIs([]string{abs})
				return models.Segment{}, fmt.Errorf("persist draft: %w", err)
			}
			c.draftID = savedID
		}
	} else {
		if err := store.UpdateDraft(c.draftID, newSegs, c.limitSeconds); err != nil {
			c.media.DeleteURIs([]string{abs})
			return models.Segment{}, fmt.Errorf("persist draft: %w", err)
		}
	}
	c.segments = newSegs

	// New data invalidates redo history. The record above is already
	// durable, so a crash from here on leaves at worst extra files on
	// disk, never a dangling reference.
	c.drainRedoLocked()

	c.preferredID = ""
	c.hasStartedOver = false
	c.pendingDeleteID = ""
	c.watermark = len(c.segments)
	c.sched.Schedule()
	return seg, nil
}

// drainRedoLocked clears the redo stack and deletes files referenced only
// by discarded redo entries. Files shared with the live segment list are
// never touched.
func (c *Controller) drainRedoLocked() {
	if len(c.redo) == 0 && !c.redoPersisted {
		return
	}
	if err := store.ClearRedoSlot(); err != nil {
		logger.Warn("redo_slot_clear_failed", "error", err)
	}
	live := make(map[string]struct{}, len(c.segments))
	for _, s := range c.segments {
		live[s.Path] = struct{}{}
	}
	var stale []string
	seen := make(map[string]struct{})
	for _, s := range c.redo {
		if _, ok := live[s.Path]; ok {
			continue
		}
		if _, ok := seen[s.Path]; ok {
			continue
		}
		seen[s.Path] = struct{}{}
		stale = append(stale, s.Path)
	}
	c.media.DeleteURIs(stale)
	c.redo = nil
	c.redoOwner = models.RedoOwner{}
	c.redoName = ""
	c.redoPersisted = false
}

// Undo removes the last segment into the redo stack. Undoing the only
// segment deletes the draft record but keeps its files on disk and persists
// the redo slot tagged with the draft's id and name, so Redo can
// reconstitute the draft even across a restart. Persistence failures leave
// the in-memory state exactly as before.
func (c *Controller) Undo() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.segments) == 0 {
		return ErrNothingToUndo
	}
	last := c.segments[len(c.segments)-1]
	newSegs := models.CloneSegments(c.segments[:len(c.segments)-1])
	newRedo := append(models.CloneSegments(c.redo), last)

	if len(newSegs) == 0 {
		slot := models.RedoSlot{
			Owner:     models.RedoOwner{DraftID: c.draftID},
			Segments:  newRedo,
			DraftName: c.draftName,
		}
		if err := store.SaveRedoSlot(slot); err != nil {
			return fmt.Errorf("persist redo slot: %w", err)
		}
		if err := store.DeleteDraft(c.draftID, true); err != nil {
			if !c.redoPersisted {
				_ = store.ClearRedoSlot()
			}
			return fmt.Errorf("delete drained draft: %w", err)
		}
		c.redoOwner = slot.Owner
		c.redoName = c.draftName
		c.redoPersisted = true
		c.preferredID = c.draftID
		c.draftID = ""
	} else {
		if err := store.UpdateDraft(c.draftID, newSegs, c.limitSeconds); err != nil {
			return fmt.Errorf("persist draft: %w", err)
		}
		if c.redoPersisted {
			slot := models.RedoSlot{Owner: c.redoOwner, Segments: newRedo, DraftName: c.redoName}
			if err := store.SaveRedoSlot(slot); err != nil {
				logger.Warn("redo_slot_update_failed", "error", err)
			}
		}
	}

	c.segments = newSegs
	c.redo = newRedo
	c.watermark = len(c.segments)
	c.sched.Schedule()
	return nil
}

// Redo re-appends the most recently undone segment. When no draft is bound
// the draft is re-created under the id and name stashed in the redo slot,
// so the already-imported files remain valid. Persistence failures leave
// the in-memory state unchanged.
func (c *Controller) Redo() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.redo) == 0 {
		return ErrNothingToRedo
	}
	entry := c.redo[len(c.redo)-1]
	newRedo := models.CloneSegments(c.redo[:len(c.redo)-1])
	newSegs := append(models.CloneSegments(c.segments), entry)

	if c.draftID == "" {
		name := c.redoName
		if name == "" {
			name = c.draftName
		}
		id, err := store.SaveDraft(newSegs, c.limitSeconds, c.mode, store.SaveOpts{
			PreferredID: c.redoOwner.DraftID,
			Name:        name,
			Upload:      c.upload,
		})
		if err != nil {
			return fmt.Errorf("persist draft: %w", err)
		}
		c.draftID = id
		c.draftName = name
	} else {
		if err := store.UpdateDraft(c.draftID, newSegs, c.limitSeconds); err != nil {
			return fmt.Errorf("persist draft: %w", err)
		}
	}

	if c.redoPersisted {
		if len(newRedo) == 0 {
			if err := store.ClearRedoSlot(); err != nil {
				logger.Warn("redo_slot_clear_failed", "error", err)
			}
			c.redoPersisted = false
		} else {
			slot := models.RedoSlot{Owner: c.redoOwner, Segments: newRedo, DraftName: c.redoName}
			if err := store.SaveRedoSlot(slot); err != nil {
				logger.Warn("redo_slot_update_failed", "error", err)
			}
		}
	}

	c.segments = newSegs
	c.redo = newRedo
	c.preferredID = ""
	c.watermark = len(c.segments)
	c.sched.Schedule()
	return nil
}

// StartOver clears the session and marks the delete-on-close intent: a
// subsequent Close with zero segments removes the whole draft, files
// included. The draft record itself survives until that Close.
func (c *Controller) StartOver() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasStartedOver = true
	c.pendingDeleteID = c.draftID
	c.preferredID = c.draftID
	name := c.draftName
	c.resetContentLocked()
	c.draftName = name
}

// StartNew clears the session without the delete-on-close intent and forces
// the next Append to mint a fresh draft id.
func (c *Controller) StartNew() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasStartedOver = false
	c.pendingDeleteID = ""
	c.preferredID = ""
	c.resetContentLocked()
}

func (c *Controller) resetContentLocked() {
	c.segments = nil
	c.draftID = ""
	c.draftName = ""
	if c.redoPersisted {
		if err := store.ClearRedoSlot(); err != nil {
			logger.Warn("redo_slot_clear_failed", "error", err)
		}
	}
	c.redo = nil
	c.redoOwner = models.RedoOwner{}
	c.redoName = ""
	c.redoPersisted = false
	c.watermark = 0
}

// ChangeDurationLimit sets a new duration ceiling. Lowering the limit below
// the current content total is rejected with no state change; content is
// never truncated to fit.
func (c *Controller) ChangeDurationLimit(newLimit int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if newLimit <= 0 {
		return fmt.Errorf("duration limit must be positive")
	}
	if edit.TotalDurationSeconds(c.segments) > float64(newLimit) {
		return ErrLimitBelowContent
	}
	old := c.limitSeconds
	c.limitSeconds = newLimit
	if c.draftID != "" {
		if err := store.UpdateDraft(c.draftID, c.segments, newLimit); err != nil {
			c.limitSeconds = old
			return fmt.Errorf("persist draft: %w", err)
		}
	}
	return nil
}

// SplitSegment splits the segment at index in two at splitMs (on the
// underlying file's timeline). The redo stack is NOT discarded: split adds
// no new data, so prior redo history stays valid until the next Append.
func (c *Controller) SplitSegment(index int, splitMs int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.segments) {
		return ErrSegmentIndex
	}
	a, b, err := edit.Split(c.segments[index], splitMs)
	if err != nil {
		return err
	}
	newSegs := models.CloneSegments(c.segments)
	newSegs = append(newSegs[:index], append([]models.Segment{a, b}, newSegs[index+1:]...)...)

	if err := store.UpdateDraft(c.draftID, newSegs, c.limitSeconds); err != nil {
		return fmt.Errorf("persist draft: %w", err)
	}
	c.segments = newSegs
	c.watermark = len(c.segments)
	return nil
}

// TrimSegment sets the playable window of the segment at index. Widening a
// trim may grow the total effective duration, so the limit is re-checked.
func (c *Controller) TrimSegment(index int, inMs, outMs int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.segments) {
		return ErrSegmentIndex
	}
	trimmed, err := edit.SetTrim(c.segments[index], inMs, outMs)
	if err != nil {
		return err
	}
	newSegs := models.CloneSegments(c.segments)
	newSegs[index] = trimmed
	if edit.TotalDurationSeconds(newSegs) > float64(c.limitSeconds) {
		return ErrLimitExceeded
	}
	if err := store.UpdateDraft(c.draftID, newSegs, c.limitSeconds); err != nil {
		return fmt.Errorf("persist draft: %w", err)
	}
	c.segments = newSegs
	return nil
}

// MoveSegment reorders the segment at from to position to.
func (c *Controller) MoveSegment(from, to int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.segments)
	if from < 0 || from >= n || to < 0 || to >= n {
		return ErrSegmentIndex
	}
	if from == to {
		return nil
	}
	newSegs := models.CloneSegments(c.segments)
	seg := newSegs[from]
	newSegs = append(newSegs[:from], newSegs[from+1:]...)
	rest := append([]models.Segment{seg}, newSegs[to:]...)
	newSegs = append(newSegs[:to], rest...)

	if err := store.UpdateDraft(c.draftID, newSegs, c.limitSeconds); err != nil {
		return fmt.Errorf("persist draft: %w", err)
	}
	c.segments = newSegs
	return nil
}

// SetName renames the draft. Empty clears the name.
func (c *Controller) SetName(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := validation.ValidateDraftName(name); err != nil {
		return err
	}
	if c.draftID != "" {
		if err := store.UpdateDraftName(c.draftID, name); err != nil {
			return fmt.Errorf("persist draft name: %w", err)
		}
	}
	c.draftName = name
	return nil
}

// Close ends the session. With the start-over intent set and no content,
// the whole draft is deleted, files included. A session closed with no
// content also removes any redo slot it owns (abandoned work-in-progress)
// together with the files only that slot references.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.sched.Stop()

	if c.hasStartedOver && len(c.segments) == 0 {
		if c.pendingDeleteID != "" {
			if err := store.DeleteDraft(c.pendingDeleteID, false); err != nil {
				return fmt.Errorf("delete draft on close: %w", err)
			}
			c.media.DeleteDraftTree(c.pendingDeleteID)
		}
		return nil
	}

	if len(c.segments) == 0 {
		slot, err := store.GetRedoSlot()
		if err != nil || slot == nil {
			return nil
		}
		adoptable := slot.Owner.IsNone() ||
			slot.Owner.Is(c.preferredID) ||
			slot.Owner.Is(c.redoOwner.DraftID)
		if !adoptable {
			return nil
		}
		var files []string
		for _, s := range slot.Segments {
			files = append(files, s.Path)
		}
		c.media.DeleteURIs(files)
		if err := store.ClearRedoSlot(); err != nil {
			logger.Warn("redo_slot_clear_failed", "error", err)
		}
	}
	return nil
}

// autosaveFlush is the debounced persistence pass. It is a no-op unless the
// live segment count exceeds the watermark, which both suppresses redundant
// writes and keeps a stale timer from resurrecting pre-undo state.
func (c *Controller) autosaveFlush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.draftID == "" {
		return
	}
	if len(c.segments) <= c.watermark {
		telemetry.AutosaveSuppressed.Inc()
		return
	}
	if err := store.UpdateDraft(c.draftID, c.segments, c.limitSeconds); err != nil {
		logger.Warn("autosave_failed", "draft", c.draftID, "error", err)
		return
	}
	c.watermark = len(c.segments)
	telemetry.AutosaveRuns.Inc()
}

// Segments returns a copy of the current segment list (absolute paths).
func (c *Controller) Segments() []models.Segment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.CloneSegments(c.segments)
}

// RedoStack returns a copy of the redo stack, oldest first; the last
// element is the next redo candidate.
func (c *Controller) RedoStack() []models.Segment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.CloneSegments(c.redo)
}

// CurrentDraftID returns the bound draft id, or "" in the Empty state.
func (c *Controller) CurrentDraftID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draftID
}

// CurrentDraftName returns the draft's display name.
func (c *Controller) CurrentDraftName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draftName
}

// HasStartedOver reports whether the delete-on-close intent is set.
func (c *Controller) HasStartedOver() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasStartedOver
}

// DurationLimitSeconds returns the current duration ceiling.
func (c *Controller) DurationLimitSeconds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.limitSeconds
}

// TotalDurationSeconds returns the summed effective duration of the draft.
func (c *Controller) TotalDurationSeconds() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return edit.TotalDurationSeconds(c.segments)
}
