// Package migrate runs one-shot upgrade work when the on-disk schema
// version does not match the running binary.
package migrate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"draftstore/pkg/logger"
	"draftstore/pkg/store"
)

const (
	systemVersionKey    = "system:version"
	systemInProgressKey = "system:migration_in_progress"
)

// Sync performs upgrade work between versions. Edit in-place for migration
// logic.
func Sync(ctx context.Context, from, to string) error {
	logger.Info("migrate_sync_start", "from", from, "to", to)

	// Migration: normalize draft records whose media paths were persisted
	// absolute by pre-virtualization builds. Idempotent and safe to run
	// multiple times.
	fixed, err := store.NormalizeLegacyPaths()
	if err != nil {
		logger.Error("migrate_normalize_paths_failed", "error", err)
		return err
	}
	if fixed > 0 {
		logger.Info("migrate_paths_normalized", "drafts", fixed)
	}

	logger.Info("migrate_sync_done", "from", from, "to", to)
	return nil
}

// Run checks for a version change and runs Sync if needed.
// Returns (invoked, error): invoked is true if Sync ran.
func Run(ctx context.Context, newVersion string) (bool, error) {
	stored, err := store.GetKey(systemVersionKey)
	if err != nil {
		logger.Error("migrate_read_version_failed", "error", err)
		return false, err
	}
	logger.Info("migrate_version_check", "stored", stored, "running", newVersion)
	if stored == newVersion {
		logger.Info("migrate_noop", "version", newVersion)
		return false, nil
	}

	marker := map[string]string{
		"from":       stored,
		"to":         newVersion,
		"started_at": time.Now().UTC().Format(time.RFC3339),
	}
	mb, _ := json.Marshal(marker)
	if err := store.SaveKey(systemInProgressKey, mb); err != nil {
		logger.Error("migrate_write_inprogress_failed", "error", err)
		return true, fmt.Errorf("failed to write in-progress marker: %w", err)
	}

	if err := Sync(ctx, stored, newVersion); err != nil {
		logger.Error("migrate_sync_failed", "from", stored, "to", newVersion, "error", err)
		return true, err
	}

	if err := store.SaveKey(systemVersionKey, []byte(newVersion)); err != nil {
		logger.Error("migrate_persist_version_failed", "version", newVersion, "error", err)
		return true, fmt.Errorf("failed to persist new version: %w", err)
	}

	if err := store.DeleteKey(systemInProgressKey); err != nil {
		logger.Error("migrate_delete_inprogress_failed", "error", err)
	}

	logger.Info("migrate_version_persisted", "version", newVersion)
	return true, nil
}
