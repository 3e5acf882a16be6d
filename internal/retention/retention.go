// Package retention reclaims orphaned media files: files under the managed
// root referenced by no draft record and no persisted redo slot. Orphans
// are an accepted degraded state of crash-interrupted cleanup, never a
// correctness problem, so the sweep is best-effort and runs on a cron
// schedule. Recently written files are protected by a grace period so a
// sweep can never race an import that has not been persisted yet.
package retention

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/adhocore/gronx"

	"draftstore/pkg/config"
	"draftstore/pkg/logger"
	"draftstore/pkg/media"
	"draftstore/pkg/store"
	"draftstore/pkg/telemetry"
)

// Start starts the sweep scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, eff config.EffectiveConfigResult, m *media.Store) (context.CancelFunc, error) {
	ret := eff.Config.Retention
	if !ret.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}

	cronExpr := ret.Cron
	if cronExpr == "" {
		cronExpr = "0 3 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("retention_invalid_cron", "cron", ret.Cron)
		return nil, fmt.Errorf("invalid retention cron expression: %s", ret.Cron)
	}

	grace := time.Duration(ret.GraceMinutes) * time.Minute
	if grace <= 0 {
		grace = 60 * time.Minute
	}

	logger.Info("retention_enabled", "cron", cronExpr, "grace", grace.String())
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, m, cronExpr, grace)
	return cancel, nil
}

// runScheduler computes the next tick for the cron expression with gronx
// and sleeps until then.
func runScheduler(ctx context.Context, m *media.Store, cronExpr string, grace time.Duration) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("retention_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if n, err := SweepOnce(m, grace); err != nil {
				logger.Error("retention_run_error", "error", err)
			} else if n > 0 {
				logger.Info("retention_swept", "files", n)
			}
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		}
	}
}

// SweepOnce scans the managed root and deletes unreferenced files older
// than the grace period. It returns the number of files reclaimed.
func SweepOnce(m *media.Store, grace time.Duration) (int, error) {
	referenced, err := referencedPaths(m)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-grace)
	var orphans []string
	root := m.Root()
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if _, ok := referenced[filepath.Clean(p)]; ok {
			return nil
		}
		fi, ferr := d.Info()
		if ferr != nil {
			return nil
		}
		if fi.ModTime().After(cutoff) {
			return nil
		}
		orphans = append(orphans, p)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk managed root: %w", err)
	}

	for _, p := range orphans {
		if err := os.Remove(p); err != nil {
			logger.Warn("orphan_delete_failed", "path", p, "error", err)
			continue
		}
		telemetry.OrphansSwept.Inc()
		logger.Debug("orphan_deleted", "path", p)
	}
	return len(orphans), nil
}

// referencedPaths collects every absolute file path any draft record or the
// redo slot still points at.
func referencedPaths(m *media.Store) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	drafts, err := store.ListDrafts()
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	for _, d := range drafts {
		for _, s := range d.Segments {
			out[filepath.Clean(s.Path)] = struct{}{}
		}
		if d.Thumbnail != "" {
			out[filepath.Clean(d.Thumbnail)] = struct{}{}
		}
	}
	slot, err := store.GetRedoSlot()
	if err != nil {
		return nil, fmt.Errorf("load redo slot: %w", err)
	}
	if slot != nil {
		for _, s := range slot.Segments {
			out[filepath.Clean(s.Path)] = struct{}{}
		}
	}
	return out, nil
}
