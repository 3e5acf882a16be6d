package app

import (
	"fmt"

	"draftstore/pkg/config"
)

// validateConfig performs quick, fail-fast validation of the effective
// configuration before starting long-running services. Keep checks light
// and focused so callers can surface user-friendly errors.
func validateConfig(eff config.EffectiveConfigResult) error {
	if eff.DBPath == "" {
		return fmt.Errorf("database path is empty: set --db flag, DRAFTSTORE_DB_PATH env, or storage.db_path in config")
	}
	if eff.MediaRoot == "" {
		return fmt.Errorf("media root is empty: set --media flag, DRAFTSTORE_MEDIA_ROOT env, or storage.media_root in config")
	}
	if eff.MediaRoot == eff.DBPath {
		return fmt.Errorf("media root and database path must differ")
	}
	if ret := eff.Config.Retention; ret.Enabled && ret.GraceMinutes < 0 {
		return fmt.Errorf("retention.grace_minutes must not be negative")
	}
	return nil
}
