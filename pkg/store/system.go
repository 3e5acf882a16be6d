package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"draftstore/pkg/logger"
	"draftstore/pkg/models"
)

// System keys live beside draft records under the "system:" namespace and
// hold schema bookkeeping rather than user data.

// GetKey returns the value stored under a system key, or "" when absent.
func GetKey(key string) (string, error) {
	if db == nil {
		return "", fmt.Errorf("pebble not opened; call store.Open first")
	}
	v, closer, err := db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	out := string(append([]byte(nil), v...))
	if closer != nil {
		_ = closer.Close()
	}
	return out, nil
}

// SaveKey stores a raw value under a system key.
func SaveKey(key string, value []byte) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	return db.Set([]byte(key), value, pebble.Sync)
}

// DeleteKey removes a system key. Deleting an absent key is a no-op.
func DeleteKey(key string) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	return db.Delete([]byte(key), pebble.Sync)
}

// NormalizeLegacyPaths rewrites draft records whose segment or thumbnail
// paths were persisted absolute (pre-virtualization databases) into the
// root-relative form. It is idempotent and returns the number of records
// rewritten.
func NormalizeLegacyPaths() (int, error) {
	if db == nil {
		return 0, fmt.Errorf("pebble not opened; call store.Open first")
	}
	prefix := []byte("draft:")
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	fixed := 0
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
		changed := false
		for i, s := range d.Segments {
			if rel := resolver.ToRelative(s.Path); rel != s.Path {
				d.Segments[i].Path = rel
				changed = true
			}
		}
		if rel := resolver.ToRelative(d.Thumbnail); rel != d.Thumbnail {
			d.Thumbnail = rel
			changed = true
		}
		if !changed {
			continue
		}
		data, err := json.Marshal(d)
		if err != nil {
			return fixed, fmt.Errorf("failed to marshal draft %s: %w", d.ID, err)
		}
		key := append([]byte(nil), k...)
		if err := db.Set(key, data, pebble.Sync); err != nil {
			return fixed, err
		}
		fixed++
		logger.Info("legacy_paths_normalized", "draft", d.ID)
	}
	return fixed, iter.Error()
}
