// Package telemetry exposes the store's Prometheus collectors. Collectors
// are registered on the default registry; cmd/draftstore serves them on
// /metrics via promhttp.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DraftsSaved counts draft records written (create + update).
	DraftsSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "draftstore_drafts_saved_total",
		Help: "Draft records written to the store.",
	})

	// DraftsDeleted counts draft records deleted, labelled by whether the
	// referenced media files were kept on disk.
	DraftsDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "draftstore_drafts_deleted_total",
		Help: "Draft records deleted from the store.",
	}, []string{"kept_files"})

	// FilesImported counts media files imported into the managed root.
	FilesImported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "draftstore_files_imported_total",
		Help: "Media files imported into the managed root.",
	})

	// FilesDeleted counts media files removed from the managed root.
	FilesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "draftstore_files_deleted_total",
		Help: "Media files deleted from the managed root.",
	})

	// FileDeleteFailures counts per-file delete errors that were swallowed.
	// Cleanup is best-effort; this counter is how swallowed errors stay
	// visible.
	FileDeleteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "draftstore_file_delete_failures_total",
		Help: "Best-effort file deletions that failed.",
	})

	// AutosaveRuns counts debounced autosave passes that persisted state.
	AutosaveRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "draftstore_autosave_runs_total",
		Help: "Autosave passes that wrote the draft record.",
	})

	// AutosaveSuppressed counts autosave passes suppressed by the segment
	// count watermark.
	AutosaveSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "draftstore_autosave_suppressed_total",
		Help: "Autosave passes suppressed by the watermark guard.",
	})

	// OrphansSwept counts files reclaimed by the retention sweep.
	OrphansSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "draftstore_orphans_swept_total",
		Help: "Orphaned media files reclaimed by the retention sweep.",
	})

	// MediaDiskTotalBytes is the size of the filesystem holding the media
	// root, sampled by the disk watcher.
	MediaDiskTotalBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "draftstore_media_disk_total_bytes",
		Help: "Total bytes on the filesystem holding the media root.",
	})

	// MediaDiskFreeBytes is the free space beside the media root.
	MediaDiskFreeBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "draftstore_media_disk_free_bytes",
		Help: "Free bytes on the filesystem holding the media root.",
	})
)
