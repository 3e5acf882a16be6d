package diskwatch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"draftstore/pkg/logger"
	"draftstore/pkg/telemetry"
)

// Snapshot is a point-in-time view of the filesystem holding the managed
// media root. Fields are best-effort and may be zero on unsupported
// platforms.
type Snapshot struct {
	Timestamp time.Time

	// Disk free/total in bytes for the filesystem holding the media root.
	DiskTotal uint64
	DiskFree  uint64
}

// LowSpace returns true when free space has fallen below threshold bytes.
// A zero snapshot (statfs unavailable) never reports low space.
func (s Snapshot) LowSpace(threshold uint64) bool {
	return s.DiskTotal > 0 && s.DiskFree < threshold
}

// DefaultLowSpaceBytes is the free-space floor below which the watcher
// starts warning. Recording video fills disks quickly, so the floor is
// deliberately generous.
const DefaultLowSpaceBytes = 512 << 20

// Watcher polls free space under a directory and exposes the most recent
// Snapshot. Handlers registered with OnLowSpace are invoked whenever the
// watched filesystem crosses below the threshold.
type Watcher struct {
	mu   sync.RWMutex
	snap Snapshot

	root      string
	interval  time.Duration
	threshold uint64

	hMu      sync.RWMutex
	handlers []func(Snapshot)
	wasLow   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a watcher over root that samples every interval.
func New(root string, interval time.Duration, threshold uint64) *Watcher {
	if threshold == 0 {
		threshold = DefaultLowSpaceBytes
	}
	w := &Watcher{root: root, interval: interval, threshold: threshold}
	w.ctx, w.cancel = context.WithCancel(context.Background())
	return w
}

// Start begins background polling. Call Stop to terminate.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		// warm initial sample
		w.sample()
		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				w.sample()
			}
		}
	}()
}

// Stop stops background polling and waits for the poller to exit.
func (w *Watcher) Stop() {
	w.cancel()
	w.wg.Wait()
}

// Snapshot returns the most recent snapshot (fast, copy).
func (w *Watcher) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snap
}

// OnLowSpace registers a callback invoked when free space first drops below
// the threshold. It fires once per crossing, not on every sample.
func (w *Watcher) OnLowSpace(h func(Snapshot)) {
	w.hMu.Lock()
	defer w.hMu.Unlock()
	w.handlers = append(w.handlers, h)
}

func (w *Watcher) sample() {
	snap := Snapshot{Timestamp: time.Now()}

	var st unix.Statfs_t
	if err := unix.Statfs(w.root, &st); err == nil {
		snap.DiskTotal = st.Blocks * uint64(st.Bsize)
		snap.DiskFree = st.Bavail * uint64(st.Bsize)
		telemetry.MediaDiskTotalBytes.Set(float64(snap.DiskTotal))
		telemetry.MediaDiskFreeBytes.Set(float64(snap.DiskFree))
	} else {
		logger.Debug("diskwatch_statfs_failed", "root", w.root, "error", err)
	}

	w.mu.Lock()
	w.snap = snap
	w.mu.Unlock()

	low := snap.LowSpace(w.threshold)
	w.hMu.Lock()
	crossed := low && !w.wasLow
	w.wasLow = low
	handlers := append([]func(Snapshot){}, w.handlers...)
	w.hMu.Unlock()

	if crossed {
		logger.Warn("media_disk_low", "free_bytes", snap.DiskFree, "threshold", w.threshold)
		for _, h := range handlers {
			go h(snap)
		}
	}
}
