package session

import (
	"sync"
	"time"
)

// autosave is the debounced persistence scheduler. Each state change calls
// Schedule; the flush runs after a quiet period. A newer change supersedes
// a pending flush through the controller's watermark check, not through
// timer cancellation: Stop on the old timer is best-effort only and the
// flush itself must be (and is) a no-op when nothing new needs persisting.
type autosave struct {
	mu      sync.Mutex
	quiet   time.Duration
	timer   *time.Timer
	flush   func()
	stopped bool
}

func newAutosave(quiet time.Duration, flush func()) *autosave {
	return &autosave{quiet: quiet, flush: flush}
}

// Schedule arms (or re-arms) the debounce timer.
func (a *autosave) Schedule() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.quiet, a.flush)
}

// Stop disarms the scheduler. A flush already in flight may still run; it
// guards itself.
func (a *autosave) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
