package watch

import (
	"log/slog"
	"sync"
	"time"
)

// Debouncer coalesces rapid events into a single callback invocation.
// The callback receives the last path seen and how many events were folded
// into the invocation. Callbacks never overlap: events arriving while one
// runs are folded into a single follow-up invocation.
type Debouncer struct {
	interval time.Duration
	callback func(path string, events int)
	logger   *slog.Logger

	runMu sync.Mutex

	mu       sync.Mutex
	timer    *time.Timer
	lastPath string
	pending  int
}

// NewDebouncer creates a debouncer that waits for interval of quiet before
// firing callback.
func NewDebouncer(interval time.Duration, callback func(path string, events int)) *Debouncer {
	return &Debouncer{
		interval: interval,
		callback: callback,
		logger:   slog.Default(),
	}
}

// Trigger records an event for path and restarts the quiet period.
func (d *Debouncer) Trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastPath = path
	d.pending++

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, d.fire)
}

// Pending returns the number of events waiting for the quiet period.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.pending
}

// Stop cancels any pending callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	d.pending = 0
}

func (d *Debouncer) fire() {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("debouncer callback panicked", slog.Any("error", r))
		}
	}()

	d.runMu.Lock()
	defer d.runMu.Unlock()

	d.mu.Lock()
	path, n := d.lastPath, d.pending
	d.pending = 0
	d.mu.Unlock()

	if n == 0 {
		return
	}

	d.callback(path, n)
}
