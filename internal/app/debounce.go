package app

import (
	"log/slog"
	"sync"
	"time"
)

// Debouncer coalesces bursts of Schedule calls into one save after a quiet
// period. Saves never run concurrently.
type Debouncer struct {
	delay  time.Duration
	save   func() error
	logger *slog.Logger

	saveMu  sync.Mutex
	mu      sync.Mutex
	timer   *time.Timer
	pending bool
}

// NewDebouncer creates a Debouncer that calls save delay after the last Schedule.
func NewDebouncer(delay time.Duration, save func() error, logger *slog.Logger) *Debouncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Debouncer{delay: delay, save: save, logger: logger}
}

// Schedule marks state dirty and restarts the quiet period.
func (d *Debouncer) Schedule() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *Debouncer) fire() {
	if err := d.Flush(); err != nil {
		d.logger.Error("deferred save failed", "error", err)
	}
}

// Flush saves immediately if anything is pending. A failed save stays pending.
func (d *Debouncer) Flush() error {
	d.saveMu.Lock()
	defer d.saveMu.Unlock()

	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if !d.pending {
		d.mu.Unlock()
		return nil
	}
	d.pending = false
	d.mu.Unlock()

	if err := d.save(); err != nil {
		d.mu.Lock()
		d.pending = true
		d.mu.Unlock()
		return err
	}
	return nil
}

// Pending reports whether a save is outstanding.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stop cancels any scheduled save without running it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
