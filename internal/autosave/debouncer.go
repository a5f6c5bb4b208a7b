// Package autosave schedules debounced, last-write-wins saves.
package autosave

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultDelay is the quiet period after the last change before saving.
const DefaultDelay = 800 * time.Millisecond

// saveTimeout bounds a single background save.
const saveTimeout = 30 * time.Second

// SaveFunc persists the current state. It is called without any debouncer
// lock held and must snapshot the state itself.
type SaveFunc func(ctx context.Context) error

// Debouncer coalesces bursts of changes into a single save. Every Trigger
// restarts the delay; only the save scheduled by the last Trigger runs.
// Failures are logged and dropped. The next change schedules a new attempt.
type Debouncer struct {
	delay  time.Duration
	save   SaveFunc
	logger *zap.Logger

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending bool
	closed  bool

	inflight sync.WaitGroup
}

// New creates a Debouncer. A non-positive delay uses DefaultDelay.
func New(delay time.Duration, save SaveFunc, logger *zap.Logger) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{delay: delay, save: save, logger: logger}
}

// Trigger records a change and (re)starts the delay.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.stopLocked()
	d.pending = true
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Pending reports whether a save is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.inflight.Add(1)
	d.mu.Unlock()
	defer d.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := d.save(ctx); err != nil {
		d.logger.Warn("Auto-save failed", zap.Error(err))
		return
	}
	d.logger.Debug("Auto-saved")
}

// Cancel drops a scheduled save without running it. Saves already running
// are not interrupted.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.pending = false
}

// Flush runs a scheduled save immediately and waits for saves already in
// flight. It returns the error of the save it ran, if any.
func (d *Debouncer) Flush(ctx context.Context) error {
	d.mu.Lock()
	run := d.pending
	d.stopLocked()
	d.pending = false
	if run {
		d.inflight.Add(1)
	}
	d.mu.Unlock()

	var err error
	if run {
		err = d.save(ctx)
		d.inflight.Done()
	}
	d.inflight.Wait()
	return err
}

// Close flushes and stops accepting triggers.
func (d *Debouncer) Close(ctx context.Context) error {
	err := d.Flush(ctx)
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return err
}

func (d *Debouncer) stopLocked() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
