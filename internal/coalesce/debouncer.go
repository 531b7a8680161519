// Package coalesce collapses bursts of events into a single call.
//
// A Debouncer runs its function once the trigger has been quiet for the
// configured delay. Every Trigger inside the window restarts the timer, so
// a stream of file writes produces one regeneration.
package coalesce

import (
	"sync"
	"time"
)

// Debouncer delays fn until Trigger has not been called for delay.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	timer   *time.Timer
	stopped bool
	running sync.WaitGroup
}

// New returns a Debouncer. fn runs on its own goroutine.
func New(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger schedules fn, restarting the wait if one is pending.
// Calls after Stop are ignored.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if d.timer == nil {
		d.timer = time.AfterFunc(d.delay, d.run)
		return
	}
	d.timer.Reset(d.delay)
}

// Stop cancels a pending call and waits for a call already running to
// return. It reports whether a pending call was cancelled. fn must not call
// Stop.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	d.stopped = true
	cancelled := d.timer != nil && d.timer.Stop()
	d.mu.Unlock()

	d.running.Wait()
	return cancelled
}

func (d *Debouncer) run() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.running.Add(1)
	d.mu.Unlock()

	defer d.running.Done()
	d.fn()
}
