// Package debounce delays a call until input has been quiet for a while.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet period used for search input and resize.
const DefaultDelay = 300 * time.Millisecond

// Debouncer runs only the last function passed to Call once delay has passed
// without another Call. It is owned by the component that uses it, which must
// Cancel it when done.
type Debouncer struct {
	mu        sync.Mutex
	delay     time.Duration
	timer     *time.Timer
	gen       uint64
	cancelled bool
}

// New returns a Debouncer with the given delay. A non-positive delay uses
// DefaultDelay.
func New(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{delay: delay}
}

// Call schedules fn, replacing any call still pending. fn runs on its own
// goroutine. Calls after Cancel are ignored.
func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancelled {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// A newer Call or Cancel may have raced the timer.
		current := !d.cancelled && gen == d.gen
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Cancel drops the pending call and disables the Debouncer.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelled = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
