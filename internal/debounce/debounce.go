// Package debounce delays work until input has been quiet for a while.
package debounce

import (
	"context"
	"sync"
	"time"
)

// DefaultDelay is the quiet period for search inputs.
const DefaultDelay = 300 * time.Millisecond

// Debouncer runs only the most recent submission, once nothing newer has
// arrived for the delay. A superseded submission never runs, and if it is
// already running its context is cancelled.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	cancel  context.CancelFunc
	stopped bool
}

func New(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{delay: delay}
}

// Submit schedules fn, replacing anything still pending.
func (d *Debouncer) Submit(fn func(ctx context.Context)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.supersedeLocked()

	d.gen++
	gen := d.gen
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := gen == d.gen && !d.stopped
		d.mu.Unlock()
		if !current {
			return
		}
		fn(ctx)
	})
}

// Stop cancels pending and running work. Later submissions are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.supersedeLocked()
}

func (d *Debouncer) supersedeLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
