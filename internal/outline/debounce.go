package outline

import (
	"sync"
	"time"
)

// Debouncer runs fn once a burst of triggers has been quiet for the wait
// window. Each trigger restarts the window.
type Debouncer struct {
	wait time.Duration
	fn   func()

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// NewDebouncer creates an idle debouncer
func NewDebouncer(wait time.Duration, fn func()) *Debouncer {
	return &Debouncer{wait: wait, fn: fn}
}

// Trigger (re)starts the quiescence window
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.wait, func() { d.fire(gen) })
}

// fire runs fn unless a later trigger or Stop superseded this timer
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	current := gen == d.gen && !d.stopped
	d.mu.Unlock()

	if current {
		d.fn()
	}
}

// Stop cancels a pending call. Later triggers are ignored. It does not wait
// for a call that has already started.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
