package view

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiescence window of the search input.
const DefaultDebounce = time.Second

type stopper interface {
	Stop() bool
}

// Debouncer calls fn with the latest pushed value once no new value arrived
// for the window.
type Debouncer struct {
	window    time.Duration
	fn        func(string)
	afterFunc func(time.Duration, func()) stopper

	mu      sync.Mutex
	timer   stopper
	seq     uint64
	stopped bool
}

func NewDebouncer(window time.Duration, fn func(string)) *Debouncer {
	if window <= 0 {
		window = DefaultDebounce
	}
	return &Debouncer{
		window: window,
		fn:     fn,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
}

// Push restarts the window with v as the pending value.
func (d *Debouncer) Push(v string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = d.afterFunc(d.window, func() {
		d.mu.Lock()
		live := !d.stopped && d.seq == seq
		d.mu.Unlock()
		if live {
			d.fn(v)
		}
	})
}

// Stop drops any pending value. Later pushes are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
